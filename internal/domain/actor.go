package domain

// Role represents the role of an authenticated actor
type Role string

const (
	RolePatient  Role = "patient"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
	RoleSystem   Role = "system"
)

// SystemActorID is recorded for transitions made by background jobs
const SystemActorID int64 = 0

// Actor represents the caller of an operation as supplied by the identity layer
type Actor struct {
	ID   int64
	Role Role
}

// SystemActor returns the actor used by background jobs
func SystemActor() Actor {
	return Actor{ID: SystemActorID, Role: RoleSystem}
}

// IsValid returns true for roles the identity layer can supply
func (r Role) IsValid() bool {
	return r == RolePatient || r == RoleProvider || r == RoleAdmin
}

// IsPatient returns true if the actor acts as the given patient
func (a Actor) IsPatient(patientID int64) bool {
	return a.Role == RolePatient && a.ID == patientID
}

// IsProvider returns true if the actor acts as the given provider
func (a Actor) IsProvider(providerID int64) bool {
	return a.Role == RoleProvider && a.ID == providerID
}

// IsAdmin returns true for administrators
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
