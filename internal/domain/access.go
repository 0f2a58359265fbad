package domain

import "time"

// AccessReason explains an access decision
type AccessReason string

const (
	AccessUpcomingAppointment AccessReason = "upcoming_appointment"
	AccessActiveAppointment   AccessReason = "active_appointment"
	AccessRecentHistory       AccessReason = "recent_history"
	AccessEmergencyOverride   AccessReason = "emergency_override"
	AccessNoRelationship      AccessReason = "no_qualifying_appointment"
)

// AccessDecision is the computed outcome of a record-access evaluation
type AccessDecision struct {
	Allowed       bool
	Reason        AccessReason
	ReservationID *int64 // reservation that satisfied the rule
	Emergency     bool
	GrantID       *string
	EvaluatedAt   time.Time
}

// AccessWindows are the time windows of the record-access policy
type AccessWindows struct {
	Upcoming time.Duration // scheduled/confirmed, instant in (now, now+Upcoming]
	Active   time.Duration // in_progress/confirmed/completed, instant in [now-Active, now+Active]
	History  time.Duration // completed/cancelled/no_show, instant in [now-History, now]
}

// DefaultAccessWindows returns 30 days / 24 hours / 365 days
func DefaultAccessWindows() AccessWindows {
	return AccessWindows{
		Upcoming: DefaultUpcomingAccessWindow,
		Active:   DefaultActiveAccessWindow,
		History:  DefaultHistoryAccessWindow,
	}
}

// Range returns the interval of instants that can satisfy any rule at now
func (w AccessWindows) Range(now time.Time) (time.Time, time.Time) {
	back := w.History
	if w.Active > back {
		back = w.Active
	}
	ahead := w.Upcoming
	if w.Active > ahead {
		ahead = w.Active
	}
	return now.Add(-back), now.Add(ahead)
}

// Evaluate applies the policy to the reservations between a provider and a patient.
// The rules are checked in order upcoming, active, history; the first match wins.
func (w AccessWindows) Evaluate(reservations []*Reservation, now time.Time) AccessDecision {
	rules := []struct {
		reason   AccessReason
		statuses []ReservationStatus
		from     time.Time
		to       time.Time
		openFrom bool // exclude the lower bound
	}{
		{AccessUpcomingAppointment, []ReservationStatus{StatusScheduled, StatusConfirmed}, now, now.Add(w.Upcoming), true},
		{AccessActiveAppointment, []ReservationStatus{StatusInProgress, StatusConfirmed, StatusCompleted}, now.Add(-w.Active), now.Add(w.Active), false},
		{AccessRecentHistory, []ReservationStatus{StatusCompleted, StatusCancelled, StatusNoShow}, now.Add(-w.History), now, false},
	}

	for _, rule := range rules {
		for _, r := range reservations {
			if !hasStatus(r.Status, rule.statuses) {
				continue
			}
			at := r.ScheduledAt
			if at.After(rule.to) || at.Before(rule.from) {
				continue
			}
			if rule.openFrom && at.Equal(rule.from) {
				continue
			}
			id := r.ID
			return AccessDecision{
				Allowed:       true,
				Reason:        rule.reason,
				ReservationID: &id,
				EvaluatedAt:   now,
			}
		}
	}

	return AccessDecision{
		Allowed:     false,
		Reason:      AccessNoRelationship,
		EvaluatedAt: now,
	}
}

func hasStatus(s ReservationStatus, statuses []ReservationStatus) bool {
	for _, candidate := range statuses {
		if s == candidate {
			return true
		}
	}
	return false
}
