package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func reservationAt(id int64, status ReservationStatus, at time.Time) *Reservation {
	patient := int64(42)
	return &Reservation{ID: id, ProviderID: 7, PatientID: &patient, ScheduledAt: at, Status: status}
}

func TestAccessWindows_History(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	w := DefaultAccessWindows()

	decision := w.Evaluate([]*Reservation{reservationAt(1, StatusCompleted, now.AddDate(0, 0, -200))}, now)
	assert.True(t, decision.Allowed)
	assert.Equal(t, AccessRecentHistory, decision.Reason)
	assert.Equal(t, int64(1), *decision.ReservationID)

	decision = w.Evaluate([]*Reservation{reservationAt(1, StatusCompleted, now.AddDate(0, 0, -366))}, now)
	assert.False(t, decision.Allowed)
	assert.Equal(t, AccessNoRelationship, decision.Reason)
	assert.Nil(t, decision.ReservationID)
}

func TestAccessWindows_Upcoming(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	w := DefaultAccessWindows()

	tests := []struct {
		name    string
		r       *Reservation
		allowed bool
		reason  AccessReason
	}{
		{"scheduled in 10 days", reservationAt(1, StatusScheduled, now.AddDate(0, 0, 10)), true, AccessUpcomingAppointment},
		{"scheduled exactly 30 days ahead", reservationAt(1, StatusScheduled, now.Add(30*24*time.Hour)), true, AccessUpcomingAppointment},
		{"scheduled 31 days ahead", reservationAt(1, StatusScheduled, now.AddDate(0, 0, 31)), false, AccessNoRelationship},
		{"cancelled upcoming", reservationAt(1, StatusCancelled, now.AddDate(0, 0, 3)), false, AccessNoRelationship},
		{"confirmed in 2 hours", reservationAt(1, StatusConfirmed, now.Add(2*time.Hour)), true, AccessUpcomingAppointment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := w.Evaluate([]*Reservation{tt.r}, now)
			assert.Equal(t, tt.allowed, decision.Allowed)
			assert.Equal(t, tt.reason, decision.Reason)
			assert.Equal(t, now, decision.EvaluatedAt)
		})
	}
}

func TestAccessWindows_Active(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	w := DefaultAccessWindows()

	decision := w.Evaluate([]*Reservation{reservationAt(1, StatusInProgress, now.Add(-20*time.Minute))}, now)
	assert.True(t, decision.Allowed)
	assert.Equal(t, AccessActiveAppointment, decision.Reason)

	// a scheduled appointment that already started but was never confirmed grants nothing
	decision = w.Evaluate([]*Reservation{reservationAt(1, StatusScheduled, now.Add(-20*time.Minute))}, now)
	assert.False(t, decision.Allowed)

	decision = w.Evaluate([]*Reservation{reservationAt(1, StatusInProgress, now.Add(-48*time.Hour))}, now)
	assert.False(t, decision.Allowed)
}

func TestAccessWindows_Configurable(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	w := AccessWindows{Upcoming: 24 * time.Hour, Active: time.Hour, History: 30 * 24 * time.Hour}

	decision := w.Evaluate([]*Reservation{reservationAt(1, StatusCompleted, now.AddDate(0, 0, -200))}, now)
	assert.False(t, decision.Allowed)

	from, to := w.Range(now)
	assert.Equal(t, now.Add(-30*24*time.Hour), from)
	assert.Equal(t, now.Add(24*time.Hour), to)
}

func TestAccessWindows_NoReservations(t *testing.T) {
	decision := DefaultAccessWindows().Evaluate(nil, time.Now())
	assert.False(t, decision.Allowed)
	assert.False(t, decision.Emergency)
}
