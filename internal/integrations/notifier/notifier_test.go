package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/logger"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/ptr"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
	ctxOK bool
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.ctxOK = ctx.Err() == nil
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "id", Queue: "notifications"}, nil
}

func appointment() *domain.Reservation {
	return &domain.Reservation{
		ID:          5,
		ProviderID:  7,
		PatientID:   ptr.Ptr(int64(3)),
		ScheduledAt: time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC),
		Modality:    domain.ModalityVideo,
		Status:      domain.StatusScheduled,
	}
}

func TestPublisher_AppointmentCreated(t *testing.T) {
	enq := &fakeEnqueuer{}
	p := NewPublisher(enq, "notifications", 3, time.Second, logger.NewNop())

	p.AppointmentCreated(context.Background(), appointment())

	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TypeAppointmentCreated, enq.tasks[0].Type())

	var event Event
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &event))
	assert.Equal(t, int64(5), event.AppointmentID)
	assert.Equal(t, int64(3), *event.PatientID)
	assert.NotEmpty(t, event.EventID)
	assert.Nil(t, event.PreviousScheduledAt)
}

func TestPublisher_AppointmentRescheduled(t *testing.T) {
	enq := &fakeEnqueuer{}
	p := NewPublisher(enq, "notifications", 3, time.Second, logger.NewNop())
	previous := time.Date(2030, 1, 6, 9, 0, 0, 0, time.UTC)

	p.AppointmentRescheduled(context.Background(), appointment(), previous)

	require.Len(t, enq.tasks, 1)
	var event Event
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &event))
	assert.Equal(t, TypeAppointmentRescheduled, event.Type)
	require.NotNil(t, event.PreviousScheduledAt)
	assert.True(t, previous.Equal(*event.PreviousScheduledAt))
}

func TestPublisher_CancelledCarriesReason(t *testing.T) {
	enq := &fakeEnqueuer{}
	p := NewPublisher(enq, "notifications", 3, time.Second, logger.NewNop())

	r := appointment()
	r.Status = domain.StatusCancelled
	r.CancellationReason = ptr.Ptr("travelling")
	p.AppointmentCancelled(context.Background(), r)

	var event Event
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &event))
	assert.Equal(t, "travelling", *event.Reason)
}

func TestPublisher_FailureIsSwallowed(t *testing.T) {
	enq := &fakeEnqueuer{err: errors.New("redis down")}
	p := NewPublisher(enq, "notifications", 3, time.Second, logger.NewNop())

	assert.NotPanics(t, func() {
		p.AppointmentCreated(context.Background(), appointment())
	})
	assert.Empty(t, enq.tasks)
}

func TestPublisher_SurvivesCancelledRequest(t *testing.T) {
	enq := &fakeEnqueuer{}
	p := NewPublisher(enq, "notifications", 3, time.Second, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.AppointmentCreated(ctx, appointment())

	assert.True(t, enq.ctxOK)
	assert.Len(t, enq.tasks, 1)
}
