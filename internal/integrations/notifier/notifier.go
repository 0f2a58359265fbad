// Package notifier публикует события жизненного цикла приёмов в очередь уведомлений (asynq).
// Доставка fire-and-forget: ошибки логируются и не влияют на транзакцию бронирования.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
)

// Типы задач в очереди уведомлений
const (
	TypeAppointmentCreated     = "notification:appointment_created"
	TypeAppointmentCancelled   = "notification:appointment_cancelled"
	TypeAppointmentRescheduled = "notification:appointment_rescheduled"
)

// Enqueuer постановщик задач (*asynq.Client)
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Event полезная нагрузка задачи
type Event struct {
	EventID             string     `json:"event_id"`
	Type                string     `json:"type"`
	AppointmentID       int64      `json:"appointment_id"`
	ProviderID          int64      `json:"provider_id"`
	PatientID           *int64     `json:"patient_id,omitempty"`
	ScheduledAt         time.Time  `json:"scheduled_at"`
	PreviousScheduledAt *time.Time `json:"previous_scheduled_at,omitempty"`
	Modality            string     `json:"modality"`
	Reason              *string    `json:"reason,omitempty"`
	OccurredAt          time.Time  `json:"occurred_at"`
}

// Publisher публикует события приёмов
type Publisher struct {
	client   Enqueuer
	queue    string
	maxRetry int
	timeout  time.Duration
	log      Logger
}

// NewPublisher создает публикатор событий
func NewPublisher(client Enqueuer, queue string, maxRetry int, timeout time.Duration, log Logger) *Publisher {
	return &Publisher{
		client:   client,
		queue:    queue,
		maxRetry: maxRetry,
		timeout:  timeout,
		log:      log,
	}
}

// AppointmentCreated публикует событие создания приёма
func (p *Publisher) AppointmentCreated(ctx context.Context, r *domain.Reservation) {
	p.publish(ctx, newEvent(TypeAppointmentCreated, r))
}

// AppointmentCancelled публикует событие отмены приёма
func (p *Publisher) AppointmentCancelled(ctx context.Context, r *domain.Reservation) {
	event := newEvent(TypeAppointmentCancelled, r)
	event.Reason = r.CancellationReason
	p.publish(ctx, event)
}

// AppointmentRescheduled публикует событие переноса приёма
func (p *Publisher) AppointmentRescheduled(ctx context.Context, r *domain.Reservation, previous time.Time) {
	event := newEvent(TypeAppointmentRescheduled, r)
	prev := previous.UTC()
	event.PreviousScheduledAt = &prev
	p.publish(ctx, event)
}

func newEvent(taskType string, r *domain.Reservation) *Event {
	return &Event{
		EventID:       uuid.NewString(),
		Type:          taskType,
		AppointmentID: r.ID,
		ProviderID:    r.ProviderID,
		PatientID:     r.PatientID,
		ScheduledAt:   r.ScheduledAt.UTC(),
		Modality:      string(r.Modality),
		OccurredAt:    time.Now().UTC(),
	}
}

func (p *Publisher) publish(ctx context.Context, event *Event) {
	task, opts, err := p.newTask(event)
	if err != nil {
		p.log.Error("Failed to build %s task for appointment_id=%d: %v", event.Type, event.AppointmentID, err)
		return
	}

	// Запрос клиента может быть уже отменён, но событие должно уйти
	enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	info, err := p.client.EnqueueContext(enqueueCtx, task, opts...)
	if err != nil {
		p.log.Error("Failed to enqueue %s for appointment_id=%d: %v", event.Type, event.AppointmentID, err)
		return
	}

	p.log.Info("Enqueued %s for appointment_id=%d (task_id=%s, queue=%s)", event.Type, event.AppointmentID, info.ID, info.Queue)
}

func (p *Publisher) newTask(event *Event) (*asynq.Task, []asynq.Option, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal event: %w", err)
	}

	task := asynq.NewTask(event.Type, payload)
	opts := []asynq.Option{
		asynq.TaskID(event.EventID),
		asynq.Queue(p.queue),
		asynq.MaxRetry(p.maxRetry),
	}

	return task, opts, nil
}

// Noop публикатор-заглушка, когда уведомления выключены
type Noop struct{}

func (Noop) AppointmentCreated(context.Context, *domain.Reservation) {}

func (Noop) AppointmentCancelled(context.Context, *domain.Reservation) {}

func (Noop) AppointmentRescheduled(context.Context, *domain.Reservation, time.Time) {}
