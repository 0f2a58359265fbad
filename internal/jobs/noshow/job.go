// Package noshow периодически отмечает неявки по приёмам, время которых прошло.
package noshow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Marker переводит просроченные приёмы в no_show
type Marker interface {
	MarkNoShows(ctx context.Context, grace time.Duration) (int, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Job задача отметки неявок по расписанию cron
type Job struct {
	marker  Marker
	grace   time.Duration
	timeout time.Duration
	cron    *cron.Cron
	logger  Logger

	mu      sync.Mutex
	running bool
}

// NewJob создает задачу. timeout ограничивает один прогон.
func NewJob(marker Marker, grace, timeout time.Duration, logger Logger) *Job {
	return &Job{
		marker:  marker,
		grace:   grace,
		timeout: timeout,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start регистрирует задачу по спецификации cron ("@every 10m", "*/5 * * * *") и запускает планировщик
func (j *Job) Start(spec string) error {
	if _, err := j.cron.AddFunc(spec, j.Run); err != nil {
		return fmt.Errorf("noshow: invalid schedule %q: %w", spec, err)
	}
	j.cron.Start()
	j.logger.Info("NoShowJob: scheduled with spec=%q, grace=%s", spec, j.grace)
	return nil
}

// Stop останавливает планировщик и ждет завершения текущего прогона
func (j *Job) Stop(ctx context.Context) {
	stopped := j.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
}

// Run выполняет один прогон. Параллельные прогоны пропускаются.
func (j *Job) Run() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		j.logger.Info("NoShowJob: previous run still in progress, skipping")
		return
	}
	j.running = true
	j.mu.Unlock()

	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	marked, err := j.marker.MarkNoShows(ctx, j.grace)
	if err != nil {
		j.logger.Error("NoShowJob: run failed after marking %d appointments: %v", marked, err)
		return
	}
	if marked > 0 {
		j.logger.Info("NoShowJob: marked %d appointments as no_show", marked)
	}
}
