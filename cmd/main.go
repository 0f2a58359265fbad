package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	authorizeEmergencyHandler "github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers/authorize_emergency"
	blockSlotHandler "github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers/block_slot"
	cancelAppointmentHandler "github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers/cancel_appointment"
	createAppointmentHandler "github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers/create_appointment"
	evaluateAccessHandler "github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers/evaluate_access"
	getAppointmentHandler "github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers/get_appointment"
	getAppointmentEventsHandler "github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers/get_appointment_events"
	getAvailableSlotsHandler "github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers/get_available_slots"
	getPatientAppointmentsHandler "github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers/get_patient_appointments"
	getProviderAppointmentsHandler "github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers/get_provider_appointments"
	getScheduleHandler "github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers/get_schedule"
	rescheduleAppointmentHandler "github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers/reschedule_appointment"
	unblockSlotHandler "github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers/unblock_slot"
	updateAppointmentStatusHandler "github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers/update_appointment_status"
	updateScheduleHandler "github.com/m04kA/Sahatak-SchedulingService/internal/api/handlers/update_schedule"
	"github.com/m04kA/Sahatak-SchedulingService/internal/api/middleware"
	"github.com/m04kA/Sahatak-SchedulingService/internal/config"
	"github.com/m04kA/Sahatak-SchedulingService/internal/domain"
	slotsCache "github.com/m04kA/Sahatak-SchedulingService/internal/infra/cache/slots"
	auditRepo "github.com/m04kA/Sahatak-SchedulingService/internal/infra/storage/audit"
	reservationRepo "github.com/m04kA/Sahatak-SchedulingService/internal/infra/storage/reservation"
	scheduleRepo "github.com/m04kA/Sahatak-SchedulingService/internal/infra/storage/schedule"
	"github.com/m04kA/Sahatak-SchedulingService/internal/integrations/notifier"
	providerServiceClient "github.com/m04kA/Sahatak-SchedulingService/internal/integrations/providerservice"
	"github.com/m04kA/Sahatak-SchedulingService/internal/jobs/noshow"
	accessService "github.com/m04kA/Sahatak-SchedulingService/internal/service/access"
	appointmentsService "github.com/m04kA/Sahatak-SchedulingService/internal/service/appointments"
	scheduleService "github.com/m04kA/Sahatak-SchedulingService/internal/service/schedule"
	blockSlotUC "github.com/m04kA/Sahatak-SchedulingService/internal/usecase/block_slot"
	createAppointmentUC "github.com/m04kA/Sahatak-SchedulingService/internal/usecase/create_appointment"
	getAvailableSlotsUC "github.com/m04kA/Sahatak-SchedulingService/internal/usecase/get_available_slots"
	rescheduleAppointmentUC "github.com/m04kA/Sahatak-SchedulingService/internal/usecase/reschedule_appointment"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/logger"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/metrics"
	"github.com/m04kA/Sahatak-SchedulingService/pkg/txmanager"
)

// noShowRunTimeout ограничение на один прогон отметки неявок
const noShowRunTimeout = time.Minute

// slotCache общий интерфейс Redis кэша и no-op реализации
type slotCache interface {
	Get(ctx context.Context, providerID int64, date string) (*domain.DaySlots, bool, error)
	Stamp(ctx context.Context, providerID int64, date string) (string, error)
	Set(ctx context.Context, providerID int64, date, stamp string, slots *domain.DaySlots) (bool, error)
	InvalidateInstant(ctx context.Context, providerID int64, instant time.Time) error
	InvalidateProvider(ctx context.Context, providerID int64) error
}

// eventNotifier общий интерфейс публикатора событий и no-op реализации
type eventNotifier interface {
	AppointmentCreated(ctx context.Context, r *domain.Reservation)
	AppointmentCancelled(ctx context.Context, r *domain.Reservation)
	AppointmentRescheduled(ctx context.Context, r *domain.Reservation, previous time.Time)
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting Sahatak-SchedulingService...")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Обёртка над БД: метрики запросов и передача транзакции через контекст.
	// При выключенных метриках обёртка только переносит транзакцию.
	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db, nil)
	}
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Кэш слотов в Redis (если включен)
	var cache slotCache = slotsCache.Noop{}
	if cfg.Redis.Enabled {
		redisClient := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Redis.Addr},
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Error("Redis is unavailable at %s, slot cache disabled: %v", cfg.Redis.Addr, err)
		} else {
			cache = slotsCache.NewCache(redisClient, time.Duration(cfg.Redis.SlotsTTL)*time.Second)
			log.Info("Slot cache enabled (redis=%s, ttl=%ds)", cfg.Redis.Addr, cfg.Redis.SlotsTTL)
		}
	}

	// Публикация уведомлений через очередь asynq (если включена)
	var events eventNotifier = notifier.Noop{}
	if cfg.Notifications.Enabled {
		addr := cfg.Notifications.RedisAddr
		if addr == "" {
			addr = cfg.Redis.Addr
		}
		queueClient := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Notifications.RedisDB,
		})
		defer queueClient.Close()

		events = notifier.NewPublisher(
			queueClient,
			cfg.Notifications.Queue,
			cfg.Notifications.MaxRetry,
			time.Duration(cfg.Notifications.EnqueueTimeout)*time.Second,
			log,
		)
		log.Info("Notifications enabled (redis=%s, queue=%s)", addr, cfg.Notifications.Queue)
	}

	// Инициализируем интеграционных клиентов
	providerClient := providerServiceClient.NewClient(
		cfg.ProviderService.URL,
		time.Duration(cfg.ProviderService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (ProviderService=%s timeout=%ds)",
		cfg.ProviderService.URL, cfg.ProviderService.Timeout)

	// Инициализируем репозитории
	reservationRepository := reservationRepo.NewRepository(wrappedDB)
	scheduleRepository := scheduleRepo.NewRepository(wrappedDB)
	auditRepository := auditRepo.NewRepository(wrappedDB)

	// Инициализируем сервисы
	scheduleSvc := scheduleService.NewService(
		scheduleRepository,
		providerClient,
		cache,
		log,
	)
	appointmentsSvc := appointmentsService.NewService(
		reservationRepository,
		auditRepository,
		cache,
		events,
		txMgr,
		appointmentsService.Settings{
			CancellationWindow: cfg.Booking.CancellationWindow(),
			SlotMinutes:        cfg.Booking.SlotMinutes,
		},
		log,
	)
	accessSvc := accessService.NewService(
		reservationRepository,
		auditRepository,
		metricsCollector,
		accessService.Settings{
			Windows: domain.AccessWindows{
				Upcoming: time.Duration(cfg.Access.UpcomingWindowDays) * 24 * time.Hour,
				Active:   time.Duration(cfg.Access.ActiveWindowHours) * time.Hour,
				History:  time.Duration(cfg.Access.HistoryWindowDays) * 24 * time.Hour,
			},
			GrantTTL:      time.Duration(cfg.Access.EmergencyGrantTTL) * time.Second,
			GrantsPerHour: cfg.Access.EmergencyGrantsPerHr,
		},
		log,
	)

	// Инициализируем use cases
	createAppointmentUseCase := createAppointmentUC.NewUseCase(
		reservationRepository,
		auditRepository,
		scheduleRepository,
		providerClient,
		cache,
		events,
		txMgr,
		metricsCollector,
		createAppointmentUC.Settings{
			SlotMinutes: cfg.Booking.SlotMinutes,
			LockTimeout: cfg.Booking.LockTimeout(),
		},
		log,
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		reservationRepository,
		scheduleSvc,
		cache,
		metricsCollector,
		cfg.Booking.SlotMinutes,
		log,
	)
	rescheduleAppointmentUseCase := rescheduleAppointmentUC.NewUseCase(
		reservationRepository,
		auditRepository,
		scheduleSvc,
		cache,
		events,
		txMgr,
		metricsCollector,
		rescheduleAppointmentUC.Settings{
			SlotMinutes:  cfg.Booking.SlotMinutes,
			NoticeWindow: cfg.Booking.CancellationWindow(),
			LockTimeout:  cfg.Booking.LockTimeout(),
		},
		log,
	)
	blockSlotUseCase := blockSlotUC.NewUseCase(
		reservationRepository,
		auditRepository,
		cache,
		txMgr,
		blockSlotUC.Settings{
			SlotMinutes: cfg.Booking.SlotMinutes,
			LockTimeout: cfg.Booking.LockTimeout(),
		},
		log,
	)

	// Инициализируем handlers
	slotMinutes := cfg.Booking.SlotMinutes
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getSchedule := getScheduleHandler.NewHandler(scheduleSvc, log)
	updateSchedule := updateScheduleHandler.NewHandler(scheduleSvc, log)
	createAppointment := createAppointmentHandler.NewHandler(createAppointmentUseCase, slotMinutes, log)
	getAppointment := getAppointmentHandler.NewHandler(appointmentsSvc, slotMinutes, log)
	getAppointmentEvents := getAppointmentEventsHandler.NewHandler(appointmentsSvc, log)
	cancelAppointment := cancelAppointmentHandler.NewHandler(appointmentsSvc, slotMinutes, log)
	rescheduleAppointment := rescheduleAppointmentHandler.NewHandler(rescheduleAppointmentUseCase, slotMinutes, log)
	updateAppointmentStatus := updateAppointmentStatusHandler.NewHandler(appointmentsSvc, slotMinutes, log)
	getPatientAppointments := getPatientAppointmentsHandler.NewHandler(appointmentsSvc, slotMinutes, log)
	getProviderAppointments := getProviderAppointmentsHandler.NewHandler(appointmentsSvc, slotMinutes, log)
	blockSlot := blockSlotHandler.NewHandler(blockSlotUseCase, slotMinutes, log)
	unblockSlot := unblockSlotHandler.NewHandler(appointmentsSvc, log)
	evaluateAccess := evaluateAccessHandler.NewHandler(accessSvc, log)
	authorizeEmergency := authorizeEmergencyHandler.NewHandler(accessSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(log))

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")

		// Metrics endpoint (публичный, без аутентификации)
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Свободные слоты врача на дату
	api.HandleFunc("/providers/{providerId}/slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// Недельный шаблон врача
	api.HandleFunc("/providers/{providerId}/schedule", getSchedule.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID и X-User-Role)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Приёмы ---
	protected.HandleFunc("/appointments", createAppointment.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/appointments/{appointmentId}", getAppointment.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{appointmentId}/events", getAppointmentEvents.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{appointmentId}/cancel", cancelAppointment.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/appointments/{appointmentId}/reschedule", rescheduleAppointment.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/appointments/{appointmentId}/status", updateAppointmentStatus.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/patients/{patientId}/appointments", getPatientAppointments.Handle).Methods(http.MethodGet)

	// --- Кабинет врача ---
	protected.HandleFunc("/providers/{providerId}/appointments", getProviderAppointments.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/providers/{providerId}/schedule", updateSchedule.Handle).Methods(http.MethodPut)
	protected.HandleFunc("/providers/{providerId}/blocks", blockSlot.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/providers/{providerId}/blocks/{blockId}", unblockSlot.Handle).Methods(http.MethodDelete)

	// --- Доступ к медкартам ---
	protected.HandleFunc("/access/evaluate", evaluateAccess.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/access/emergency-grants", authorizeEmergency.Handle).Methods(http.MethodPost)

	// Фоновая отметка неявок
	var noShowJob *noshow.Job
	if cfg.Jobs.NoShowEnabled {
		noShowJob = noshow.NewJob(
			appointmentsSvc,
			time.Duration(cfg.Jobs.NoShowGrace)*time.Minute,
			noShowRunTimeout,
			log,
		)
		if err := noShowJob.Start(cfg.Jobs.NoShowSpec); err != nil {
			log.Fatal("Failed to start no-show job: %v", err)
		}
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if noShowJob != nil {
		noShowJob.Stop(shutdownCtx)
		log.Info("No-show job stopped")
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	log.Info("Server stopped gracefully")
}
