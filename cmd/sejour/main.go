package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sejour/internal/app/commands"
	calendarapp "sejour/internal/app/handlers/calendar"
	propertyapp "sejour/internal/app/handlers/property"
	reservationapp "sejour/internal/app/handlers/reservation"
	"sejour/internal/app/middleware"
	appoutbox "sejour/internal/app/outbox"
	"sejour/internal/app/policies"
	"sejour/internal/app/queries"
	authsvc "sejour/internal/app/services/auth"
	"sejour/internal/app/uow"
	"sejour/internal/infra/broker/kafka"
	"sejour/internal/infra/config"
	mongodb "sejour/internal/infra/db/mongo"
	ginserver "sejour/internal/infra/http/gin"
	"sejour/internal/infra/obs"
	outboxinfra "sejour/internal/infra/outbox"
	"sejour/internal/infra/payments"
	"sejour/internal/infra/security"
	"sejour/internal/infra/storage/memory"
	"sejour/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Checks: app.readyChecks,
	}, app.handlers)

	for _, runner := range app.runners {
		go runner(ctx)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers    ginserver.Handlers
	readyChecks map[string]obs.ReadyCheck
	runners     []func(context.Context)
	closers     []func(context.Context) error
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, closer := range a.closers {
		if err := closer(ctx); err != nil {
			logger.Warn("shutdown cleanup failed", "error", err)
		}
	}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{readyChecks: map[string]obs.ReadyCheck{}}

	propertyRepo := memory.NewPropertyRepository()
	paymentRepo := memory.NewPaymentRepository()

	var uowFactory uow.UoWFactory
	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, client.Close)
		app.readyChecks["mongo"] = client.Ping

		periodRepo := mongodb.NewPeriodRepository(client.DB)
		if err := periodRepo.EnsureIndexes(ctx); err != nil {
			logger.Warn("calendar index setup failed", "error", err)
		}
		uowFactory = mongodb.Factory{
			DB:              client.DB,
			PropertyRepo:    propertyRepo,
			ReservationRepo: mongodb.NewReservationRepository(client.DB),
			PeriodRepo:      periodRepo,
			PaymentRepo:     paymentRepo,
		}
	default:
		uowFactory = memory.Factory{
			PropertyRepo:    propertyRepo,
			ReservationRepo: memory.NewReservationRepository(),
			PeriodRepo:      memory.NewPeriodRepository(),
			PaymentRepo:     paymentRepo,
		}
	}

	box, workerRunner, err := buildOutbox(cfg, logger)
	if err != nil {
		return nil, err
	}
	if workerRunner != nil {
		app.runners = append(app.runners, workerRunner)
	}
	encoder := appoutbox.JSONEventEncoder{}
	gateway := payments.NewMockGateway(logger)

	userRepo := memory.NewUserRepository()
	authService := &authsvc.Service{
		Users:      userRepo,
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	commandBus := commands.NewInMemoryBus()
	registerReservationCommands(commandBus, uowFactory, gateway, box, encoder, logger)
	registerCalendarCommands(commandBus, box, encoder, logger)
	registerPropertyCommands(commandBus, userRepo, buildUploader(cfg, logger), box, encoder, logger)

	queryBus := queries.NewInMemoryBus()
	registerQueries(queryBus, uowFactory, logger)

	dispatcher := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(memory.NewIdempotencyStore(), nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(box),
	)
	asker := middleware.ChainQueries(queryBus)

	app.runners = append(app.runners, stayClock(dispatcher, cfg.StayTickInterval, logger))

	if listener := buildPaymentListener(cfg, dispatcher, logger); listener != nil {
		app.runners = append(app.runners, listener)
	}

	app.handlers = ginserver.Handlers{
		Reservation: ginserver.ReservationHandler{Commands: dispatcher, Queries: asker, Logger: logger},
		Calendar:    ginserver.CalendarHandler{Commands: dispatcher, Queries: asker, Logger: logger},
		Property:    ginserver.PropertyHandler{Commands: dispatcher, Queries: asker, Logger: logger},
		Auth:        ginserver.AuthHandler{Service: authService, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{
			Service: authService,
			Logger:  logger,
		}.Handle,
	}
	return app, nil
}

func registerReservationCommands(bus *commands.InMemoryBus, factory uow.UoWFactory, gateway policies.PaymentsPort, box appoutbox.Outbox, encoder appoutbox.EventEncoder, logger *slog.Logger) {
	commands.RegisterHandler(bus, reservationapp.CreateReservationCommand{}.Key(), &reservationapp.CreateReservationHandler{
		UoWFactory: factory,
		Payments:   gateway,
		Outbox:     box,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(bus, reservationapp.AcceptReservationCommand{}.Key(), &reservationapp.AcceptReservationHandler{
		Outbox: box, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(bus, reservationapp.RejectReservationCommand{}.Key(), &reservationapp.RejectReservationHandler{
		Outbox: box, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(bus, reservationapp.CancelReservationCommand{}.Key(), &reservationapp.CancelReservationHandler{
		Payments: gateway, Outbox: box, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(bus, reservationapp.ConfirmPaymentCommand{}.Key(), &reservationapp.ConfirmPaymentHandler{
		Payments: gateway, Outbox: box, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(bus, reservationapp.NegotiatePriceCommand{}.Key(), &reservationapp.NegotiatePriceHandler{
		Outbox: box, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(bus, reservationapp.ProgressStaysCommand{}.Key(), &reservationapp.ProgressStaysHandler{
		Outbox: box, Encoder: encoder, Logger: logger,
	})
}

func registerCalendarCommands(bus *commands.InMemoryBus, box appoutbox.Outbox, encoder appoutbox.EventEncoder, logger *slog.Logger) {
	commands.RegisterHandler(bus, calendarapp.CreatePeriodCommand{}.Key(), &calendarapp.CreatePeriodHandler{
		Outbox: box, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(bus, calendarapp.UpdatePeriodCommand{}.Key(), &calendarapp.UpdatePeriodHandler{Logger: logger})
	commands.RegisterHandler(bus, calendarapp.DeletePeriodCommand{}.Key(), &calendarapp.DeletePeriodHandler{Logger: logger})
	commands.RegisterHandler(bus, calendarapp.BulkCreatePeriodsCommand{}.Key(), &calendarapp.BulkCreatePeriodsHandler{
		Outbox: box, Encoder: encoder, Logger: logger,
	})
}

func registerPropertyCommands(bus *commands.InMemoryBus, users *memory.UserRepository, uploader policies.Uploader, box appoutbox.Outbox, encoder appoutbox.EventEncoder, logger *slog.Logger) {
	commands.RegisterHandler(bus, propertyapp.CreatePropertyCommand{}.Key(), &propertyapp.CreatePropertyHandler{
		Users: users, Outbox: box, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(bus, propertyapp.UpdatePropertyCommand{}.Key(), &propertyapp.UpdatePropertyHandler{Logger: logger})
	commands.RegisterHandler(bus, propertyapp.PublishPropertyCommand{}.Key(), &propertyapp.PublishPropertyHandler{
		Outbox: box, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(bus, propertyapp.SuspendPropertyCommand{}.Key(), &propertyapp.SuspendPropertyHandler{
		Outbox: box, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(bus, propertyapp.ArchivePropertyCommand{}.Key(), &propertyapp.ArchivePropertyHandler{
		Outbox: box, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(bus, propertyapp.AttachPhotoCommand{}.Key(), &propertyapp.AttachPhotoHandler{
		Uploader: uploader, Logger: logger,
	})
}

func registerQueries(bus *queries.InMemoryBus, factory uow.UoWFactory, logger *slog.Logger) {
	queries.RegisterHandler(bus, reservationapp.GetReservationQuery{}.Key(), &reservationapp.GetReservationHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, reservationapp.ListTenantReservationsQuery{}.Key(), &reservationapp.ListTenantReservationsHandler{UoWFactory: factory, Logger: logger})
	queries.RegisterHandler(bus, reservationapp.ListPropertyReservationsQuery{}.Key(), &reservationapp.ListPropertyReservationsHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, reservationapp.ListOwnerReservationsQuery{}.Key(), &reservationapp.ListOwnerReservationsHandler{UoWFactory: factory, Logger: logger})
	queries.RegisterHandler(bus, reservationapp.CheckAvailabilityQuery{}.Key(), &reservationapp.CheckAvailabilityHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, reservationapp.QuoteQuery{}.Key(), &reservationapp.QuoteHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, reservationapp.OwnerStatisticsQuery{}.Key(), &reservationapp.OwnerStatisticsHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, calendarapp.ListPeriodsQuery{}.Key(), &calendarapp.ListPeriodsHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, calendarapp.OpenDatesQuery{}.Key(), &calendarapp.OpenDatesHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, propertyapp.GetPropertyQuery{}.Key(), &propertyapp.GetPropertyHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, propertyapp.ListOwnerPropertiesQuery{}.Key(), &propertyapp.ListOwnerPropertiesHandler{UoWFactory: factory})
}

// buildOutbox picks the event transport: a durable store drained by a Kafka
// worker when brokers are configured, an in-memory buffer otherwise.
func buildOutbox(cfg config.Config, logger *slog.Logger) (appoutbox.Outbox, func(context.Context), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return memory.NewOutbox(), nil, nil
	}
	store := outboxinfra.NewStore()
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		return nil, nil, err
	}
	worker := &outboxinfra.Worker{
		Store:       store,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
	}
	runner := func(ctx context.Context) {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
		if err := producer.Close(); err != nil {
			logger.Warn("kafka producer close failed", "error", err)
		}
	}
	return store, runner, nil
}

// buildPaymentListener subscribes to provider settlement events when a topic
// is configured; settled charges confirm their reservation.
func buildPaymentListener(cfg config.Config, bus commands.Bus, logger *slog.Logger) func(context.Context) {
	if len(cfg.KafkaBrokers) == 0 || cfg.PaymentEventsTopic == "" {
		return nil
	}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, &kafka.PaymentEventsHandler{
		Commands: bus,
		Logger:   logger,
	})
	if err != nil {
		logger.Warn("payment event listener unavailable", "error", err)
		return nil
	}
	return func(ctx context.Context) {
		if err := consumer.Run(ctx, []string{cfg.PaymentEventsTopic}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("payment event listener stopped", "error", err)
		}
		if err := consumer.Close(); err != nil {
			logger.Warn("payment event listener close failed", "error", err)
		}
	}
}

func buildUploader(cfg config.Config, logger *slog.Logger) policies.Uploader {
	client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
	if err != nil {
		logger.Warn("photo storage unavailable", "error", err)
		return s3.NoopUploader{}
	}
	return client
}

// stayClock periodically advances confirmed reservations into stays and
// completes stays whose check-out passed.
func stayClock(bus commands.Bus, interval time.Duration, logger *slog.Logger) func(context.Context) {
	if interval <= 0 {
		interval = time.Hour
	}
	return func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cmd := reservationapp.ProgressStaysCommand{Now: time.Now()}
				if _, err := commands.Dispatch[reservationapp.ProgressStaysCommand, *reservationapp.ProgressStaysResult](ctx, bus, cmd); err != nil {
					logger.Warn("stay progression failed", "error", err)
				}
			}
		}
	}
}
