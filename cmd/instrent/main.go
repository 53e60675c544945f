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

	"instrent/internal/app/commands"
	availabilityapp "instrent/internal/app/handlers/availability"
	itemsapp "instrent/internal/app/handlers/items"
	rentalapp "instrent/internal/app/handlers/rental"
	"instrent/internal/app/middleware"
	appoutbox "instrent/internal/app/outbox"
	"instrent/internal/app/queries"
	"instrent/internal/app/uow"
	kafkabroker "instrent/internal/infra/broker/kafka"
	"instrent/internal/infra/config"
	mongodb "instrent/internal/infra/db/mongo"
	ginserver "instrent/internal/infra/http/gin"
	"instrent/internal/infra/obs"
	infraoutbox "instrent/internal/infra/outbox"
	"instrent/internal/infra/storage/memory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	logger := obs.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	var (
		factory    uow.UoWFactory
		eventStore appoutbox.Outbox
		idemStore  middleware.IdempotencyStore
		ready      func() error
		worker     *infraoutbox.Worker
		closers    []func() error
	)

	switch cfg.StorageMode {
	case config.StorageMongo:
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = client.Ping(pingCtx)
		cancel()
		if err != nil {
			return err
		}
		factory = mongodb.Factory{
			DB:           client.DB,
			ItemsRepo:    mongodb.NewItemRepository(client.DB),
			CalendarRepo: mongodb.NewCalendarRepository(client.DB),
			RequestsRepo: mongodb.NewRequestRepository(client.DB),
			RatingsRepo:  mongodb.NewRatingRepository(client.DB),
		}
		store := infraoutbox.NewStore(client.DB)
		eventStore = store
		idemStore = mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafkabroker.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return err
			}
			closers = append(closers, producer.Close)
			worker = &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
		} else {
			logger.Warn("no kafka brokers configured, outbox events will not be relayed")
		}
	case config.StorageMemory:
		memFactory := memory.NewFactory()
		factory = memFactory
		eventStore = memory.NewOutbox()
		idemStore = memory.NewIdempotencyStore()
	default:
		return errors.New("unknown storage mode " + cfg.StorageMode)
	}

	commandBus := buildCommandBus(factory, eventStore, idemStore, logger)
	queryBus := buildQueryBus(factory)

	handlers := ginserver.Handlers{
		Items:        ginserver.ItemHandler{Commands: commandBus, Queries: queryBus},
		Availability: ginserver.AvailabilityHandler{Commands: commandBus, Queries: queryBus},
		Requests:     ginserver.RequestHandler{Commands: commandBus, Queries: queryBus},
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Ready: ready}, handlers)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	if worker != nil {
		go func() {
			logger.Info("outbox worker started", "interval", worker.Interval)
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("close failed", "error", err)
		}
	}
	return nil
}

func buildCommandBus(factory uow.UoWFactory, eventStore appoutbox.Outbox, idemStore middleware.IdempotencyStore, logger *slog.Logger) commands.Bus {
	bus := commands.NewInMemoryBus()

	commands.RegisterHandler(bus, itemsapp.CreateItemCommand{}.Key(),
		&itemsapp.CreateItemHandler{UoWFactory: factory, Outbox: eventStore})
	commands.RegisterHandler(bus, availabilityapp.BlockRangeCommand{}.Key(),
		&availabilityapp.BlockRangeHandler{UoWFactory: factory, Outbox: eventStore})
	commands.RegisterHandler(bus, availabilityapp.ReleaseRangeCommand{}.Key(),
		&availabilityapp.ReleaseRangeHandler{UoWFactory: factory, Outbox: eventStore})
	commands.RegisterHandler(bus, rentalapp.SubmitRequestCommand{}.Key(),
		&rentalapp.SubmitRequestHandler{UoWFactory: factory, Outbox: eventStore})
	commands.RegisterHandler(bus, rentalapp.DecideRequestCommand{}.Key(),
		&rentalapp.DecideRequestHandler{UoWFactory: factory, Outbox: eventStore})
	commands.RegisterHandler(bus, rentalapp.CancelRequestCommand{}.Key(),
		&rentalapp.CancelRequestHandler{UoWFactory: factory, Outbox: eventStore})
	commands.RegisterHandler(bus, rentalapp.RecordCompletionCommand{}.Key(),
		&rentalapp.RecordCompletionHandler{UoWFactory: factory, Outbox: eventStore, Logger: logger})

	return middleware.ChainCommands(bus,
		middleware.Idempotency(idemStore, nil),
		middleware.Transaction(factory, nil),
	)
}

func buildQueryBus(factory uow.UoWFactory) queries.Bus {
	bus := queries.NewInMemoryBus()

	queries.RegisterHandler(bus, itemsapp.GetItemQuery{}.Key(),
		&itemsapp.GetItemHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, availabilityapp.GetCalendarQuery{}.Key(),
		&availabilityapp.GetCalendarHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, rentalapp.GetRequestQuery{}.Key(),
		&rentalapp.GetRequestHandler{UoWFactory: factory})
	queries.RegisterHandler(bus, rentalapp.ListRequestsQuery{}.Key(),
		&rentalapp.ListRequestsHandler{UoWFactory: factory})

	return bus
}
