package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/agrohub/pkg/config"
	"github.com/dmitrymomot/agrohub/pkg/email"
	"github.com/dmitrymomot/agrohub/pkg/httpserver"
	"github.com/dmitrymomot/agrohub/pkg/logger"
	"github.com/dmitrymomot/agrohub/pkg/mongo"
	"github.com/dmitrymomot/agrohub/pkg/pg"
	"github.com/dmitrymomot/agrohub/pkg/push"
	"github.com/dmitrymomot/agrohub/pkg/queue"
	"github.com/dmitrymomot/agrohub/pkg/queue/pgstore"
	"github.com/dmitrymomot/agrohub/pkg/queue/redissignal"
	"github.com/dmitrymomot/agrohub/pkg/redis"
	"github.com/dmitrymomot/agrohub/pkg/requestid"
	"github.com/dmitrymomot/agrohub/pkg/sms"
	"github.com/dmitrymomot/agrohub/svc/market"
	"github.com/dmitrymomot/agrohub/svc/notification"
	"github.com/dmitrymomot/agrohub/svc/pipeline"
	"github.com/dmitrymomot/agrohub/svc/prediction"
	"github.com/dmitrymomot/agrohub/svc/weather"
)

const (
	forecastStorePostgres = "postgres"
	forecastStoreMongo    = "mongo"
)

type appConfig struct {
	Env           string `env:"APP_ENV" envDefault:"development"`
	Name          string `env:"APP_NAME" envDefault:"agrohub"`
	LogLevel      string `env:"LOG_LEVEL"`
	ForecastStore string `env:"FORECAST_STORE" envDefault:"postgres"`
	SignalChannel string `env:"QUEUE_SIGNAL_CHANNEL"`

	Queue      queue.Config
	Pipeline   pipeline.Config
	Postgres   pg.Config
	Redis      redis.Config
	Mongo      mongo.Config
	Email      email.Config
	SMS        sms.Config
	Push       push.Config
	Weather    weather.Config
	Prediction prediction.Config
	HTTP       httpserver.Config
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Name),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("agrohub stopped with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("agrohub stopped")
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.Postgres, log); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	readiness := []func(context.Context) error{pg.Healthcheck(pool), redis.Healthcheck(rdb)}

	var forecasts weather.ForecastStore
	switch cfg.ForecastStore {
	case forecastStoreMongo:
		client, db, err := mongo.NewWithDatabase(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.WithoutCancel(ctx)) }()

		store := weather.NewMongoStore(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			return err
		}
		forecasts = store
		readiness = append(readiness, mongo.Healthcheck(client))
	case forecastStorePostgres:
		forecasts = weather.NewPGStore(pool)
	default:
		return fmt.Errorf("unknown FORECAST_STORE %q", cfg.ForecastStore)
	}

	mailer, err := email.NewFromConfig(cfg.Email)
	if err != nil {
		return err
	}
	texter, err := sms.NewFromConfig(ctx, cfg.SMS, log)
	if err != nil {
		return err
	}
	pusher := push.NewRedisSender(rdb, cfg.Push, log)

	weatherClient, err := weather.NewClient(cfg.Weather)
	if err != nil {
		return err
	}
	predictor, err := prediction.NewClient(cfg.Prediction,
		prediction.WithLogger(log.With(logger.Component("prediction"))))
	if err != nil {
		return err
	}

	resolver := notification.NewPGResolver(pool)
	notifications, err := notification.NewService(notification.NewPGStore(pool), resolver,
		notification.WithDispatchers(
			notification.NewEmailDispatcher(mailer),
			notification.NewPushDispatcher(pusher),
			notification.NewSMSDispatcher(texter),
		),
		notification.WithLogger(log.With(logger.Component("notification"))),
	)
	if err != nil {
		return err
	}

	jobs := pgstore.New(pool)
	worker, err := queue.NewWorker(jobs, append(cfg.Queue.WorkerOptions(),
		queue.WithWorkerLogger(log.With(logger.Component("worker"))))...)
	if err != nil {
		return err
	}

	// Local enqueues wake this worker directly; redis reaches the others.
	wake, err := redissignal.NewPublisher(rdb, cfg.SignalChannel)
	if err != nil {
		return err
	}
	subscriber, err := redissignal.NewSubscriber(rdb, cfg.SignalChannel, worker, log)
	if err != nil {
		return err
	}
	enqueuer, err := queue.NewEnqueuer(jobs,
		queue.WithDefaultMaxAttempts(cfg.Queue.MaxAttempts),
		queue.WithSignal(worker),
		queue.WithSignal(wake),
		queue.WithEnqueuerLogger(log),
	)
	if err != nil {
		return err
	}

	bus := market.NewBus(market.WithLogger(log.With(logger.Component("bus"))))

	p, err := pipeline.New(pipeline.Deps{
		Jobs:       enqueuer,
		Notifier:   notifications,
		Recipients: resolver,
		Mailer:     mailer,
		Catalog:    prediction.NewPGCatalog(pool),
		Predictor:  predictor,
		Weather:    weatherClient,
		Forecasts:  forecasts,
	}, append(cfg.Pipeline.Options(), pipeline.WithLogger(log.With(logger.Component("pipeline"))))...)
	if err != nil {
		return err
	}
	if err := worker.RegisterHandlers(p.Handlers()...); err != nil {
		return err
	}
	p.Subscribe(bus)

	scheduler := queue.NewScheduler(queue.WithSchedulerLogger(log.With(logger.Component("scheduler"))))
	if err := p.Schedule(scheduler, cfg.Pipeline); err != nil {
		return err
	}

	server, err := httpserver.New(cfg.HTTP, httpserver.WithLogger(log.With(logger.Component("http"))))
	if err != nil {
		return err
	}

	log.Info("agrohub starting",
		slog.String("forecast_store", cfg.ForecastStore),
		slog.String("http_addr", cfg.HTTP.Addr))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(worker.Run(ctx))
	g.Go(scheduler.Run(ctx))
	g.Go(subscriber.Run(ctx))
	g.Go(server.Start(ctx, p.Router(jobs, readiness...)))
	return g.Wait()
}
