package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	config "github.com/DRSN-tech/fontus/internal/cfg"
	v1Grpc "github.com/DRSN-tech/fontus/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/fontus/internal/delivery/v1/http"
	"github.com/DRSN-tech/fontus/internal/delivery/web"
	"github.com/DRSN-tech/fontus/internal/infrastructure/kafka"
	boltRepo "github.com/DRSN-tech/fontus/internal/repository/bolt"
	"github.com/DRSN-tech/fontus/internal/repository/converter"
	"github.com/DRSN-tech/fontus/internal/repository/pgdb"
	"github.com/DRSN-tech/fontus/internal/repository/redis"
	"github.com/DRSN-tech/fontus/internal/repository/sqlite"
	"github.com/DRSN-tech/fontus/internal/usecase"
	"github.com/DRSN-tech/fontus/pkg/clients"
	"github.com/DRSN-tech/fontus/pkg/closer"
	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/DRSN-tech/fontus/pkg/logger"
	"github.com/DRSN-tech/fontus/pkg/postgres"
	"github.com/DRSN-tech/fontus/pkg/tr"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

// App собирает зависимости сервиса и управляет его жизненным циклом.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	httpSrv *v1Http.Server
	grpcSrv *v1Grpc.GRPCServer
	worker  *kafka.OutboxWorker
}

// storage — выбранное хранилище продуктов вместе с менеджером транзакций.
type storage struct {
	products  usecase.ProductRepository
	trManager tr.Manager
	outbox    usecase.OutboxRepository
	dsn       string
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: log,
		closer: closer.NewCloser(0),
	}

	if err := a.init(context.Background()); err != nil {
		if cerr := a.closer.Close(context.Background()); cerr != nil {
			log.Warnf("cleanup after failed init: %v", cerr)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a, nil
}

func (a *App) init(ctx context.Context) error {
	st, err := a.initStorage(ctx)
	if err != nil {
		return err
	}

	cacheRepo, err := a.initCache(ctx)
	if err != nil {
		return err
	}

	var (
		outboxRepo usecase.OutboxRepository
		encoder    usecase.EventEncoder
	)
	if a.cfg.Kafka.Enabled() && st.outbox != nil {
		outboxRepo = st.outbox
		encoder = kafka.ProtoEncoder{}

		producer := kafka.NewProducer(a.logger, a.cfg.Kafka)
		if err := producer.EnsureTopic(a.cfg.App.ShutdownTimeout); err != nil {
			a.logger.Warnf("kafka topic check failed: %v", err)
		}
		a.closer.AddNamed("kafka producer", producer.Close)

		a.worker = kafka.NewOutboxWorker(outboxRepo, a.logger, producer, a.cfg.Outbox, pgdb.NotifyChannel, st.dsn)
	}

	productUC := usecase.NewProductUC(st.products, st.trManager, cacheRepo, outboxRepo, encoder, a.logger)

	page, err := web.NewPageHandler(productUC, a.logger)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	r := chi.NewRouter()
	v1Http.NewRouter(r, a.logger, a.cfg.Http).Init(productUC, page)

	a.httpSrv = v1Http.NewServer(r, a.cfg.Http)
	a.grpcSrv = v1Grpc.NewGRPCServer(a.cfg.Grpc, a.logger)

	return nil
}

func (a *App) initStorage(ctx context.Context) (*storage, error) {
	switch a.cfg.App.StorageDriver {
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, a.cfg.Db)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		a.closer.AddNamed("postgres", func(context.Context) error {
			db.Close()
			return nil
		})

		if err := db.RunMigrations(a.logger); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		trManager, err := tr.NewPgxManager(db.Pool)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		a.logger.Infof("storage: postgres %s:%s/%s", a.cfg.Db.Host, a.cfg.Db.Port, a.cfg.Db.DBName)
		return &storage{
			products:  pgdb.NewProductRepo(db.Pool, converter.ProductConverter{}),
			trManager: trManager,
			outbox:    pgdb.NewOutboxEventRepo(db.Pool, converter.OutboxEventConverter{}),
			dsn:       db.Dsn,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, a.cfg.SQLite.DSN)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		a.closer.AddNamed("sqlite", func(context.Context) error { return db.Close() })

		trManager, err := tr.NewSqlxManager(db)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		a.logger.Infof("storage: sqlite %s", a.cfg.SQLite.DSN)
		return &storage{
			products:  sqlite.NewProductRepo(db, converter.ProductConverter{}),
			trManager: trManager,
		}, nil

	case config.DriverBolt:
		db, err := boltRepo.Open(a.cfg.Bolt.Path, a.cfg.Bolt.OpenTimeout)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		a.closer.AddNamed("bolt", func(context.Context) error { return db.Close() })

		a.logger.Infof("storage: bolt %s", a.cfg.Bolt.Path)
		return &storage{
			products:  boltRepo.NewProductRepo(db, converter.ProductConverter{}),
			trManager: tr.Nop{},
		}, nil

	default:
		return nil, e.Wrap(a.cfg.App.StorageDriver, e.ErrUnknownStorageDriver)
	}
}

func (a *App) initCache(ctx context.Context) (usecase.CacheRepository, error) {
	if !a.cfg.Redis.Enabled() {
		a.logger.Infof("redis is not configured, product cache disabled")
		return redis.NopCacheRepo{}, nil
	}

	client := clients.NewRedisClient(a.cfg.Redis)
	if err := client.Ping(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.AddNamed("redis", client.Close)

	return redis.NewCacheRepo(client, a.cfg.Redis, a.logger), nil
}

// Run запускает серверы и блокируется до сигнала остановки или падения сервера.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.worker != nil {
		a.worker.Start(ctx)
		a.closer.AddNamed("outbox worker", a.worker.Stop)
	}

	errCh := make(chan error, 2)

	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			errCh <- e.Wrap("grpc", err)
		}
	}()
	a.closer.AddNamed("grpc server", a.grpcSrv.Stop)

	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- e.Wrap("http", err)
		}
	}()
	a.closer.AddNamed("http server", a.httpSrv.Stop)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "server failed")
	case sig := <-shutdown:
		a.logger.Infof("received %s, stopping gracefully", sig)
	}

	a.grpcSrv.SetServing(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Errorf(err, "shutdown")
		if appErr == nil {
			appErr = err
		}
	}

	a.logger.Infof("application shutdown complete")
	return appErr
}
