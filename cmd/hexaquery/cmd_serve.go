package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/davicafu/hexaquery/internal/config"
	"github.com/davicafu/hexaquery/internal/repository/application"
	"github.com/davicafu/hexaquery/internal/repository/domain"
	inEvents "github.com/davicafu/hexaquery/internal/repository/infra/inbound/events"
	httpInbound "github.com/davicafu/hexaquery/internal/repository/infra/inbound/http"
	"github.com/davicafu/hexaquery/internal/repository/infra/outbound/cache"
	"github.com/davicafu/hexaquery/internal/repository/infra/outbound/db/mongodb"
	"github.com/davicafu/hexaquery/internal/repository/infra/outbound/db/sqlstore"
	outEvents "github.com/davicafu/hexaquery/internal/repository/infra/outbound/events"
	"github.com/davicafu/hexaquery/internal/repository/infra/outbound/memory"
	"github.com/davicafu/hexaquery/internal/repository/infra/outbound/rest"
	sharedCache "github.com/davicafu/hexaquery/internal/shared/infra/platform/cache"
	"github.com/davicafu/hexaquery/internal/shared/infra/relayer"
	"github.com/davicafu/hexaquery/pkg/logger"
	sharedBus "github.com/davicafu/hexaquery/shared/platform/bus"
	"github.com/davicafu/hexaquery/shared/platform/querystring"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Arranca el servidor HTTP sobre el backend configurado",
	RunE:  runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.String("http-port", "8080", "puerto HTTP")
	flags.Bool("kafka", false, "publicar e invalidar la caché a través de Kafka")
	flags.Bool("outbox", false, "guardar los cambios en el outbox y publicarlos con el relayer")

	_ = v.BindPFlag("http_port", flags.Lookup("http-port"))
	_ = v.BindPFlag("use_kafka", flags.Lookup("kafka"))
	_ = v.BindPFlag("use_outbox", flags.Lookup("outbox"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return err
	}
	log := logger.Logger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, log)
}

// deps agrupa lo que no depende del backend.
type deps struct {
	cfg       *config.Config
	log       *zap.Logger
	names     querystring.NameMapper
	cache     sharedCache.Cache
	publisher sharedBus.EventPublisher
	// consume bloquea entregando los cambios a handler hasta que ctx termine.
	consume func(ctx context.Context, handler inEvents.MessageHandler) error
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	d := deps{cfg: cfg, log: log, names: nameMapper(cfg.Names)}

	// ---------------- Cache ----------------
	if rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
		log.Warn("Redis no disponible, cache en memoria", zap.Error(err))
		mem := cache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
		defer mem.Stop()
		d.cache = mem
	} else {
		defer rdb.Close()
		d.cache = cache.NewRedisCache(rdb, cfg.CacheTTL)
		log.Info("Redis conectado, cache habilitada", zap.String("addr", cfg.RedisAddr))
	}

	// ---------------- Events ---------------
	if cfg.UseKafka {
		log.Info("Usando Kafka como bus de cambios", zap.Strings("brokers", cfg.KafkaBrokers))
		writer := outEvents.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer writer.Close()
		d.publisher = outEvents.NewKafkaPublisher(writer, log)
		d.consume = func(ctx context.Context, handler inEvents.MessageHandler) error {
			reader := inEvents.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID)
			defer reader.Close()
			return inEvents.NewConsumerAdapter(reader, handler, log).Run(ctx)
		}
	} else {
		log.Info("Usando bus de cambios en memoria")
		bus := outEvents.NewInMemoryEventBus(cfg.KafkaTopic)
		defer bus.Close()
		changes := bus.Subscribe(64)
		d.publisher = bus
		d.consume = func(ctx context.Context, handler inEvents.MessageHandler) error {
			inEvents.BackgroundConsumerChan(ctx, changes, handler, log)
			<-ctx.Done()
			return nil
		}
	}

	// ---------------- Backend --------------
	switch cfg.Backend {
	case config.BackendMemory:
		db := memory.NewDatabase(nil)
		if cfg.SnapshotPath != "" {
			loaded, err := memory.LoadDatabase(cfg.SnapshotPath)
			if err != nil {
				return fmt.Errorf("failed to load snapshot: %w", err)
			}
			db = loaded
			defer func() {
				if err := db.SaveSnapshot(context.Background(), cfg.SnapshotPath); err != nil {
					log.Error("Failed to save snapshot", zap.Error(err))
				}
			}()
		}
		return run[*memory.Connection](ctx, d, db, func(resource string) (domain.Repository[*memory.Connection], error) {
			return memory.NewRepository(resource)
		})

	case config.BackendSQLite, config.BackendPostgres:
		dialect, open, dsn := sqlstore.SQLite, sqlstore.OpenSQLite, cfg.SQLitePath
		if cfg.Backend == config.BackendPostgres {
			dialect, open, dsn = sqlstore.Postgres, sqlstore.OpenPostgres, cfg.PostgresDSN
		}
		db, err := open(dsn)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", dialect.Name(), err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("failed to ping %s: %w", dialect.Name(), err)
		}
		if cfg.UseOutbox {
			if err := sqlstore.InitOutbox(ctx, db, dialect); err != nil {
				return fmt.Errorf("failed to initialize outbox: %w", err)
			}
		}
		return run[sqlstore.Conn](ctx, d, sqlstore.NewBackend(db), func(resource string) (domain.Repository[sqlstore.Conn], error) {
			return sqlstore.NewRepository(resource, dialect)
		})

	case config.BackendMongoDB:
		backend, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		defer backend.Disconnect(context.Background())
		return run[*mongodb.Conn](ctx, d, backend, func(resource string) (domain.Repository[*mongodb.Conn], error) {
			return mongodb.NewRepository(resource)
		})

	case config.BackendREST:
		client := rest.NewClient(cfg.RESTURL, log,
			rest.WithNames(d.names),
			rest.WithDefaultPageSize(cfg.RESTPage),
			rest.WithRetries(3, 200*time.Millisecond),
		)
		return run[*rest.Conn](ctx, d, client, func(resource string) (domain.Repository[*rest.Conn], error) {
			return rest.NewRepository(client, resource)
		})
	}
	return fmt.Errorf("unknown backend %q", cfg.Backend)
}

// run monta los repositorios decorados, el relayer, el consumidor de
// invalidaciones y el servidor HTTP, y espera a que todos terminen.
func run[C any](ctx context.Context, d deps, backend domain.Backend[C], newRepo func(resource string) (domain.Repository[C], error)) error {
	var outbox domain.Repository[C]
	if d.cfg.UseOutbox {
		r, err := newRepo(domain.OutboxResource)
		if err != nil {
			return err
		}
		outbox = r
	}

	repos := make(map[string]domain.Repository[C], len(d.cfg.Resources))
	for _, resource := range d.cfg.Resources {
		raw, err := newRepo(resource)
		if err != nil {
			return fmt.Errorf("resource %q: %w", resource, err)
		}
		var repo domain.Repository[C]
		if outbox != nil {
			repo = application.WithOutbox(raw, outbox, resource)
		} else {
			repo = application.WithChangeFeed(raw, d.publisher, resource, d.log)
		}
		repos[resource] = application.Cached(repo, d.cache, resource, d.cfg.CacheTTL, d.log)
	}

	service := application.NewRecordService(backend, repos, d.log)
	handler := httpInbound.NewRecordHandler(service, d.names, d.log)

	if d.log.Core().Enabled(zap.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	httpInbound.RegisterHealth(router)
	httpInbound.RegisterRecordRoutes(router, handler, httpInbound.Authenticate(d.cfg.AuthTokens...))

	srv := &http.Server{
		Addr:              ":" + d.cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.consume(ctx, inEvents.NewChangeConsumer(d.cache, d.log))
	})

	if outbox != nil {
		store := application.NewOutboxStore(backend, outbox)
		worker := relayer.NewOutboxWorker(store, d.publisher, d.cfg.OutboxPeriod, d.cfg.OutboxLimit, d.log)
		g.Go(func() error {
			worker.Start(ctx)
			return nil
		})
	}

	g.Go(func() error {
		d.log.Info("Server running",
			zap.String("url", "http://localhost:"+d.cfg.HTTPPort+httpInbound.BasePath),
			zap.String("backend", d.cfg.Backend),
			zap.Strings("resources", d.cfg.Resources),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		d.log.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func nameMapper(convention string) querystring.NameMapper {
	if convention == "identity" {
		return querystring.IdentityNames
	}
	return querystring.SnakeNames
}
