package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
	"legacy-keeper-go/internal/config"
	"legacy-keeper-go/internal/db"
	"legacy-keeper-go/internal/domain/approval"
	"legacy-keeper-go/internal/domain/attachment"
	"legacy-keeper-go/internal/domain/invitation"
	nomineedomain "legacy-keeper-go/internal/domain/nominee"
	roledomain "legacy-keeper-go/internal/domain/role"
	trusteedomain "legacy-keeper-go/internal/domain/trustee"
	userdomain "legacy-keeper-go/internal/domain/user"
	"legacy-keeper-go/internal/queue"
	"legacy-keeper-go/internal/repository/inmemory"
	nomineerepo "legacy-keeper-go/internal/repository/postgres/nominee"
	rolerepo "legacy-keeper-go/internal/repository/postgres/role"
	trusteerepo "legacy-keeper-go/internal/repository/postgres/trustee"
	userrepo "legacy-keeper-go/internal/repository/postgres/user"
	redisrepo "legacy-keeper-go/internal/repository/redis"
	"legacy-keeper-go/internal/storage"
	"legacy-keeper-go/internal/transport/httpserver"
	"legacy-keeper-go/internal/transport/httpserver/handler"
	"legacy-keeper-go/internal/transport/httpserver/handler/approvals"
	"legacy-keeper-go/internal/transport/httpserver/handler/common"
	"legacy-keeper-go/internal/transport/httpserver/handler/nominees"
	"legacy-keeper-go/internal/transport/httpserver/handler/trustees"
	"legacy-keeper-go/pkg/logger"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
	closers    []func() error
}

type repositories struct {
	users    userdomain.Repository
	roles    roledomain.Repository
	trustees trusteedomain.Repository
	nominees nomineedomain.Repository
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg, log)
}

// NewWithConfig wires every component from an already loaded config.
func NewWithConfig(cfg config.Config, log logger.Logger) (*App, error) {
	a := &App{cfg: cfg}

	repos, err := a.initRepositories(log)
	if err != nil {
		return nil, err
	}

	cache, err := a.initRoleCache(log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	log.Info("app: initializing services")
	users := userdomain.NewService(repos.users)

	roleOpts := []roledomain.Option{}
	if cache != nil {
		roleOpts = append(roleOpts, roledomain.WithCache(cache, cfg.RoleCache.TTL))
	}
	roles := roledomain.NewService(
		repos.roles,
		users,
		nomineedomain.NewAccessLookup(repos.nominees),
		trusteedomain.NewLookup(repos.trustees),
		log,
		roleOpts...,
	)

	files := attachment.NewService(a.initBlobStore(log), attachment.BucketOptions{
		Public:    cfg.Storage.PublicBuckets,
		SizeLimit: cfg.Storage.MaxFileBytes,
	}, log)
	issuer := invitation.NewIssuer(cfg.Invitation.TTL)
	events := a.initPublisher(log)

	trusteeSvc := trusteedomain.NewService(trusteedomain.Deps{
		Repo:        repos.trustees,
		Users:       users,
		Roles:       roles,
		Attachments: files,
		Issuer:      issuer,
		Events:      events,
		Bucket:      cfg.Storage.TrusteeBucket,
		BaseURL:     cfg.Invitation.BaseURL,
		Log:         log,
	})
	nomineeSvc := nomineedomain.NewService(nomineedomain.Deps{
		Repo:        repos.nominees,
		Users:       users,
		Roles:       roles,
		Attachments: files,
		Issuer:      issuer,
		Events:      events,
		Bucket:      cfg.Storage.NomineeBucket,
		BaseURL:     cfg.Invitation.BaseURL,
		Log:         log,
	})
	approvalSvc := approval.NewService(
		trusteedomain.NewLookup(repos.trustees),
		nomineedomain.NewApprovalDirectory(nomineeSvc),
		approval.BulkGate(cfg.Approval.BulkGate),
		log,
	)

	log.Info("app: initializing router")
	maxBody := 2*cfg.Storage.MaxFileBytes + 1<<20
	handlers := handler.New(
		common.New(roles, log),
		trustees.New(trusteeSvc, maxBody, log),
		nominees.New(nomineeSvc, maxBody, log),
		approvals.New(approvalSvc, users, log),
	)
	router := httpserver.NewRouter(cfg, handlers, users, roles, log)

	log.Info("app: initializing http server")
	a.httpServer = httpserver.New(cfg, router)
	return a, nil
}

func (a *App) initRepositories(log logger.Logger) (repositories, error) {
	if a.cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("app: using in-memory store, data is lost on restart")
		store := inmemory.NewStore()
		return repositories{
			users:    store.Users(),
			roles:    store.Roles(),
			trustees: store.Trustees(),
			nominees: store.Nominees(),
		}, nil
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(a.cfg.DB, log)
	if err != nil {
		return repositories{}, err
	}
	a.db = dbConn

	if a.cfg.DB.AutoMigrate {
		log.Info("app: applying migrations")
		if err := db.Migrate(dbConn, a.cfg.DB.MigrationsDir, log); err != nil {
			_ = a.Close()
			return repositories{}, fmt.Errorf("migrate: %w", err)
		}
	}

	return repositories{
		users:    userrepo.NewPostgres(dbConn),
		roles:    rolerepo.NewPostgres(dbConn),
		trustees: trusteerepo.NewPostgres(dbConn),
		nominees: nomineerepo.NewPostgres(dbConn),
	}, nil
}

// initRoleCache returns nil when caching is disabled.
func (a *App) initRoleCache(log logger.Logger) (roledomain.Cache, error) {
	switch a.cfg.RoleCache.Driver {
	case config.CacheDriverNone:
		return nil, nil
	case config.CacheDriverRedis:
		log.Info("app: connecting to redis", "addr", a.cfg.Redis.Addr)
		client, err := redisrepo.NewClient(context.Background(), a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return redisrepo.NewRoleCache(client, a.cfg.Redis.Prefix, log), nil
	default:
		return inmemory.NewInMemoryRoleCache(), nil
	}
}

func (a *App) initBlobStore(log logger.Logger) attachment.Store {
	if a.cfg.Supabase.URL == "" || a.cfg.Supabase.ServiceRoleKey == "" {
		log.Warn("app: supabase storage not configured, attachments are kept in memory")
		return inmemory.NewBlobStore("")
	}
	return storage.NewSupabaseStore(a.cfg.Supabase.URL, a.cfg.Supabase.ServiceRoleKey, a.cfg.Storage.Timeout)
}

func (a *App) initPublisher(log logger.Logger) invitation.Publisher {
	if a.cfg.RabbitMQ.URL == "" {
		return invitation.NoopPublisher{}
	}
	publisher := queue.NewPublisher(a.cfg.RabbitMQ.URL, a.cfg.RabbitMQ.Queue, a.cfg.RabbitMQ.PublishTimeout, log)
	a.closers = append(a.closers, publisher.Close)
	return publisher
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			errs = append(errs, err)
		} else if err := sqlDB.Close(); err != nil {
			errs = append(errs, err)
		}
		a.db = nil
	}
	return errors.Join(errs...)
}
