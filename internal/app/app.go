package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/fsdevblog/shortlinks/internal/bmeta"
	"github.com/fsdevblog/shortlinks/internal/config"
	"github.com/fsdevblog/shortlinks/internal/controllers"
	"github.com/fsdevblog/shortlinks/internal/db"
	"github.com/fsdevblog/shortlinks/internal/logs"
	"github.com/fsdevblog/shortlinks/internal/metrics"
	"github.com/fsdevblog/shortlinks/internal/services"
	"github.com/fsdevblog/shortlinks/internal/tlscert"
)

const (
	backupTimeout     = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 5 * time.Second
)

type App struct {
	config    config.Config
	conn      any
	services  *services.Services
	metrics   *metrics.Metrics
	meta      bmeta.Meta
	startedAt time.Time
	Logger    *zap.Logger
}

// New создает логгер, подключается к хранилищу и собирает сервисный слой.
//
// Параметры:
//   - conf: конфигурация приложения
//   - meta: данные сборки
//
// Возвращает:
//   - *App: готовое к запуску приложение
//   - error: ошибка инициализации
func New(conf config.Config, meta bmeta.Meta) (*App, error) {
	logger, err := logs.New(func(o *logs.LoggerOptions) {
		o.Production = conf.IsRelease()
		o.Level = logs.LevelType(conf.LogLevel)
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if conf.GinMode != "" {
		gin.SetMode(conf.GinMode)
	}

	m := metrics.New(prometheus.NewRegistry())

	conn, err := db.NewConnectionFactory(context.Background(), db.FactoryConfig{
		StorageType:  conf.StorageType(),
		PostgresDSN:  &conf.DatabaseDSN,
		SqliteDBPath: &conf.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	srv, err := services.Factory(conn,
		func(o *services.LinkServiceOptions) {
			o.Logger = logger
			o.Metrics = m
		},
	)
	if err != nil {
		closeConn(conn)
		return nil, fmt.Errorf("init services: %w", err)
	}

	return &App{
		config:    conf,
		conn:      conn,
		services:  srv,
		metrics:   m,
		meta:      meta,
		startedAt: time.Now(),
		Logger:    logger,
	}, nil
}

// Must вызывает панику если произошла ошибка.
func Must(a *App, err error) *App {
	if err != nil {
		panic(err)
	}
	return a
}

// Handler роутер приложения.
func (a *App) Handler() http.Handler {
	return controllers.SetupRouter(controllers.RouterParams{
		LinkService: a.services.LinkService,
		PingService: a.services.PingService,
		Metrics:     a.metrics,
		AppConf:     a.config,
		Logger:      a.Logger,
		Version:     a.meta.Version,
		StartedAt:   a.startedAt,
	})
}

// Run слушает ServerAddress и обслуживает запросы до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.config.ServerAddress)
	if err != nil {
		return fmt.Errorf("listen `%s`: %w", a.config.ServerAddress, err)
	}
	return a.Serve(ctx, ln)
}

// Serve обслуживает запросы на ln до отмены ctx, после чего корректно останавливает сервер,
// сохраняет бекап хранилища в памяти и закрывает соединение с хранилищем.
//
// Параметры:
//   - ctx: контекст жизни сервера
//   - ln: слушатель, Serve закрывает его при остановке
//
// Возвращает:
//   - error: ошибка сервера, nil при штатной остановке
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	defer closeConn(a.conn)

	if err := a.restoreBackup(ctx); err != nil {
		_ = ln.Close()
		return fmt.Errorf("run app: %w", err)
	}

	server := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := a.serve(server, ln)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gCtx.Done()
		a.Logger.Info("Shutdown command received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})

	serverErr := g.Wait()
	if serverErr != nil {
		a.Logger.Error("server error", zap.Error(serverErr))
	}
	a.makeBackup()
	return serverErr
}

func (a *App) serve(server *http.Server, ln net.Listener) error {
	a.Logger.Info("Starting server",
		append(a.meta.Fields(),
			zap.String("address", ln.Addr().String()),
			zap.String("storage", string(a.config.StorageType())),
			zap.Bool("https", a.config.EnableHTTPS),
		)...,
	)
	if !a.config.EnableHTTPS {
		return server.Serve(ln) //nolint:wrapcheck
	}

	store := tlscert.NewStore(a.config.TLSCertPath, a.config.TLSKeyPath)
	generated, err := store.EnsureCert()
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("prepare tls certificate: %w", err)
	}
	if generated {
		a.Logger.Info("Generated self-signed certificate",
			zap.String("cert", store.CertPath()),
			zap.String("key", store.KeyPath()),
		)
	}
	return server.ServeTLS(ln, store.CertPath(), store.KeyPath()) //nolint:wrapcheck
}

func (a *App) restoreBackup(ctx context.Context) error {
	if a.services.Backuper == nil || a.config.FileStoragePath == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, backupTimeout)
	defer cancel()

	if err := a.services.Backuper.Restore(ctx, a.config.FileStoragePath); err != nil {
		return fmt.Errorf("restore backup from file `%s`: %w", a.config.FileStoragePath, err)
	}
	return nil
}

// makeBackup сохраняет хранилище в памяти. Для postgres и sqlite ничего не делает.
func (a *App) makeBackup() {
	if a.services.Backuper == nil || a.config.FileStoragePath == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	if err := a.services.Backuper.Backup(ctx, a.config.FileStoragePath); err != nil {
		a.Logger.Error("Making backup error", zap.String("path", a.config.FileStoragePath), zap.Error(err))
		return
	}
	a.Logger.Info("Successfully made backup", zap.String("path", a.config.FileStoragePath))
}

func closeConn(conn any) {
	switch c := conn.(type) {
	case *pgxpool.Pool:
		c.Close()
	case *gorm.DB:
		if sqlDB, err := c.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
