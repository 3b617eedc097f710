package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/support-chat/internal/classifier"
	"github.com/psds-microservice/support-chat/internal/config"
	"github.com/psds-microservice/support-chat/internal/database"
	"github.com/psds-microservice/support-chat/internal/handler"
	"github.com/psds-microservice/support-chat/internal/kafka"
	"github.com/psds-microservice/support-chat/internal/logger"
	"github.com/psds-microservice/support-chat/internal/router"
	"github.com/psds-microservice/support-chat/internal/seed"
	"github.com/psds-microservice/support-chat/internal/service"
	"github.com/psds-microservice/support-chat/internal/transcript"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// API приложение: HTTP сервер чата и панели оператора (режим api).
type API struct {
	cfg      *config.Config
	log      *slog.Logger
	db       *gorm.DB
	httpSrv  *http.Server
	producer *kafka.Producer
	redis    *redis.Client
	memory   *transcript.MemoryStore
}

// NewAPI создаёт приложение: БД и миграции, стартовый FAQ, сервисы, HTTP.
func NewAPI(ctx context.Context, cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logger.WithComponent("api")

	if err := database.EnsureDatabase(cfg); err != nil {
		return nil, fmt.Errorf("ensure database: %w", err)
	}
	db, err := database.Open(cfg.DB.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	a := &API{cfg: cfg, log: log, db: db}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	if err := database.MigrateUp(ctx, db, cfg.DB.Driver); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	faqSvc := service.NewFAQService(db)
	if cfg.SeedFAQ {
		if _, err := seed.IfEmpty(ctx, faqSvc, seed.Default()); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	a.producer = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket)
	var events kafka.TicketEventProducer
	if a.producer.Enabled() {
		events = a.producer
		log.Info("ticket events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopicTicket)
	}
	ticketSvc := service.NewTicketService(db, events)

	ready := map[string]handler.Pinger{
		"database": handler.PingFunc(func(ctx context.Context) error { return database.Ping(ctx, db) }),
	}

	var store transcript.Store
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rs := transcript.NewRedisStore(a.redis, cfg.SessionTTL)
		store = rs
		ready["redis"] = rs
		log.Info("session transcripts in redis", "addr", cfg.Redis.Addr)
	} else {
		a.memory = transcript.NewMemoryStore(cfg.SessionTTL)
		store = a.memory
	}
	rec := transcript.NewRecorder(store, cfg.Location())

	chain, err := classifier.New(classifier.Options{
		Backend:       cfg.Classifier.Backend,
		URL:           cfg.Classifier.URL,
		Timeout:       cfg.Classifier.Timeout,
		RulesFile:     cfg.Classifier.RulesFile,
		OpenAIKey:     cfg.OpenAI.APIKey,
		OpenAIBaseURL: cfg.OpenAI.BaseURL,
		OpenAIModel:   cfg.OpenAI.Model,
	}, faqSvc)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	resolver := service.NewResolver(chain, faqSvc, ticketSvc, rec)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	h, err := router.New(router.Deps{
		Chat:       handler.NewChatHandler(resolver, rec),
		Tickets:    handler.NewTicketHandler(ticketSvc),
		FAQ:        handler.NewFAQHandler(faqSvc),
		Pages:      handler.NewPageHandler(rec, cfg.PollInterval),
		Ready:      ready,
		SessionTTL: cfg.SessionTTL,
		Log:        logger.WithComponent("http"),
	})
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}

	a.httpSrv = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// ответ ждёт классификатор, поэтому запас сверх его таймаута
		WriteTimeout: cfg.Classifier.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	ok = true
	return a, nil
}

// Handler нужен тестам без сетевого слушателя.
func (a *API) Handler() http.Handler { return a.httpSrv.Handler }

// Run запускает HTTP сервер, блокируется до отмены ctx.
func (a *API) Run(ctx context.Context) error {
	defer a.close()

	host := a.cfg.AppHost
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	a.log.Info("HTTP server listening", "addr", a.httpSrv.Addr)
	a.log.Info("endpoints",
		"chat", base+"/",
		"operator", base+"/operator",
		"swagger", base+router.PathSwagger,
		"health", base+router.PathHealth,
		"ready", base+router.PathReady)

	if a.memory != nil {
		go a.memory.RunJanitor(ctx, time.Minute)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	a.log.Info("HTTP server stopped")
	return nil
}

func (a *API) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("close kafka producer", "error", err)
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.log.Warn("close database", "error", err)
		}
	}
}
