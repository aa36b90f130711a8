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

	"github.com/alexedwards/scs/v2"
	"github.com/dimitrije/smsdesk/internal/channel"
	"github.com/dimitrije/smsdesk/internal/config"
	"github.com/dimitrije/smsdesk/internal/database"
	"github.com/dimitrije/smsdesk/internal/events"
	"github.com/dimitrije/smsdesk/internal/flash"
	"github.com/dimitrije/smsdesk/internal/handlers"
	"github.com/dimitrije/smsdesk/internal/logger"
	"github.com/dimitrije/smsdesk/internal/metrics"
	authmw "github.com/dimitrije/smsdesk/internal/middleware"
	"github.com/dimitrije/smsdesk/internal/services"
	"github.com/dimitrije/smsdesk/internal/session"
	"github.com/dimitrije/smsdesk/internal/sse"
	"github.com/dimitrije/smsdesk/internal/tokens"
	"github.com/dimitrije/smsdesk/internal/transport"
	"github.com/dimitrije/smsdesk/internal/workflow"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, nil)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m, err := metrics.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry)
	userService := services.NewUserService(db)
	permissionService := services.NewPermissionService(db)
	smsService := services.NewSmsService(db)
	auditService := services.NewAuditService(db)
	statsService := services.NewStatsService(db)
	lookupService := services.NewLookupService(db, cfg.BaseURL)
	trackableService := services.NewTrackableService(db, cfg.BaseURL)
	contactService := services.NewContactService(db)

	pass := tokens.NewPass(trackableService,
		tokens.ContactProvider{},
		tokens.NewPageProvider(tokens.URLLookupFunc(lookupService.PageURL)),
		tokens.NewAssetProvider(tokens.URLLookupFunc(lookupService.AssetURL)),
	)

	var gateway transport.Gateway
	if cfg.SMS.Enabled {
		gateway = transport.NewHTTPGateway(ctx, transport.HTTPGatewayConfig{
			URL:          cfg.SMS.GatewayURL,
			TokenURL:     cfg.SMS.TokenURL,
			ClientID:     cfg.SMS.ClientID,
			ClientSecret: cfg.SMS.ClientSecret,
			Sender:       cfg.SMS.Sender,
		})
	} else {
		log.Warn().Msg("SMS gateway disabled, messages are only logged")
		gateway = transport.NewLogGateway(log)
	}

	senderService := services.NewSenderService(smsService, statsService, gateway, log, m, events.TokenReplacement(pass))

	registry := channel.NewRegistry()
	channel.RegisterSms(registry)
	if err := registry.OnBroadcast(channel.ChannelSms, senderService.Broadcast); err != nil {
		return fmt.Errorf("register broadcaster: %w", err)
	}

	hub := sse.NewHub()
	go hub.Run(ctx)

	hooks := workflow.DefaultHooks()
	hooks.PostSave = append(hooks.PostSave, auditService.SmsSaved, hub.SmsSaved)
	hooks.PostDelete = append(hooks.PostDelete, auditService.SmsDeleted, hub.SmsDeleted)

	smsWorkflow := workflow.New(workflow.Config{
		Store:        smsService,
		AuditLog:     auditService,
		Stats:        statsService,
		Lookups:      lookupService,
		Hooks:        hooks,
		Logger:       log,
		Metrics:      m,
		DefaultLimit: cfg.DefaultPageLimit,
		Configured:   cfg.SMS.Enabled,
	})

	translator, err := flash.NewTranslator(language.English, nil)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Cookie.Name = "smsdesk_session"
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.IsProduction()

	sessions := func(ctx context.Context) session.Store {
		return session.FromContext(ctx, sessionManager)
	}

	userHandler := handlers.NewUserHandler(userService)
	smsHandler := handlers.NewSmsHandler(smsWorkflow, sessions, translator, log)
	sendHandler := handlers.NewSendHandler(smsService, contactService, senderService, translator, log)
	sseHandler := handlers.NewSSEHandler(hub)
	channelHandler := handlers.NewChannelHandler(registry)
	trackableHandler := handlers.NewTrackableHandler(trackableService, m, log)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))
	protected.Use(authmw.CurrentRole(userService))
	protected.Use(authmw.Permissions(permissionService))

	protected.Get("/users/me", userHandler.GetMe)

	protected.Get("/sms", smsHandler.List)
	protected.Get("/sms/new", smsHandler.New)
	protected.Post("/sms/new", smsHandler.New)
	protected.Get("/sms/view/:id", smsHandler.View)
	protected.Get("/sms/edit/:id", smsHandler.Edit)
	protected.Post("/sms/edit/:id", smsHandler.Edit)
	protected.Get("/sms/clone/:id", smsHandler.Clone)
	protected.Post("/sms/clone/:id", smsHandler.Clone)
	protected.Get("/sms/delete/:id", smsHandler.Delete)
	protected.Post("/sms/delete/:id", smsHandler.Delete)
	protected.Get("/sms/batchDelete", smsHandler.BatchDelete)
	protected.Post("/sms/batchDelete", smsHandler.BatchDelete)
	protected.Post("/sms/unlock/:id", smsHandler.Unlock)
	protected.Get("/sms/preview/:id", smsHandler.Preview)
	protected.Get("/sms/contacts/:id", smsHandler.Contacts)
	protected.Post("/sms/send/:id", sendHandler.Send)
	protected.Get("/sms/events", sseHandler.Connect)

	protected.Get("/channels", channelHandler.List)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	// Public trackable links
	app.Get("/r/:redirectId", trackableHandler.Redirect)

	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           sessionManager.LoadAndSave(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, gCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info().Str("addr", apiServer.Addr).Msg("server starting")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		log.Info().Str("addr", metricsServer.Addr).Msg("metrics server starting")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return errors.Join(
			apiServer.Shutdown(shutdownCtx),
			metricsServer.Shutdown(shutdownCtx),
		)
	})

	return group.Wait()
}
