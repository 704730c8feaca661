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

	"crm-platform/internal/activity"
	"crm-platform/internal/auth"
	"crm-platform/internal/calls"
	"crm-platform/internal/config"
	"crm-platform/internal/contacts"
	"crm-platform/internal/deals"
	"crm-platform/internal/email"
	"crm-platform/internal/httpapi"
	"crm-platform/internal/leads"
	"crm-platform/internal/messages"
	"crm-platform/internal/realtime"
	"crm-platform/internal/reporting"
	"crm-platform/internal/telephony"
	"crm-platform/pkg/logger"
	"crm-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	pipeline := deals.DefaultPipeline()
	if cfg.Deals.PipelineFile != "" {
		pipeline, err = deals.LoadPipeline(cfg.Deals.PipelineFile)
		if err != nil {
			log.Error("pipeline load failed", "file", cfg.Deals.PipelineFile, "err", err)
			os.Exit(1)
		}
	}

	// Providers. Unconfigured clients boot fine and refuse on first use.
	twilioClient := telephony.NewClient(telephony.Config{
		AccountSID:        cfg.Twilio.AccountSID,
		AuthToken:         cfg.Twilio.AuthToken,
		PhoneNumber:       cfg.Twilio.PhoneNumber,
		VoiceURL:          cfg.VoiceWebhookURL(),
		StatusCallbackURL: cfg.StatusWebhookURL(),
	})
	emailClient := email.NewClient(email.Config{
		APIKey: cfg.Resend.APIKey,
		From:   cfg.Resend.From,
	})

	// Services.
	activitySvc := activity.NewService(activity.NewPostgresRepo(db))
	contactSvc := contacts.NewService(contacts.NewPostgresRepo(db))

	callRepo := calls.NewPostgresRepo(db)
	callNotifier := calls.NewRedisNotifier(rdb)
	callLimiter := calls.NewRedisCallLimiter(rdb, 0)
	callSvc := calls.NewService(callRepo, callNotifier, twilioClient, callLimiter, activitySvc, log)

	messageSvc := messages.NewService(messages.NewPostgresRepo(db), twilioClient, emailClient, contactSvc, activitySvc, log)
	dealSvc := deals.NewService(deals.NewPostgresRepo(db), pipeline, activitySvc, log)
	leadSvc := leads.NewService(leads.NewPostgresRepo(db), contactSvc, activitySvc, log)
	reportingSvc := reporting.NewService(reporting.NewPostgresRepo(db), pipeline)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	h := httpapi.Handlers{
		Auth:      authManager,
		Contacts:  contactSvc,
		Deals:     dealSvc,
		Leads:     leadSvc,
		Messages:  messageSvc,
		Calls:     callSvc,
		Activity:  activitySvc,
		Reporting: reportingSvc,
	}
	wh := telephony.WebhookHandlers{
		Calls:    callSvc,
		Messages: messageSvc,
		Greeting: "Connecting your call.",
		CallerID: cfg.Twilio.PhoneNumber,
	}
	socket := realtime.NewHandler(callSvc, callNotifier, callRepo, log)

	registerRoutes(r, h, wh, socket, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
