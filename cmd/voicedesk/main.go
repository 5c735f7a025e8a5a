package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dimiro1/banner"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/dentaldesk/voicedesk/pkg/backend"
	"github.com/dentaldesk/voicedesk/pkg/call"
	"github.com/dentaldesk/voicedesk/pkg/config"
	"github.com/dentaldesk/voicedesk/pkg/guardrail"
	"github.com/dentaldesk/voicedesk/pkg/intent"
	"github.com/dentaldesk/voicedesk/pkg/llm"
	"github.com/dentaldesk/voicedesk/pkg/metrics"
	"github.com/dentaldesk/voicedesk/pkg/notify"
	"github.com/dentaldesk/voicedesk/pkg/prompt"
	"github.com/dentaldesk/voicedesk/pkg/providers/openai"
	"github.com/dentaldesk/voicedesk/pkg/redact"
	"github.com/dentaldesk/voicedesk/pkg/resilience"
	"github.com/dentaldesk/voicedesk/pkg/retell"
	"github.com/dentaldesk/voicedesk/pkg/session"
	"github.com/dentaldesk/voicedesk/pkg/store"
	"github.com/dentaldesk/voicedesk/pkg/tools"
)

const version = "0.3.0"

// LogConfig defines the configuration for structured logging
type LogConfig struct {
	Level  string // "DEBUG" or "INFO"
	Format string // "json" or "text"
}

// InitLogger initializes the global slog logger with the specified configuration
func InitLogger(cfg LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(cfg.Level) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
		slog.Warn("invalid log level specified, defaulting to INFO", "specified_level", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "text", "":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
		slog.Warn("invalid log format specified, defaulting to text", "specified_format", cfg.Format)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	logger.Info("logger initialized", "level", level.String(), "format", cfg.Format)
	return logger
}

func printBanner() {
	tpl := "{{ .Title \"VOICEDESK\" \"\" 0 }}\nVersion: " + version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}

func buildAdapter(cfg config.Config) (llm.Adapter, error) {
	settings, err := config.DecodeLLMSettings(cfg.Vendors.LLM.Settings)
	if err != nil {
		return nil, err
	}
	adapter := openai.NewAdapter(settings.APIKey, settings.Model)
	if settings.BaseURL != "" {
		adapter.BaseURL = settings.BaseURL
	}
	adapter.Temperature = settings.Temperature
	adapter.MaxTokens = settings.MaxTokens

	useBreaker := true
	if settings.UseCircuitBreaker != nil {
		useBreaker = *settings.UseCircuitBreaker
	}
	if !useBreaker {
		return adapter, nil
	}
	cooldown := time.Duration(settings.CircuitCooldownMS) * time.Millisecond
	breaker := resilience.NewCircuitBreaker(settings.CircuitThreshold, cooldown)
	return llm.NewCircuitBreakerAdapter(adapter, breaker), nil
}

func buildSMS(cfg config.TwilioConfig) notify.Sender {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		slog.Warn("twilio credentials missing, sms disabled")
		return notify.NoopSender{}
	}
	return notify.NewSMSSender(notify.Config{
		AccountSID: cfg.AccountSID,
		AuthToken:  cfg.AuthToken,
		FromNumber: cfg.FromNumber,
	})
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	logger := InitLogger(LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})
	printBanner()

	redact.SetEnabled(cfg.Privacy.RedactPII)

	adapter, err := buildAdapter(cfg)
	if err != nil {
		logger.Error("llm_adapter_unavailable", "error", err)
		panic(err)
	}

	registry := prompt.NewRegistry()
	for tenantID, tenant := range cfg.Tenants {
		registry.Register(tenantID, tenant.Practice)
	}
	logger.Info("tenants registered", "count", len(cfg.Tenants))

	directory := backend.NewMemoryDirectory()
	var registrar backend.Registrar
	if cfg.Backend.BaseURL != "" {
		registrar = backend.NewRegistrationClient(cfg.Backend.BaseURL, cfg.Backend.ServiceKey)
	} else {
		logger.Warn("backend base_url missing, registration tools disabled")
	}
	sms := buildSMS(cfg.Twilio)

	records := store.NewMemoryStore()
	observer := metrics.NewJSONLObserver(os.Stdout)

	dispatcher := tools.NewDispatcher(directory, registrar, sms, logger)
	dispatcher.PracticeName = func(tenantID string) string {
		return registry.Resolve(tenantID).Practice().Name
	}

	factory := call.NewHandlerFactory(call.Deps{
		Adapter:        adapter,
		Guard:          guardrail.NewEngineWithThreshold(cfg.Safety.ConfidenceThreshold),
		Prompts:        registry,
		Classifier:     intent.NewClassifier(adapter, logger),
		Dispatcher:     dispatcher,
		Records:        records,
		Sessions:       session.NewManager(),
		Logger:         logger,
		Observer:       observer,
		TransferNumber: cfg.Retell.TransferNumber,
		MaxHistory:     cfg.Safety.MaxHistory,
		MaxTriggers:    cfg.Safety.MaxGuardrailTriggers,
	})

	transport := retell.NewTransport(retell.TransportConfig{
		AllowAnyOrigin: cfg.Server.AllowAnyOrigin,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, factory, logger)

	client := retell.NewClient(retell.ClientConfig{
		APIKey:       cfg.Retell.APIKey,
		BaseURL:      cfg.Retell.BaseURL,
		WebsocketURL: cfg.Retell.WebsocketURL,
	})
	webhooks := retell.NewWebhookServer(records, client, logger, observer)

	r := chi.NewRouter()
	r.Get("/ws/retell/{call_id}", transport.ServeHTTP)
	r.Mount("/retell", webhooks.Routes())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"` + version + `"}`))
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	transport.Drain()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
	logger.Info("shutdown complete")
}
