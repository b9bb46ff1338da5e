package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-radar/internal/api"
	"github.com/spigell/resume-radar/internal/consent"
	"github.com/spigell/resume-radar/internal/jobs"
	"github.com/spigell/resume-radar/internal/logger"
	"github.com/spigell/resume-radar/internal/market"
	"github.com/spigell/resume-radar/internal/metrics"
	"github.com/spigell/resume-radar/internal/orchestrator"
	"github.com/spigell/resume-radar/internal/secrets"
)

// application is everything a command needs, wired from the config.
type application struct {
	config  *Config
	logger  *zap.Logger
	client  *api.Client
	consent *consent.Store
	board   *jobs.Board
	metrics *metrics.Metrics
	orch    *orchestrator.Orchestrator

	metricsServer *http.Server
}

func setup() (*application, error) {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	config, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}

	log.Debug("starting", zap.String("version", version), zap.String("api", config.API.BaseURL))

	token, err := resolveToken(config)
	if err != nil {
		return nil, err
	}
	if token == "" {
		log.Warn("no api token configured",
			zap.String("hint", "run 'resume-radar auth save' or set RESUME_RADAR_TOKEN_FILE"),
		)
	}

	client := api.New(log, api.Config{
		BaseURL:   config.API.BaseURL,
		Token:     token,
		UserAgent: config.API.UserAgent,
		Timeout:   config.API.Timeout,
		RateLimit: config.API.RateLimit,
		RateBurst: config.API.RateBurst,
		Breaker: api.BreakerConfig{
			Enabled:      config.API.Breaker.Enabled,
			MinRequests:  config.API.Breaker.MinRequests,
			FailureRatio: config.API.Breaker.FailureRatio,
			OpenTimeout:  config.API.Breaker.OpenTimeout,
		},
	})

	m := metrics.New()
	store := consent.NewStore(client, log)
	criteria, err := withExclusions(config.Jobs.Filter, config.Jobs.ExcludeFile)
	if err != nil {
		return nil, err
	}
	board := jobs.NewBoard(criteria, config.Jobs.Dedupe)

	orch := orchestrator.New(orchestrator.Deps{
		Backend:  client,
		Sessions: client,
		Consent:  store,
		Market:   market.NewCache(client, log, config.Jobs.CacheHours),
		Board:    board,
		Metrics:  m,
		Logger:   log,
	}, config.Analysis)

	a := &application{
		config:  config,
		logger:  log,
		client:  client,
		consent: store,
		board:   board,
		metrics: m,
		orch:    orch,
	}
	a.serveMetrics()

	return a, nil
}

func withExclusions(c jobs.Criteria, path string) (jobs.Criteria, error) {
	if path == "" {
		return c, nil
	}
	excluded, err := jobs.ReadExcludedCompanies(path)
	if err != nil {
		return c, fmt.Errorf("getting excluded companies from file: %w", err)
	}
	c.ExcludeCompanies = append(append([]string{}, c.ExcludeCompanies...), excluded.Names()...)
	return c, nil
}

// resolveToken returns an empty token when none is configured; commands
// that need authentication fail later with a clear validation error.
func resolveToken(config *Config) (string, error) {
	token, err := secrets.Load(secrets.Source{
		Name:  "api token",
		Value: config.Token,
		File:  config.TokenFile,
	})
	if errors.Is(err, secrets.ErrNotConfigured) {
		return "", nil
	}
	return token, err
}

func (a *application) serveMetrics() {
	if a.config.Metrics.Addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	a.metricsServer = &http.Server{
		Addr:              a.config.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("serving metrics", zap.String("addr", a.config.Metrics.Addr))
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}

// close completes the session and flushes logs. It runs on every exit path
// of a command.
func (a *application) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := a.orch.Close(ctx); err != nil {
		a.logger.Warn("completing session failed", zap.Error(err))
	}
	if a.metricsServer != nil {
		_ = a.metricsServer.Shutdown(ctx)
	}
	_ = a.logger.Sync()
}
