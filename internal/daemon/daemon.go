package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"faceless/internal/config"
	"faceless/internal/history"
	"faceless/internal/logging"
	"faceless/internal/notifications"
	"faceless/internal/services/comfy"
	"faceless/internal/services/llm"
	"faceless/internal/session"
	"faceless/internal/workflowgraph"
)

// Daemon owns the assembled runtime and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *history.Store
	session *session.Session

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
}

// New constructs a daemon with initialized dependencies.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	sess, err := buildSession(ctx, cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := sess.RestoreHistory(ctx, cfg.Generation.HistoryLimit); err != nil {
		logger.Warn("history restore failed", logging.Error(err))
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "facelessd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		session:  sess,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

func buildSession(ctx context.Context, cfg *config.Config, store *history.Store, logger *slog.Logger) (*session.Session, error) {
	settings := llm.Settings{
		OpenAIAPIKey:  cfg.LLM.OpenAIAPIKey,
		OpenAIBaseURL: cfg.LLM.OpenAIBaseURL,
		OpenAIModel:   cfg.LLM.OpenAIModel,
		GroqAPIKey:    cfg.LLM.GroqAPIKey,
		GroqModel:     cfg.LLM.GroqModel,
		GeminiAPIKey:  cfg.LLM.GeminiAPIKey,
		GeminiModel:   cfg.LLM.GeminiModel,
		OllamaHost:    cfg.LLM.OllamaHost,
		OllamaModel:   cfg.LLM.OllamaModel,
	}

	primary, err := llm.New(ctx, cfg.LLM.Provider, settings, logger)
	if err != nil {
		return nil, fmt.Errorf("build primary provider: %w", err)
	}
	var fallback llm.Provider
	if cfg.LLM.FallbackProvider != "" {
		fallback, err = llm.New(ctx, cfg.LLM.FallbackProvider, settings, logger)
		if err != nil {
			return nil, fmt.Errorf("build fallback provider: %w", err)
		}
	}

	template, err := workflowgraph.Load(cfg.Comfy.WorkflowTemplate)
	if err != nil {
		return nil, err
	}

	backend := comfy.NewClient(cfg.Comfy.BaseURL, logger, comfy.WithTimings(
		time.Duration(cfg.Comfy.PollIntervalMS)*time.Millisecond,
		time.Duration(cfg.Comfy.WaitTimeoutSeconds)*time.Second,
		time.Duration(cfg.Comfy.BusyExtensionSeconds)*time.Second,
	))

	return session.New(session.Options{
		Template:     template,
		Primary:      primary,
		Fallback:     fallback,
		Backend:      backend,
		Store:        store,
		Notifier:     notifications.NewService(cfg),
		Logger:       logger,
		ArtifactsDir: cfg.ArtifactsDir(),
		Character: workflowgraph.CharacterParams{
			VisualBase:      cfg.Character.VisualBase,
			IdentityProfile: cfg.Character.IdentityProfile,
			LoraName:        cfg.Character.LoraName,
			LoraStrength:    cfg.Character.LoraStrength,
		},
		GenParams:               genParamsFromConfig(cfg),
		RejectWhileBusy:         cfg.Generation.RejectWhileBusy,
		PreferFallbackWhileBusy: cfg.LLM.PreferFallbackWhileBusy,
		HistoryLimit:            cfg.Generation.HistoryLimit,
	})
}

func genParamsFromConfig(cfg *config.Config) workflowgraph.GenParams {
	params := workflowgraph.GenParams{
		Steps:       cfg.Generation.Steps,
		CFG:         cfg.Generation.CFG,
		SamplerName: cfg.Generation.SamplerName,
		Scheduler:   cfg.Generation.Scheduler,
		QualityTags: cfg.Generation.QualityTags,
		Negative:    cfg.Generation.Negative,
		Checkpoint:  cfg.Generation.Checkpoint,
	}
	if cfg.Generation.Seed != nil {
		seed := *cfg.Generation.Seed
		params.Seed = &seed
	}
	return params
}

// Start acquires the daemon lock.
func (d *Daemon) Start() error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another faceless daemon instance is already running")
	}

	d.running.Store(true)
	d.logger.Info("faceless daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("faceless daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon holds the instance lock.
func (d *Daemon) Running() bool { return d.running.Load() }

// Session exposes the chat session for the IPC layer.
func (d *Daemon) Session() *session.Session { return d.session }

// LockPath returns the instance lock file location.
func (d *Daemon) LockPath() string { return d.lockPath }
