package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"faceless/internal/config"
	"faceless/internal/history"
	"faceless/internal/logging"
	"faceless/internal/notifications"
	"faceless/internal/prompt"
	"faceless/internal/sceneplan"
	"faceless/internal/services"
	"faceless/internal/services/comfy"
	"faceless/internal/services/llm"
	"faceless/internal/workflowgraph"
	"faceless/internal/worldstate"
)

// ImageBackend is the slice of the ComfyUI client the session needs.
type ImageBackend interface {
	Ping(ctx context.Context) error
	QueueBusy(ctx context.Context) bool
	SubmitPrompt(ctx context.Context, graph workflowgraph.Graph) (string, error)
	WaitForHistory(ctx context.Context, promptID string) (*comfy.HistoryEntry, error)
	ExtractFirstImage(entry *comfy.HistoryEntry) (comfy.ImageRef, error)
	Download(ctx context.Context, ref comfy.ImageRef) ([]byte, error)
	Loras(ctx context.Context) []string
	Checkpoints(ctx context.Context) []string
}

// TurnStore is the slice of the history store the session needs. Nil
// stores are tolerated for ephemeral sessions.
type TurnStore interface {
	RecordTurn(ctx context.Context, turn *history.Turn) (int64, error)
	Recent(ctx context.Context, limit int) ([]history.Turn, error)
}

// Result is the outcome of one completed turn.
type Result struct {
	TurnID         string
	Provider       string
	Reply          string
	Mood           string
	Location       string
	VisualAnchor   string
	ChangeScene    bool
	SceneAppend    string
	Seed           int64
	PositivePrompt string
	ArtifactPath   string
	Elapsed        time.Duration
}

// StepFunc observes turn progress. It runs on the calling goroutine.
type StepFunc func(step string)

// Options collects the session collaborators.
type Options struct {
	Template     workflowgraph.Graph
	Primary      llm.Provider
	Fallback     llm.Provider
	Backend      ImageBackend
	Store        TurnStore
	Notifier     notifications.Service
	Logger       *slog.Logger
	ArtifactsDir string

	Character workflowgraph.CharacterParams
	GenParams workflowgraph.GenParams

	RejectWhileBusy         bool
	PreferFallbackWhileBusy bool
	HistoryLimit            int
}

// Session serializes generations against the shared image backend.
type Session struct {
	mu        sync.Mutex
	character workflowgraph.CharacterParams
	genParams workflowgraph.GenParams

	template workflowgraph.Graph
	patcher  *workflowgraph.Patcher
	world    *worldstate.State
	primary  llm.Provider
	fallback llm.Provider
	backend  ImageBackend
	store    TurnStore
	notifier notifications.Service
	logger   *slog.Logger

	artifactsDir            string
	rejectWhileBusy         bool
	preferFallbackWhileBusy bool

	slot chan struct{}
	busy atomic.Bool
}

// New constructs a session. Template, Primary, and Backend are required.
func New(opts Options) (*Session, error) {
	if len(opts.Template) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "session", "init", "workflow template required", nil)
	}
	if opts.Primary == nil {
		return nil, services.Wrap(services.ErrConfiguration, "session", "init", "primary provider required", nil)
	}
	if opts.Backend == nil {
		return nil, services.Wrap(services.ErrConfiguration, "session", "init", "image backend required", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "session"))
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(&config.Config{})
	}

	session := &Session{
		character:               opts.Character,
		genParams:               opts.GenParams,
		template:                opts.Template,
		patcher:                 workflowgraph.NewPatcher(logger),
		world:                   worldstate.New(opts.HistoryLimit),
		primary:                 opts.Primary,
		fallback:                opts.Fallback,
		backend:                 opts.Backend,
		store:                   opts.Store,
		notifier:                notifier,
		logger:                  logger,
		artifactsDir:            opts.ArtifactsDir,
		rejectWhileBusy:         opts.RejectWhileBusy,
		preferFallbackWhileBusy: opts.PreferFallbackWhileBusy,
		slot:                    make(chan struct{}, 1),
	}
	session.world.SetIdentityProfile(opts.Character.IdentityProfile)
	return session, nil
}

// Busy reports whether a generation is currently in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// acquire claims the generation slot.
func (s *Session) acquire(ctx context.Context) error {
	select {
	case s.slot <- struct{}{}:
		s.busy.Store(true)
		return nil
	default:
	}
	if s.rejectWhileBusy {
		return services.Wrap(services.ErrBusy, "session", "chat", "a generation is already running", nil)
	}
	select {
	case s.slot <- struct{}{}:
		s.busy.Store(true)
		return nil
	case <-ctx.Done():
		return services.Wrap(services.ErrBusy, "session", "chat", "canceled while waiting for the generation slot", ctx.Err())
	}
}

func (s *Session) release() {
	s.busy.Store(false)
	<-s.slot
}

// Chat runs one full turn. World state and history advance only after
// every external step has succeeded, so a failed turn leaves the scene
// exactly where it was.
func (s *Session) Chat(ctx context.Context, userText string, onStep StepFunc) (*Result, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil, services.Wrap(services.ErrConfiguration, "session", "chat", "message text required", nil)
	}
	if onStep == nil {
		onStep = func(string) {}
	}

	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	started := time.Now()

	onStep("preflight")
	if err := s.backend.Ping(ctx); err != nil {
		return nil, s.fail(ctx, "preflight", err)
	}

	s.mu.Lock()
	character := s.character
	genParams := s.snapshotGenParamsLocked()
	s.mu.Unlock()

	// The reroute is keyed to the image backend queue: a queue that is
	// already chewing on prompts slows the whole turn, so the cheaper
	// fallback model answers while the GPU catches up.
	backendBusy := false
	if s.preferFallbackWhileBusy && s.fallback != nil {
		backendBusy = s.backend.QueueBusy(ctx)
	}

	onStep("thinking")
	provider, raw, err := s.generate(ctx, userText, backendBusy)
	if err != nil {
		return nil, s.fail(ctx, "chat completion", err)
	}

	plan := sceneplan.Parse(raw)

	// The image must reflect the scene the plan lands in: on a scene
	// change the new anchor renders immediately, otherwise the locked
	// anchor keeps the background stable.
	anchorForPrompt := s.world.VisualAnchor()
	if plan.ChangeScene && strings.TrimSpace(plan.VisualAnchor) != "" {
		anchorForPrompt = strings.TrimSpace(plan.VisualAnchor)
	}
	promptAppend := joinFragments(anchorForPrompt, plan.SceneAppend)

	onStep("patching")
	patched, err := s.patcher.Patch(s.template, character, promptAppend, genParams)
	if err != nil {
		return nil, s.fail(ctx, "patch workflow", err)
	}

	onStep("queueing")
	promptID, err := s.backend.SubmitPrompt(ctx, patched.Graph)
	if err != nil {
		return nil, s.fail(ctx, "queue prompt", err)
	}
	s.logger.Info("generation queued",
		logging.String(logging.FieldProvider, provider.Name()),
		logging.String(logging.FieldPromptID, promptID),
		logging.Int64("seed", patched.Seed))

	onStep("rendering")
	entry, err := s.backend.WaitForHistory(ctx, promptID)
	if err != nil {
		return nil, s.fail(ctx, "wait for image", err)
	}
	ref, err := s.backend.ExtractFirstImage(entry)
	if err != nil {
		return nil, s.fail(ctx, "extract image", err)
	}

	onStep("downloading")
	imageData, err := s.backend.Download(ctx, ref)
	if err != nil {
		return nil, s.fail(ctx, "download image", err)
	}

	onStep("saving")
	turnID := uuid.NewString()
	artifactPath := ""
	if s.artifactsDir != "" {
		artifactPath, err = history.SaveArtifact(s.artifactsDir, turnID, imageData)
		if err != nil {
			return nil, s.fail(ctx, "save artifact", err)
		}
	}

	s.world.Apply(plan)
	s.world.RecordTurn(userText, plan.Reply, plan)
	snapshot := s.world.Snapshot()

	result := &Result{
		TurnID:         turnID,
		Provider:       provider.Name(),
		Reply:          plan.Reply,
		Mood:           snapshot.Mood,
		Location:       snapshot.Location,
		VisualAnchor:   snapshot.VisualAnchor,
		ChangeScene:    plan.ChangeScene,
		SceneAppend:    plan.SceneAppend,
		Seed:           patched.Seed,
		PositivePrompt: patched.PositivePrompt,
		ArtifactPath:   artifactPath,
		Elapsed:        time.Since(started),
	}

	if s.store != nil {
		turn := &history.Turn{
			TurnID:         turnID,
			Provider:       result.Provider,
			UserText:       userText,
			ReplyText:      plan.Reply,
			SceneAppend:    plan.SceneAppend,
			Mood:           snapshot.Mood,
			Location:       snapshot.Location,
			VisualAnchor:   snapshot.VisualAnchor,
			ChangeScene:    plan.ChangeScene,
			Seed:           patched.Seed,
			PositivePrompt: patched.PositivePrompt,
			ArtifactPath:   artifactPath,
		}
		if _, err := s.store.RecordTurn(ctx, turn); err != nil {
			s.logger.Warn("persist turn failed", logging.String(logging.FieldTurnID, turnID), logging.Error(err))
		}
	}

	if err := s.notifier.NotifyGenerationCompleted(ctx, snapshot.Location, artifactPath); err != nil {
		s.logger.Warn("completion notification failed", logging.Error(err))
	}

	s.logger.Info("turn completed",
		logging.String(logging.FieldTurnID, turnID),
		logging.String(logging.FieldProvider, result.Provider),
		logging.Bool("change_scene", plan.ChangeScene),
		logging.Duration("elapsed", result.Elapsed))
	return result, nil
}

// generate runs the chat completion, preferring the fallback provider
// when the image backend queue is occupied, and falling back on
// primary failure.
func (s *Session) generate(ctx context.Context, userText string, backendBusy bool) (llm.Provider, string, error) {
	systemPrompt := prompt.System(s.world.RenderContext())
	messages := llm.BuildMessages(systemPrompt, s.world.History(), userText)

	first, second := s.primary, s.fallback
	if backendBusy && s.preferFallbackWhileBusy && s.fallback != nil {
		first, second = s.fallback, s.primary
	}

	raw, err := first.Generate(ctx, messages)
	if err == nil {
		return first, raw, nil
	}
	if second == nil {
		return nil, "", err
	}
	s.logger.Warn("provider failed, trying fallback",
		logging.String(logging.FieldProvider, first.Name()),
		logging.Error(err))
	raw, fallbackErr := second.Generate(ctx, messages)
	if fallbackErr != nil {
		return nil, "", err
	}
	return second, raw, nil
}

func (s *Session) fail(ctx context.Context, step string, err error) error {
	s.logger.Error("turn failed", logging.String(logging.FieldStep, step), logging.Error(err))
	if notifyErr := s.notifier.NotifyGenerationFailed(ctx, err, step); notifyErr != nil {
		s.logger.Warn("failure notification failed", logging.Error(notifyErr))
	}
	return err
}

// snapshotGenParamsLocked copies the generation params, including the
// seed pointee, so an in-flight turn is immune to concurrent updates.
func (s *Session) snapshotGenParamsLocked() workflowgraph.GenParams {
	params := s.genParams
	if params.Seed != nil {
		seed := *params.Seed
		params.Seed = &seed
	}
	return params
}

func joinFragments(fragments ...string) string {
	parts := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		if trimmed := strings.TrimSpace(fragment); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, ", ")
}
