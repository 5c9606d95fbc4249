package worldstate

import (
	"fmt"
	"strings"

	"faceless/internal/sceneplan"
)

const (
	// DefaultLocation is the locked location before any scene change.
	DefaultLocation = "unspecified"
	// DefaultHistoryLimit bounds the retained chat turns.
	DefaultHistoryLimit = 10
)

// ChatTurn is an immutable record of one completed generation.
type ChatTurn struct {
	UserText      string
	AssistantText string
	Plan          sceneplan.Plan
}

// State holds session continuity. It is mutated only by the generation
// worker, which the session serializes, so no locking is required here.
//
// Location and VisualAnchor are locked fields: they change only when a plan
// explicitly signals a scene transition. This prevents gradual setting drift
// across many turns of casual conversation.
type State struct {
	identityProfile string
	location        string
	mood            string
	visualAnchor    string
	lastSceneAppend string
	turnID          int
	history         []ChatTurn
	historyLimit    int
}

// Snapshot is a read-only copy of the continuity fields for display surfaces.
type Snapshot struct {
	IdentityProfile string
	Location        string
	Mood            string
	VisualAnchor    string
	LastSceneAppend string
	TurnID          int
	HistoryLen      int
}

// New constructs a State with default continuity values. A non-positive
// historyLimit falls back to DefaultHistoryLimit.
func New(historyLimit int) *State {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &State{
		location:     DefaultLocation,
		mood:         sceneplan.DefaultMood,
		historyLimit: historyLimit,
	}
}

// SetIdentityProfile replaces the character backstory used in model context.
// The turn counter advances so downstream consumers can detect the change.
func (s *State) SetIdentityProfile(profile string) {
	s.identityProfile = strings.TrimSpace(profile)
	s.turnID++
}

// Apply folds a scene plan into the continuity fields. Mood and the last
// scene append update whenever supplied; location and visual anchor update
// only under an explicit scene change, and only when the plan carries a
// value for them. Apply cannot fail: every input is already coerced by the
// parser.
func (s *State) Apply(plan sceneplan.Plan) {
	if plan.Mood != "" {
		s.mood = plan.Mood
	}
	if plan.SceneAppend != "" {
		s.lastSceneAppend = plan.SceneAppend
	}
	if !plan.ChangeScene {
		return
	}
	if plan.Location != "" {
		s.location = plan.Location
	}
	if plan.VisualAnchor != "" {
		s.visualAnchor = plan.VisualAnchor
	}
}

// RecordTurn appends a completed turn and evicts the oldest beyond the bound.
// Call exactly once per completed generation, after Apply.
func (s *State) RecordTurn(userText, assistantText string, plan sceneplan.Plan) {
	s.history = append(s.history, ChatTurn{
		UserText:      strings.TrimSpace(userText),
		AssistantText: strings.TrimSpace(assistantText),
		Plan:          plan,
	})
	if len(s.history) > s.historyLimit {
		s.history = append(s.history[:0:0], s.history[len(s.history)-s.historyLimit:]...)
	}
}

// History returns a copy of the retained turns, oldest first.
func (s *State) History() []ChatTurn {
	return append([]ChatTurn(nil), s.history...)
}

// VisualAnchor returns the currently locked anchor phrase.
func (s *State) VisualAnchor() string {
	return s.visualAnchor
}

// Snapshot returns a copy of the continuity fields.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		IdentityProfile: s.identityProfile,
		Location:        s.location,
		Mood:            s.mood,
		VisualAnchor:    s.visualAnchor,
		LastSceneAppend: s.lastSceneAppend,
		TurnID:          s.turnID,
		HistoryLen:      len(s.history),
	}
}

// RenderContext produces the deterministic world-state block prepended to the
// model's instructions on every call. Pairing the locked values with the
// locking rule each turn is what makes drift a protocol violation the model
// must explicitly opt into.
func (s *State) RenderContext() string {
	identity := s.identityProfile
	if identity == "" {
		identity = "(empty)"
	}
	location := s.location
	if location == "" {
		location = "(unspecified)"
	}
	anchor := s.visualAnchor
	if anchor == "" {
		anchor = "(unspecified)"
	}

	lines := []string{
		"Identity profile: " + identity,
		fmt.Sprintf("World State (LOCKED): Location=%s. VisualAnchor=%s.", location, anchor),
		"Current location is LOCKED: " + location,
		"Current visual anchor is LOCKED: " + anchor,
		"Rule: Do not change location or visual_anchor unless change_scene=true.",
	}
	if len(s.history) > 0 {
		last := s.history[len(s.history)-1]
		lines = append(lines, fmt.Sprintf(
			"Previous turn summary: user='%s', assistant='%s', change_scene=%t, scene_append='%s'",
			last.UserText, last.AssistantText, last.Plan.ChangeScene, last.Plan.SceneAppend,
		))
	}
	return strings.Join(lines, "\n")
}
