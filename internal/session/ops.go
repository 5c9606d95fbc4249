package session

import (
	"context"

	"faceless/internal/history"
	"faceless/internal/logging"
	"faceless/internal/sceneplan"
	"faceless/internal/services"
	"faceless/internal/workflowgraph"
	"faceless/internal/worldstate"
)

// Status is the live session view for display surfaces.
type Status struct {
	Busy            bool
	Provider        string
	IdentityProfile string
	Location        string
	Mood            string
	VisualAnchor    string
	TurnID          int
	HistoryLen      int
}

// Status reports the current continuity fields and busy state.
func (s *Session) Status() Status {
	snapshot := s.world.Snapshot()
	return Status{
		Busy:            s.Busy(),
		Provider:        s.primary.Name(),
		IdentityProfile: snapshot.IdentityProfile,
		Location:        snapshot.Location,
		Mood:            snapshot.Mood,
		VisualAnchor:    snapshot.VisualAnchor,
		TurnID:          snapshot.TurnID,
		HistoryLen:      snapshot.HistoryLen,
	}
}

// History returns up to limit persisted turns, oldest first.
func (s *Session) History(ctx context.Context, limit int) ([]history.Turn, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Recent(ctx, limit)
}

// SetCharacter swaps the active character. Takes effect on the next turn.
func (s *Session) SetCharacter(character workflowgraph.CharacterParams) {
	s.mu.Lock()
	s.character = character
	s.mu.Unlock()
	s.world.SetIdentityProfile(character.IdentityProfile)
	s.logger.Info("character updated", logging.String("lora", character.LoraName))
}

// SetGenParams swaps the sampler configuration. Takes effect on the next turn.
func (s *Session) SetGenParams(params workflowgraph.GenParams) {
	s.mu.Lock()
	s.genParams = params
	s.mu.Unlock()
	s.logger.Info("generation params updated",
		logging.Int("steps", params.Steps),
		logging.String("sampler", params.SamplerName))
}

// Character returns the active character parameters.
func (s *Session) Character() workflowgraph.CharacterParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.character
}

// GenParams returns a copy of the active generation parameters.
func (s *Session) GenParams() workflowgraph.GenParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotGenParamsLocked()
}

// Catalogs lists the LoRA and checkpoint files the image backend offers.
func (s *Session) Catalogs(ctx context.Context) (loras, checkpoints []string) {
	return s.backend.Loras(ctx), s.backend.Checkpoints(ctx)
}

// TestNotification sends a test push through the configured notifier.
func (s *Session) TestNotification(ctx context.Context) error {
	return s.notifier.TestNotification(ctx)
}

// RestoreHistory replays persisted turns into the in-memory world state.
// Stored rows hold post-apply continuity values, so each replays as an
// explicit scene change.
func (s *Session) RestoreHistory(ctx context.Context, limit int) error {
	if s.store == nil {
		return nil
	}
	turns, err := s.store.Recent(ctx, limit)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "session", "restore", "load persisted turns", err)
	}
	for _, turn := range turns {
		plan := sceneplan.Plan{
			Reply:        turn.ReplyText,
			SceneAppend:  turn.SceneAppend,
			Mood:         turn.Mood,
			Location:     turn.Location,
			VisualAnchor: turn.VisualAnchor,
			ChangeScene:  true,
		}
		s.world.Apply(plan)
		recorded := plan
		recorded.ChangeScene = turn.ChangeScene
		s.world.RecordTurn(turn.UserText, turn.ReplyText, recorded)
	}
	if len(turns) > 0 {
		s.logger.Info("history restored", logging.Int("turns", len(turns)))
	}
	return nil
}

// WorldSnapshot exposes the continuity fields for rendering.
func (s *Session) WorldSnapshot() worldstate.Snapshot {
	return s.world.Snapshot()
}
