package history

import "time"

// Turn is one persisted chat exchange with its generation metadata.
type Turn struct {
	ID             int64
	TurnID         string
	CreatedAt      time.Time
	Provider       string
	UserText       string
	ReplyText      string
	SceneAppend    string
	Mood           string
	Location       string
	VisualAnchor   string
	ChangeScene    bool
	Seed           int64
	PositivePrompt string
	ArtifactPath   string
}
