package ipc

// ChatRequest submits one user message for a full turn.
type ChatRequest struct {
	Text string `json:"text"`
}

// ChatResponse carries the completed turn back to the client.
type ChatResponse struct {
	TurnID         string `json:"turn_id"`
	Provider       string `json:"provider"`
	Reply          string `json:"reply"`
	Mood           string `json:"mood"`
	Location       string `json:"location"`
	VisualAnchor   string `json:"visual_anchor"`
	ChangeScene    bool   `json:"change_scene"`
	SceneAppend    string `json:"scene_append"`
	Seed           int64  `json:"seed"`
	PositivePrompt string `json:"positive_prompt"`
	ArtifactPath   string `json:"artifact_path"`
	ElapsedMillis  int64  `json:"elapsed_millis"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/session status information.
type StatusResponse struct {
	Running         bool   `json:"running"`
	Busy            bool   `json:"busy"`
	Provider        string `json:"provider"`
	IdentityProfile string `json:"identity_profile"`
	Location        string `json:"location"`
	Mood            string `json:"mood"`
	VisualAnchor    string `json:"visual_anchor"`
	TurnID          int    `json:"turn_id"`
	HistoryLen      int    `json:"history_len"`
	LockPath        string `json:"lock_path"`
	DBPath          string `json:"db_path"`
	PID             int    `json:"pid"`
}

// HistoryRequest fetches recent persisted turns.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// TurnSummary is the persisted-turn DTO for IPC callers.
type TurnSummary struct {
	TurnID       string `json:"turn_id"`
	CreatedAt    string `json:"created_at"`
	Provider     string `json:"provider"`
	UserText     string `json:"user_text"`
	ReplyText    string `json:"reply_text"`
	Location     string `json:"location"`
	Mood         string `json:"mood"`
	ChangeScene  bool   `json:"change_scene"`
	Seed         int64  `json:"seed"`
	ArtifactPath string `json:"artifact_path"`
}

// HistoryResponse contains recent turns, oldest first.
type HistoryResponse struct {
	Turns []TurnSummary `json:"turns"`
}

// SetCharacterRequest swaps the active character.
type SetCharacterRequest struct {
	VisualBase      string  `json:"visual_base"`
	IdentityProfile string  `json:"identity_profile"`
	LoraName        string  `json:"lora_name"`
	LoraStrength    float64 `json:"lora_strength"`
}

// SetCharacterResponse acknowledges the swap.
type SetCharacterResponse struct {
	Updated bool `json:"updated"`
}

// SetGenParamsRequest swaps the sampler configuration. A nil Seed means
// a fresh random seed per turn.
type SetGenParamsRequest struct {
	Seed        *int64  `json:"seed"`
	Steps       int     `json:"steps"`
	CFG         float64 `json:"cfg"`
	SamplerName string  `json:"sampler_name"`
	Scheduler   string  `json:"scheduler"`
	QualityTags string  `json:"quality_tags"`
	Negative    string  `json:"negative"`
	Checkpoint  string  `json:"checkpoint"`
}

// SetGenParamsResponse acknowledges the swap.
type SetGenParamsResponse struct {
	Updated bool `json:"updated"`
}

// CatalogsRequest fetches the image backend model catalogs.
type CatalogsRequest struct{}

// CatalogsResponse lists the available LoRA and checkpoint files.
type CatalogsResponse struct {
	Loras       []string `json:"loras"`
	Checkpoints []string `json:"checkpoints"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// StopRequest shuts the daemon down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
