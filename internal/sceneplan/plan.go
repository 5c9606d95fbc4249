package sceneplan

// Marker separates the in-character reply from the ScenePlan JSON block in
// raw model output. It is part of the prompt contract and must match the
// instruction text exactly.
const Marker = "---SCENEPLAN---"

const (
	// DefaultReply is substituted when the model produced no usable reply text.
	DefaultReply = "..."
	// DefaultSceneAppend is the canonical "no visual change" phrase used when
	// the model supplied no scene description.
	DefaultSceneAppend = "same scene, subtle natural variation"
	// DefaultMood is the mood applied when the model supplied none.
	DefaultMood = "neutral"
)

// Plan is the structured scene record extracted from one model response.
// Reply and SceneAppend are never empty; Location and VisualAnchor are only
// meaningful when ChangeScene is true.
type Plan struct {
	Reply        string
	SceneAppend  string
	Mood         string
	Location     string
	VisualAnchor string
	ChangeScene  bool
}

// Default returns a Plan with every field at its fallback value.
func Default() Plan {
	return Plan{
		Reply:       DefaultReply,
		SceneAppend: DefaultSceneAppend,
		Mood:        DefaultMood,
	}
}
