package workflowgraph

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"faceless/internal/logging"
	"faceless/internal/prompt"
	"faceless/internal/services"
)

// ErrMissingPromptNode reports a template without the positive prompt
// marker. Everything else is optional; this one is not, because a graph
// that cannot receive the prompt text produces unrelated images silently.
var ErrMissingPromptNode = fmt.Errorf("%w: template has no %s node", services.ErrGraphTemplate, TitlePromptPositive)

// CharacterParams carries the persistent visual identity of the active
// character. IdentityProfile feeds the language model only; the patcher
// consumes the visual fields.
type CharacterParams struct {
	VisualBase      string
	IdentityProfile string
	LoraName        string
	LoraStrength    float64
}

// GenParams is one generation's sampler and model configuration. A nil
// Seed means a fresh random seed per patch.
type GenParams struct {
	Seed        *int64
	Steps       int
	CFG         float64
	SamplerName string
	Scheduler   string
	QualityTags string
	Negative    string
	Checkpoint  string
}

// PatchResult is the patched graph plus the values the patcher decided,
// recorded so the caller can persist them with the turn.
type PatchResult struct {
	Graph          Graph
	Seed           int64
	PositivePrompt string
}

// Patcher rewrites graph clones for individual generations.
type Patcher struct {
	logger *slog.Logger
}

func NewPatcher(logger *slog.Logger) *Patcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Patcher{logger: logger.With(logging.String(logging.FieldComponent, "workflowgraph"))}
}

// Patch clones the template and applies the per-turn values to the marker
// nodes. The template itself is never modified. A template missing the
// positive prompt node fails hard; missing optional markers only log.
func (p *Patcher) Patch(template Graph, character CharacterParams, appendText string, params GenParams) (*PatchResult, error) {
	graph, err := template.Clone()
	if err != nil {
		return nil, services.Wrap(services.ErrGraphTemplate, "workflowgraph", "patch", "clone template", err)
	}

	result := &PatchResult{Graph: graph}

	posID := graph.FindByTitle(TitlePromptPositive)
	if posID == "" {
		return nil, ErrMissingPromptNode
	}
	pos := graph[posID]
	base := character.VisualBase
	if base == "" {
		// Fall back to whatever the template author left in the node so a
		// characterless run still renders something coherent.
		base = pos.inputString("text")
	}
	result.PositivePrompt = prompt.Compose(params.QualityTags, base, appendText)
	pos.ensureInputs()["text"] = result.PositivePrompt

	if negID := graph.FindByTitle(TitlePromptNegative); negID == "" {
		p.logger.Warn("template has no negative prompt node", logging.String("title", TitlePromptNegative))
	} else if params.Negative != "" {
		// An empty setting keeps the template author's negative prompt.
		graph[negID].ensureInputs()["text"] = params.Negative
	}

	p.patchLora(graph, character)
	p.patchCheckpoint(graph, params.Checkpoint)
	result.Seed = p.patchSampler(graph, params)

	return result, nil
}

func (p *Patcher) patchLora(graph Graph, character CharacterParams) {
	id := graph.FindByTitle(TitleLoraCharacter)
	if id == "" || graph[id].ClassType != classLoraLoader {
		p.logger.Warn("template has no LoRA loader node", logging.String("title", TitleLoraCharacter))
		return
	}
	inputs := graph[id].ensureInputs()
	if character.LoraName == "" {
		// Keep the node wired but inert: zero strength disables it without
		// breaking the graph edges downstream.
		inputs["strength_model"] = 0.0
		inputs["strength_clip"] = 0.0
		return
	}
	inputs["lora_name"] = character.LoraName
	inputs["strength_model"] = character.LoraStrength
	inputs["strength_clip"] = character.LoraStrength
}

func (p *Patcher) patchCheckpoint(graph Graph, checkpoint string) {
	if checkpoint == "" {
		return
	}
	id := graph.FindByTitle(TitleCheckpointBase)
	if id == "" || graph[id].ClassType != classCheckpointLoader {
		p.logger.Warn("template has no checkpoint loader node", logging.String("title", TitleCheckpointBase))
		return
	}
	graph[id].ensureInputs()["ckpt_name"] = checkpoint
}

func (p *Patcher) patchSampler(graph Graph, params GenParams) int64 {
	seed := randomSeed()
	if params.Seed != nil {
		seed = *params.Seed
	}

	id := graph.FindByTitle(TitleSamplerMain)
	if id == "" {
		p.logger.Warn("template has no sampler node", logging.String("title", TitleSamplerMain))
		return seed
	}
	node := graph[id]
	if node.ClassType != classKSampler && node.ClassType != classKSamplerAdvanced {
		p.logger.Warn("sampler marker on unexpected node",
			logging.String("title", TitleSamplerMain),
			logging.String("class_type", node.ClassType))
		return seed
	}

	// Only fields the template already declares are written: KSampler
	// variants disagree on which knobs exist, and inventing inputs makes
	// ComfyUI reject the whole graph.
	inputs := node.ensureInputs()
	setIfPresent(inputs, "seed", seed)
	setIfPresent(inputs, "steps", params.Steps)
	setIfPresent(inputs, "cfg", params.CFG)
	setIfPresent(inputs, "sampler_name", params.SamplerName)
	setIfPresent(inputs, "scheduler", params.Scheduler)
	return seed
}

func setIfPresent(inputs map[string]any, key string, value any) {
	if _, ok := inputs[key]; ok {
		inputs[key] = value
	}
}

// randomSeed draws from [1, 2^31-1]. Zero is avoided because several
// sampler nodes treat it as "randomize on the server side".
func randomSeed() int64 {
	return rand.Int64N(1<<31-1) + 1
}
