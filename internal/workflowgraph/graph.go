package workflowgraph

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Marker node titles recognized by the patcher.
const (
	TitlePromptPositive = "__PROMPT_POS__"
	TitlePromptNegative = "__PROMPT_NEG__"
	TitleLoraCharacter  = "__LORA_CHARACTER__"
	TitleCheckpointBase = "__CHECKPOINT_BASE__"
	TitleSamplerMain    = "__SAMPLER_MAIN__"
)

// Node kinds the patcher is willing to touch for the optional markers.
const (
	classLoraLoader       = "LoraLoader"
	classCheckpointLoader = "CheckpointLoaderSimple"
	classKSampler         = "KSampler"
	classKSamplerAdvanced = "KSamplerAdvanced"
)

// NodeMeta carries the authoring metadata attached to a node.
type NodeMeta struct {
	Title string `json:"title"`
}

// Node is one entry of the ComfyUI API-format graph.
type Node struct {
	ClassType string         `json:"class_type"`
	Inputs    map[string]any `json:"inputs"`
	Meta      *NodeMeta      `json:"_meta,omitempty"`
}

// Graph maps node id to node record. It is treated as a template: loaded
// once at startup, deep-copied for every patch.
type Graph map[string]*Node

// Parse decodes a graph from template bytes.
func Parse(data []byte) (Graph, error) {
	var graph Graph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("parse workflow template: %w", err)
	}
	if len(graph) == 0 {
		return nil, errors.New("parse workflow template: no nodes")
	}
	return graph, nil
}

// Load reads and parses a graph template file.
func Load(path string) (Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow template: %w", err)
	}
	return Parse(data)
}

// Clone returns a deep copy of the graph. Patching always operates on a
// clone so callers never observe template mutation.
func (g Graph) Clone() (Graph, error) {
	encoded, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("clone workflow graph: %w", err)
	}
	var clone Graph
	if err := json.Unmarshal(encoded, &clone); err != nil {
		return nil, fmt.Errorf("clone workflow graph: %w", err)
	}
	return clone, nil
}

// FindByTitle returns the id of the node carrying the given _meta.title, or
// "" when absent.
func (g Graph) FindByTitle(title string) string {
	for id, node := range g {
		if node == nil || node.Meta == nil {
			continue
		}
		if node.Meta.Title == title {
			return id
		}
	}
	return ""
}

func (n *Node) ensureInputs() map[string]any {
	if n.Inputs == nil {
		n.Inputs = make(map[string]any)
	}
	return n.Inputs
}

func (n *Node) inputString(key string) string {
	if n == nil || n.Inputs == nil {
		return ""
	}
	value, _ := n.Inputs[key].(string)
	return value
}
