package sceneplan

import (
	"encoding/json"
	"strings"
)

// Parse extracts a Plan from raw model output. Text before the marker is the
// candidate reply; text after it is scanned for balanced JSON objects, tried
// last to first. Absent a marker or a parseable object, every field falls
// back to its default and the reply is sourced from the whole input.
func Parse(raw string) Plan {
	plan := Default()
	if strings.TrimSpace(raw) == "" {
		return plan
	}

	head, tail, found := strings.Cut(raw, Marker)
	if reply := strings.TrimSpace(head); reply != "" {
		plan.Reply = reply
	}
	if !found {
		return plan
	}

	data := parseLastObject(tail)
	if data == nil {
		return plan
	}

	if reply, ok := stringField(data, "reply"); ok {
		plan.Reply = reply
	}
	if sceneAppend, ok := stringField(data, "scene_append"); ok {
		plan.SceneAppend = sceneAppend
	}
	if mood, ok := stringField(data, "mood"); ok {
		plan.Mood = mood
	}
	if location, ok := stringField(data, "location"); ok {
		plan.Location = location
	}
	if anchor, ok := stringField(data, "visual_anchor"); ok {
		plan.VisualAnchor = anchor
	}
	// Anything other than a JSON true coerces to false.
	changeScene, _ := data["change_scene"].(bool)
	plan.ChangeScene = changeScene

	return plan
}

// parseLastObject tries the balanced {...} blocks in text last to first and
// returns the first one that decodes to a JSON object. The ordering is
// deliberate: stray JSON-like fragments in free-form reasoning text come
// before the final, most likely complete block.
func parseLastObject(text string) map[string]any {
	blocks := findJSONBlocks(text)
	for i := len(blocks) - 1; i >= 0; i-- {
		var data map[string]any
		if err := json.Unmarshal([]byte(blocks[i]), &data); err != nil {
			continue
		}
		if data != nil {
			return data
		}
	}
	return nil
}

// findJSONBlocks scans text for top-level balanced brace blocks. Braces
// inside string literals must not perturb the depth counter, so quotes
// toggle a string mode with backslash-escape awareness.
func findJSONBlocks(text string) []string {
	var blocks []string
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				blocks = append(blocks, text[start:i+1])
				start = -1
			}
		}
	}
	return blocks
}

func stringField(data map[string]any, key string) (string, bool) {
	value, ok := data[key].(string)
	if !ok {
		return "", false
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}
