package prompt

import "strings"

// FallbackPositive is returned when every prompt fragment is empty.
const FallbackPositive = "high quality, detailed"

// Compose joins the quality tags, the character visual base, and the scene
// text into the final positive prompt. Order is fixed: earlier tokens carry
// more weight in the image model, so quality and identity must precede the
// per-turn scene delta.
func Compose(quality, visualBase, sceneAppend string) string {
	parts := make([]string, 0, 3)
	for _, fragment := range []string{quality, visualBase, sceneAppend} {
		if trimmed := strings.TrimSpace(fragment); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return FallbackPositive
	}
	return strings.Join(parts, ", ")
}
