// Package sceneplan extracts a structured scene description from raw
// language-model output. The model is asked to emit in-character text, a
// literal marker line, and a JSON object; none of that can be trusted to be
// well formed, so parsing is total: every field falls back independently and
// Parse never fails.
package sceneplan
