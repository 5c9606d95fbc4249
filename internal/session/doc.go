// Package session orchestrates one full chat turn: language model call,
// scene plan parsing, workflow patching, image generation, and state
// finalization. A session owns exactly one generation slot; concurrency
// policy (reject or queue) is configuration, not code structure.
package session
