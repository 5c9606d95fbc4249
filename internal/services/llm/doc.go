// Package llm abstracts the chat-completion providers behind a single
// Generate call. Providers are constructed once at daemon start from the
// configured credentials; switching providers is a config change, not a
// code path.
package llm
