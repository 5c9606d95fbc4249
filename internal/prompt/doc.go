// Package prompt assembles the image-positive prompt string and the
// language-model system prompt.
package prompt
