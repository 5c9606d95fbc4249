// Package worldstate tracks cross-turn continuity for a chat session: the
// locked location/mood/visual-anchor tuple, the bounded turn history, and the
// context block prepended to every language-model call.
package worldstate
