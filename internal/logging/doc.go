// Package logging constructs the slog loggers used across faceless and
// provides shared attribute helpers so components log consistent field names.
package logging
