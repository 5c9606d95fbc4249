// Package config loads, normalizes, and validates Faceless configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY. Load is self-healing: a file with missing keys is merged
// with the defaults and rewritten in canonical form, so hand-edited configs
// from older releases keep working without manual migration.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
