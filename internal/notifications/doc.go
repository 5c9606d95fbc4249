// Package notifications delivers generation events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled, so the session never branches on whether push is enabled.
//
// Extend this package if you need alternative transports; all session code
// depends only on the simple Service interface.
package notifications
