// Package daemon assembles the long-running process: config, logging,
// providers, image backend, history store, and the chat session. It
// enforces single-instance execution with a file lock so two daemons
// never share the image backend queue or the history database.
package daemon
