// Package history persists finished chat turns and their generated
// images. The SQLite rows are the durable record; the bounded in-memory
// history inside worldstate is rebuilt from here on daemon restart.
package history
