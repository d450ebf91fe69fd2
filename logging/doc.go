// Package logging assembles the slog loggers used by every chordrnn stage.
//
// The console format is a compact single-line handler meant for watching a
// training run; json emits one object per line for machine consumption.
// Progress bars for long extraction loops live here too so that commands
// never draw a bar into a non-terminal stream.
package logging
