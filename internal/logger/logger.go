package logger

import (
	"log/slog"
	"os"
)

var levelVar = new(slog.LevelVar)

// L is the process-wide structured logger. All output is JSON on stdout.
var L = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: levelVar}))

// SetLevel configures the global log level (debug, info, warn, error).
// Unknown values fall back to info.
func SetLevel(lvl string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(lvl)); err != nil {
		l = slog.LevelInfo
	}
	levelVar.Set(l)
}
