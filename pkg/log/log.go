// Package log builds the logger markup writes its progress to.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLevel maps a --log-level value to a slog level. The second return
// value is false for "off".
func ParseLevel(lvl string) (slog.Level, bool, error) {
	key := strings.ToLower(lvl)
	if key == "off" {
		return 0, false, nil
	}

	level, ok := levels[key]
	if !ok {
		return 0, false, fmt.Errorf("unrecognized level: %s", lvl)
	}
	return level, true, nil
}

// New returns a text logger without timestamps writing to w.
func New(w io.Writer, lvl string) (*slog.Logger, error) {
	level, enabled, err := ParseLevel(lvl)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return slog.New(slog.DiscardHandler), nil
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})), nil
}
