package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SuccessField marks info events that report a successful outcome
const SuccessField = "success"

const successLevel = "success"

var levelColors = map[string]string{
	"debug":      "\x1b[90m",
	"info":       "\x1b[36m",
	successLevel: "\x1b[32m",
	"warn":       "\x1b[33m",
	"error":      "\x1b[31m",
	"fatal":      "\x1b[31m",
	"panic":      "\x1b[31m",
}

// Setup points the global logger at stderr. Pretty output uses the console
// writer and renders success events with their own green level tag.
func Setup(level string, pretty bool) {
	log.Logger = zerolog.New(Writer(os.Stderr, pretty)).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(ParseLevel(level))
}

// ParseLevel falls back to info for empty or unknown names
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Writer wraps out in a colored console writer when pretty is set
func Writer(out io.Writer, pretty bool) io.Writer {
	if !pretty {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:           out,
		TimeFormat:    time.TimeOnly,
		FieldsExclude: []string{SuccessField},
		FormatPrepare: func(evt map[string]any) error {
			if ok, _ := evt[SuccessField].(bool); ok {
				evt[zerolog.LevelFieldName] = successLevel
			}
			return nil
		},
		FormatLevel: formatLevel,
	}
}

func formatLevel(i any) string {
	name, _ := i.(string)
	tag := strings.ToUpper(name)
	if len(tag) > 4 {
		tag = tag[:4]
	}
	if color, ok := levelColors[name]; ok {
		return fmt.Sprintf("%s%-4s\x1b[0m", color, tag)
	}
	return fmt.Sprintf("%-4s", tag)
}

// Success starts an info-level event flagged as a success
func Success() *zerolog.Event {
	return log.Info().Bool(SuccessField, true)
}
