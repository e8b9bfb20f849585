package zerolog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/goterm/term"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Options controls the output of the zerolog backend
type Options struct {
	Level          string
	DateTimeLayout string
	Colored        bool
	JSON           bool
	Out            io.Writer // os.Stdout when nil
}

// New builds a console or JSON zerolog logger wrapped as a logger.Logger
func New(opts Options) (*ZerologAdapter, error) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logMode, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	if opts.DateTimeLayout == "" {
		opts.DateTimeLayout = time.DateTime
	}

	if opts.JSON {
		logger := zerolog.New(out).Level(logMode).With().Timestamp().Logger()
		return NewAdapter(&logger), nil
	}

	output := zerolog.ConsoleWriter{
		Out:             out,
		NoColor:         !opts.Colored,
		TimeFormat:      opts.DateTimeLayout,
		FormatLevel:     formatLevel(opts.Colored),
		FormatMessage:   formatMessage,
		FormatCaller:    formatCaller,
		FormatTimestamp: formatTimestamp(opts.DateTimeLayout),
	}

	logger := zerolog.New(output).
		Level(logMode).
		With().
		Timestamp().
		CallerWithSkipFrameCount(3).
		Logger()

	return NewAdapter(&logger), nil
}

func formatLevel(colored bool) zerolog.Formatter {
	return func(i interface{}) string {
		levelStr, ok := i.(string)
		if !ok {
			return "[UNK]"
		}

		label, paint := levelLabel(levelStr)
		if !colored {
			return label
		}
		return paint(label)
	}
}

func levelLabel(level string) (string, func(string, ...interface{}) string) {
	switch level {
	case zerolog.LevelTraceValue:
		return "[TRC]", term.Cyanf
	case zerolog.LevelDebugValue:
		return "[DBG]", term.Cyanf
	case zerolog.LevelInfoValue:
		return "[INF]", term.Greenf
	case zerolog.LevelWarnValue:
		return "[WAR]", term.Yellowf
	case zerolog.LevelPanicValue:
		return "[PAN]", term.Redf
	case zerolog.LevelFatalValue:
		return "[FTL]", term.Redf
	case zerolog.LevelErrorValue:
		return "[ERR]", term.Redf
	default:
		return "[UNK]", term.Whitef
	}
}

func formatMessage(i interface{}) string {
	const maxSize = 80

	msg, ok := i.(string)
	if !ok || len(msg) == 0 {
		return ">"
	}

	if len(msg) > maxSize {
		msg = msg[:maxSize]
	}

	return fmt.Sprintf("> %-*s", maxSize, msg)
}

func formatCaller(i interface{}) string {
	const maxFileSize = 18
	const maxLineSize = 4

	fname, ok := i.(string)
	if !ok || len(fname) == 0 {
		return ""
	}

	caller := filepath.Base(fname)
	fileBase, line, found := strings.Cut(caller, ":")
	if !found {
		return caller
	}

	if len(fileBase) > maxFileSize {
		fileBase = fileBase[:maxFileSize]
	}
	if len(line) > maxLineSize {
		line = line[len(line)-maxLineSize:]
	}

	return fmt.Sprintf("[%-*s:%*s]", maxFileSize, fileBase, maxLineSize, line)
}

func formatTimestamp(layout string) zerolog.Formatter {
	return func(i interface{}) string {
		strTime, ok := i.(string)
		if !ok {
			return fmt.Sprintf("[%v]", i)
		}

		if ts, err := time.Parse(time.RFC3339, strTime); err == nil {
			strTime = ts.UTC().Format(layout)
		}

		return fmt.Sprintf("[%s]", strTime)
	}
}
