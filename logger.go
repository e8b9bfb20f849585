package greenscan

import (
	"fmt"
	"io"

	"github.com/raykavin/greenscan/pkg/logger"
	"github.com/raykavin/greenscan/pkg/logger/logrus"
	"github.com/raykavin/greenscan/pkg/logger/zerolog"
)

const defaultLogTimeFormat = "2006-01-02 15:04:05"

// LogOptions selects the logging backend and its output
type LogOptions struct {
	Backend string // zerolog (default) or logrus
	Level   string
	Colored bool
	JSON    bool
	Out     io.Writer
}

// NewLogger creates the logger of the selected backend
func NewLogger(opts LogOptions) (logger.Logger, error) {
	switch opts.Backend {
	case "", "zerolog":
		log, err := zerolog.New(zerolog.Options{
			Level:          opts.Level,
			DateTimeLayout: defaultLogTimeFormat,
			Colored:        opts.Colored,
			JSON:           opts.JSON,
			Out:            opts.Out,
		})
		if err != nil {
			return nil, err
		}
		return log, nil
	case "logrus":
		log, err := logrus.New(logrus.Options{
			Level:   opts.Level,
			Colored: opts.Colored,
			JSON:    opts.JSON,
			Out:     opts.Out,
		})
		if err != nil {
			return nil, err
		}
		return log, nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}
}
