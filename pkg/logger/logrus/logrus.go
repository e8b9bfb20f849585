package logrus

import (
	"io"
	"os"

	"github.com/raykavin/greenscan/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Options controls the output of the logrus backend
type Options struct {
	Level   string
	Colored bool
	JSON    bool
	Out     io.Writer // os.Stdout when nil
}

// LogrusAdapter exposes a logrus entry as a logger.Logger
type LogrusAdapter struct {
	entry *logrus.Entry
}

// New builds a logrus logger from the options
func New(opts Options) (*LogrusAdapter, error) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetOutput(os.Stdout)
	if opts.Out != nil {
		log.SetOutput(opts.Out)
	}

	if opts.JSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   opts.Colored,
			DisableColors: !opts.Colored,
		})
	}

	return NewAdapter(logrus.NewEntry(log)), nil
}

func NewAdapter(entry *logrus.Entry) *LogrusAdapter {
	return &LogrusAdapter{entry: entry}
}

func (l *LogrusAdapter) WithField(key string, value any) logger.Logger {
	return &LogrusAdapter{l.entry.WithField(key, value)}
}

func (l *LogrusAdapter) WithFields(fields map[string]any) logger.Logger {
	return &LogrusAdapter{l.entry.WithFields(fields)}
}

func (l *LogrusAdapter) WithError(err error) logger.Logger {
	return &LogrusAdapter{l.entry.WithError(err)}
}

func (l *LogrusAdapter) Debug(args ...any) { l.entry.Debug(args...) }
func (l *LogrusAdapter) Info(args ...any) { l.entry.Info(args...) }
func (l *LogrusAdapter) Warn(args ...any) { l.entry.Warn(args...) }
func (l *LogrusAdapter) Error(args ...any) { l.entry.Error(args...) }
func (l *LogrusAdapter) Fatal(args ...any) { l.entry.Fatal(args...) }

func (l *LogrusAdapter) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *LogrusAdapter) Infof(format string, args ...any) { l.entry.Infof(format, args...) }
func (l *LogrusAdapter) Warnf(format string, args ...any) { l.entry.Warnf(format, args...) }
func (l *LogrusAdapter) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }

// SetLevel implements logger.Logger. It changes the level of the shared logrus logger.
func (l *LogrusAdapter) SetLevel(level logger.Level) {
	switch level {
	case logger.TraceLevel:
		l.entry.Logger.SetLevel(logrus.TraceLevel)
	case logger.DebugLevel:
		l.entry.Logger.SetLevel(logrus.DebugLevel)
	case logger.InfoLevel:
		l.entry.Logger.SetLevel(logrus.InfoLevel)
	case logger.WarnLevel:
		l.entry.Logger.SetLevel(logrus.WarnLevel)
	case logger.ErrorLevel:
		l.entry.Logger.SetLevel(logrus.ErrorLevel)
	case logger.FatalLevel:
		l.entry.Logger.SetLevel(logrus.FatalLevel)
	case logger.PanicLevel, logger.Disabled:
		l.entry.Logger.SetLevel(logrus.PanicLevel)
	}
}

// GetLevel implements logger.Logger.
func (l *LogrusAdapter) GetLevel() logger.Level {
	switch l.entry.Logger.GetLevel() {
	case logrus.TraceLevel:
		return logger.TraceLevel
	case logrus.DebugLevel:
		return logger.DebugLevel
	case logrus.InfoLevel:
		return logger.InfoLevel
	case logrus.WarnLevel:
		return logger.WarnLevel
	case logrus.ErrorLevel:
		return logger.ErrorLevel
	case logrus.FatalLevel:
		return logger.FatalLevel
	case logrus.PanicLevel:
		return logger.PanicLevel
	}
	return logger.NoLevel
}
