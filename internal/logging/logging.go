// Package logging is a small leveled logger over the standard log package.
// Messages keep the "component key=value" register used across the tool.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

type Level int

const (
	Prefix        = "[wintec-ng] "
	ErrorPrefix   = "[error] "
	WarningPrefix = "[warn] "
	InfoPrefix    = "[info] "
	DebugPrefix   = "[debug] "
	HelpLevels    = "Must be one of: error, warning, info, debug."
)

const (
	ErrorLevel Level = iota
	WarningLevel
	InfoLevel
	DebugLevel
)

var levelNames = map[string]Level{
	"error":   ErrorLevel,
	"warning": WarningLevel,
	"warn":    WarningLevel,
	"info":    InfoLevel,
	"debug":   DebugLevel,
}

type Logger struct {
	level Level
	*log.Logger
}

var std = &Logger{
	level:  InfoLevel,
	Logger: log.New(os.Stderr, Prefix, log.LstdFlags),
}

// ParseLevel maps a level name to its Level.
func ParseLevel(s string) (Level, error) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, errors.New("wrong log level " + fmt.Sprintf("%q", s) + ". " + HelpLevels)
	}
	return l, nil
}

func SetLevel(s string) error {
	l, err := ParseLevel(s)
	if err != nil {
		return err
	}
	std.level = l
	return nil
}

// Init redirects output and sets the level. An invalid level keeps the
// current one and is reported.
func Init(out io.Writer, level string) error {
	std.SetOutput(out)
	return SetLevel(level)
}

// Enabled reports whether messages at l are written.
func Enabled(l Level) bool { return std.level >= l }

func Error(format string, v ...any) { logf(ErrorLevel, ErrorPrefix, format, v...) }

func Warning(format string, v ...any) { logf(WarningLevel, WarningPrefix, format, v...) }

func Info(format string, v ...any) { logf(InfoLevel, InfoPrefix, format, v...) }

func Debug(format string, v ...any) { logf(DebugLevel, DebugPrefix, format, v...) }

func logf(l Level, prefix, format string, v ...any) {
	if std.level >= l {
		std.Println(prefix + fmt.Sprintf(format, v...))
	}
}
