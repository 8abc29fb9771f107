package testutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/projectplatec/platec/core"
)

type LogEntry struct {
	Level   string
	Message string
	Args    []interface{}
}

// Logger records every entry instead of printing it.
type Logger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger { return new(Logger) }

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Message: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

// Levels returns the entries logged at level.
func (l *Logger) Levels(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var entries []LogEntry
	for _, e := range l.Entries {
		if e.Level == level {
			entries = append(entries, e)
		}
	}
	return entries
}

// Contains reports whether any entry message or argument mentions s.
func (l *Logger) Contains(s string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.Entries {
		if strings.Contains(e.Message, s) {
			return true
		}
		for _, arg := range e.Args {
			if strings.Contains(fmt.Sprintf("%+v", arg), s) {
				return true
			}
		}
	}
	return false
}
