package logger

import "strings"

type Logger interface {
	Trace(format string, args ...interface{})
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
	// Changes logger level to the newLevel
	ChangeLevel(newLevel LogLevel)
}

type LogLevel uint

const (
	NONE LogLevel = iota
	ERROR
	WARNING
	INFO
	DEBUG
	TRACE
)

var levelNames = map[LogLevel]string{
	NONE:    "NONE",
	ERROR:   "ERROR",
	WARNING: "WARNING",
	INFO:    "INFO",
	DEBUG:   "DEBUG",
	TRACE:   "TRACE",
}

// LevelFromString parses the level name (case insensitive). Unknown names give DEBUG.
func LevelFromString(s string) LogLevel {
	s = strings.ToUpper(strings.TrimSpace(s))
	for lvl, name := range levelNames {
		if name == s {
			return lvl
		}
	}
	return DEBUG
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}
