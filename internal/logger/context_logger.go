package logger

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type (
	ContextLogger struct {
		mu         sync.RWMutex
		zeroLogger *zerolog.Logger
		level      LogLevel
		context    Context
	}

	Context map[string]interface{}
)

// newContextLogger creates the logger, but doesn't initialize it yet.
// This is needed, so loggers could be created in var phase. But the global log configuration added later.
func newContextLogger(level LogLevel, context Context) *ContextLogger {
	return &ContextLogger{
		level:   level,
		context: context,
	}
}

func (c *ContextLogger) update(level LogLevel, context Context) {
	zeroLogger := log.Level(toZeroLevel(level))
	for key, value := range context {
		zeroLogger = zeroLogger.With().Interface(key, value).Logger()
	}
	c.mu.Lock()
	c.level = level
	c.context = context
	c.zeroLogger = &zeroLogger
	c.mu.Unlock()
}

func (c *ContextLogger) logger() *zerolog.Logger {
	c.mu.RLock()
	zl := c.zeroLogger
	c.mu.RUnlock()
	if zl != nil {
		return zl
	}
	InitializeGlobalLogger()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.zeroLogger == nil {
		// logger was created and initialized before the global factory knew about it
		l := log.Level(toZeroLevel(c.level))
		return &l
	}
	return c.zeroLogger
}

func (c *ContextLogger) Trace(format string, args ...interface{}) {
	logMessage(c.logger().Trace(), format, args)
}

func (c *ContextLogger) Debug(format string, args ...interface{}) {
	logMessage(c.logger().Debug(), format, args)
}

func (c *ContextLogger) Info(format string, args ...interface{}) {
	logMessage(c.logger().Info(), format, args)
}

func (c *ContextLogger) Warning(format string, args ...interface{}) {
	logMessage(c.logger().Warn(), format, args)
}

func (c *ContextLogger) Error(format string, args ...interface{}) {
	logMessage(c.logger().Error(), format, args)
}

// ChangeLevel changes the level of the context logger.
func (c *ContextLogger) ChangeLevel(newLevel LogLevel) {
	c.mu.RLock()
	context := c.context
	c.mu.RUnlock()
	c.update(newLevel, context)
}

func logMessage(event *zerolog.Event, format string, args []interface{}) {
	if len(args) == 0 {
		event.Msg(format)
	} else {
		event.Msgf(format, args...)
	}
}

func toZeroLevel(lvl LogLevel) zerolog.Level {
	switch lvl {
	case NONE:
		return zerolog.Disabled
	case TRACE:
		return zerolog.TraceLevel
	case DEBUG:
		return zerolog.DebugLevel
	case INFO:
		return zerolog.InfoLevel
	case WARNING:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	default:
		panic(fmt.Sprintf("unknown level: %d", lvl))
	}
}
