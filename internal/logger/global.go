package logger

import (
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type globalFactory struct {
	sync.Mutex
	config                  GlobalConfig
	loggers                 map[string]*ContextLogger
	context                 Context
	consoleTimeFormat       string
	callerSkipFrames        int // how many frames to skip to get real caller. Not meant to be changed by callers.
	packageNameResolver     *PackageNameResolver
	nonAlphaNumericRegex    *regexp.Regexp
	globalLoggerInitialized bool
}

// Singleton for managing application wide logging.
var globalFactoryImpl *globalFactory

// SetContext sets context for all loggers, eg the address of the node administrator.
func SetContext(key string, value interface{}) {
	globalFactoryImpl.Lock()
	defer globalFactoryImpl.Unlock()
	globalFactoryImpl.context[key] = value
	globalFactoryImpl.updateAllLoggers()
}

// ClearContext will clear a context key from all loggers
func ClearContext(key string) {
	globalFactoryImpl.Lock()
	defer globalFactoryImpl.Unlock()
	delete(globalFactoryImpl.context, key)
	globalFactoryImpl.updateAllLoggers()
}

// CreateForPackage creates logger named after the caller package.
func CreateForPackage() Logger {
	return Create(globalFactoryImpl.packageNameResolver.PackageName())
}

// Create creates custom named logger
func Create(name string) Logger {
	return globalFactoryImpl.create(name)
}

// UpdateGlobalConfig updates global config and updates all loggers accordingly.
func UpdateGlobalConfig(config GlobalConfig) {
	globalFactoryImpl.Lock()
	defer globalFactoryImpl.Unlock()
	globalFactoryImpl.updateFromConfig(config)
}

// UpdateGlobalConfigFromFile reads the file and parses it as YAML. Global logger configuration is updated accordingly.
// In case of an error, logger won't be updated.
func UpdateGlobalConfigFromFile(fileName string) error {
	conf, err := loadGlobalConfigFromFile(fileName)
	if err != nil {
		return err
	}
	UpdateGlobalConfig(conf)
	return nil
}

// InitializeGlobalLogger initializes global logger with default configuration if it hasn't been initialized already.
func InitializeGlobalLogger() {
	globalFactoryImpl.Lock()
	defer globalFactoryImpl.Unlock()
	if !globalFactoryImpl.globalLoggerInitialized {
		globalFactoryImpl.updateFromConfig(developerConfiguration())
	}
}

func (gf *globalFactory) updateFromConfig(config GlobalConfig) {
	newWriter := config.Writer != nil && config.Writer != gf.config.Writer
	updateOutputFormat := newWriter ||
		!gf.globalLoggerInitialized ||
		gf.config.ConsoleFormat != config.ConsoleFormat ||
		gf.config.ShowCaller != config.ShowCaller

	if newWriter {
		gf.config.Writer = config.Writer
	}
	gf.config.DefaultLevel = config.DefaultLevel
	gf.config.PackageLevels = config.PackageLevels
	gf.config.ConsoleFormat = config.ConsoleFormat
	gf.config.ShowCaller = config.ShowCaller

	if updateOutputFormat {
		gf.updateOutputFormat()
	}
	if config.TimeLocation != "" {
		gf.updateTimeLocation(config.TimeLocation)
	}
	gf.updateAllLoggers()
}

func (gf *globalFactory) updateTimeLocation(location string) {
	loc, err := time.LoadLocation(location)
	if err != nil {
		loc, _ = time.LoadLocation(defaultTimeLocation)
	}
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().In(loc)
	}
}

// updateOutputFormat replaces the zerolog global logger, loggers created before pick it up on update.
func (gf *globalFactory) updateOutputFormat() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	var newGlobalLogger zerolog.Logger
	if gf.config.ConsoleFormat {
		newGlobalLogger = zerolog.New(zerolog.ConsoleWriter{
			Out:          gf.config.Writer,
			TimeFormat:   gf.consoleTimeFormat,
			FormatCaller: consoleFormatCallerLastTwoDirs,
		}).With().Timestamp().Logger()
	} else {
		newGlobalLogger = zerolog.New(gf.config.Writer).With().Timestamp().Logger()
	}
	if gf.config.ShowCaller {
		newGlobalLogger = newGlobalLogger.With().CallerWithSkipFrameCount(gf.callerSkipFrames).Logger()
	}
	log.Logger = newGlobalLogger
	gf.globalLoggerInitialized = true
}

func (gf *globalFactory) updateAllLoggers() {
	for name, logger := range gf.loggers {
		logger.update(gf.loggerLevel(name), gf.context)
	}
}

func (gf *globalFactory) create(name string) Logger {
	gf.Lock()
	defer gf.Unlock()

	normName := gf.normalizeName(name)
	if logger, ok := gf.loggers[normName]; ok {
		return logger
	}
	// configuration can specify the log levels based on logger names, each package
	// is expected to create one named after the package
	cl := newContextLogger(gf.loggerLevel(normName), gf.context)
	gf.loggers[normName] = cl
	return cl
}

func (gf *globalFactory) normalizeName(name string) string {
	return gf.nonAlphaNumericRegex.ReplaceAllString(name, "_")
}

func (gf *globalFactory) loggerLevel(loggerName string) LogLevel {
	if level, ok := gf.config.PackageLevels[loggerName]; ok {
		return level
	}
	return gf.config.DefaultLevel
}
