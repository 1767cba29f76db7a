package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

const defaultTimeLocation = "Local"

// GlobalConfig is the configuration shared by all loggers of the process.
type GlobalConfig struct {
	DefaultLevel LogLevel
	// log levels by logger (package) name, overrides DefaultLevel
	PackageLevels map[string]LogLevel
	Writer        io.Writer
	ConsoleFormat bool
	ShowCaller    bool
	TimeLocation  string
}

func init() {
	initializeGlobalFactory()
}

func initializeGlobalFactory() {
	globalFactoryImpl = &globalFactory{
		loggers:              make(map[string]*ContextLogger),
		context:              make(Context),
		consoleTimeFormat:    "15:04:05.000000",
		callerSkipFrames:     4, // This depends on the logger code, not meant to be changed by callers.
		packageNameResolver:  &PackageNameResolver{BasePackage: "alphabill-org/assetswap"},
		nonAlphaNumericRegex: regexp.MustCompile(`[^a-zA-Z0-9]`),
	}
}

func developerConfiguration() GlobalConfig {
	return GlobalConfig{
		DefaultLevel:  DEBUG,
		PackageLevels: map[string]LogLevel{},
		Writer:        os.Stdout,
		ConsoleFormat: true,
		ShowCaller:    true,
		TimeLocation:  defaultTimeLocation,
	}
}

func loadGlobalConfigFromFile(fileName string) (GlobalConfig, error) {
	type loggerConfiguration struct {
		DefaultLevel  string            `yaml:"defaultLevel"`
		PackageLevels map[string]string `yaml:"packageLevels"`
		OutputPath    string            `yaml:"outputPath"`
		ConsoleFormat bool              `yaml:"consoleFormat"`
		ShowCaller    bool              `yaml:"showCaller"`
		TimeLocation  string            `yaml:"timeLocation"`
	}

	yamlFile, err := os.ReadFile(filepath.Clean(fileName))
	if err != nil {
		return GlobalConfig{}, fmt.Errorf("failed to read logger config file: %w", err)
	}
	config := &loggerConfiguration{}
	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return GlobalConfig{}, fmt.Errorf("failed to unmarshal logger config: %w", err)
	}

	globalConfig := GlobalConfig{
		DefaultLevel:  LevelFromString(config.DefaultLevel),
		PackageLevels: make(map[string]LogLevel, len(config.PackageLevels)),
		Writer:        os.Stdout,
		ConsoleFormat: config.ConsoleFormat,
		ShowCaller:    config.ShowCaller,
		TimeLocation:  config.TimeLocation,
	}
	if config.OutputPath != "" {
		file, err := os.OpenFile(config.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // -rw-------
		if err != nil {
			return GlobalConfig{}, fmt.Errorf("failed to open log file: %w", err)
		}
		globalConfig.Writer = file
	}
	for k, v := range config.PackageLevels {
		globalConfig.PackageLevels[k] = LevelFromString(v)
	}
	return globalConfig, nil
}
