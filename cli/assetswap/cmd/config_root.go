package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alphabill-org/assetswap/internal/logger"
)

type baseConfiguration struct {
	// The asset swap home directory
	HomeDir string
	// Configuration file URL. If it's relative, then it's relative from the HomeDir.
	CfgFile string
	// Logger configuration file URL.
	LogCfgFile string
}

const (
	// The prefix for configuration keys inside environment.
	envPrefix = "ASWP"
	// The default name for config file.
	defaultConfigFile = "config.props"
	// the default asset swap directory.
	defaultSwapDir = ".assetswap"
	// The default logger configuration file name.
	defaultLoggerConfigFile = "logger-config.yaml"
	// The configuration key for home directory.
	keyHome = "home"
	// The configuration key for config file name.
	keyConfig = "config"

	flagNameLoggerCfgFile = "logger-config"
)

func (r *baseConfiguration) addConfigurationFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&r.HomeDir, keyHome, "", fmt.Sprintf("set the ASWP_HOME for this invocation (default is %s)", swapHomeDir()))
	cmd.PersistentFlags().StringVar(&r.CfgFile, keyConfig, "", fmt.Sprintf("config file URL (default is $ASWP_HOME/%s)", defaultConfigFile))
	cmd.PersistentFlags().StringVar(&r.LogCfgFile, flagNameLoggerCfgFile, defaultLoggerConfigFile, "logger config file URL. Considered absolute if starts with '/'. Otherwise relative from $ASWP_HOME.")
}

func (r *baseConfiguration) initConfigFileLocation() {
	// Home directory and config file are special configuration values as these are used for loading in rest of the configuration.
	// Home dir is loaded from command line argument. If it's not set, then from env. If that's not set, then default is used.
	if r.HomeDir == "" {
		r.HomeDir = os.Getenv(envKey(keyHome))
		if r.HomeDir == "" {
			r.HomeDir = swapHomeDir()
		}
	}
	if r.CfgFile == "" {
		r.CfgFile = os.Getenv(envKey(keyConfig))
		if r.CfgFile == "" {
			r.CfgFile = defaultConfigFile
		}
	}
	if !filepath.IsAbs(r.CfgFile) {
		r.CfgFile = filepath.Join(r.HomeDir, r.CfgFile)
	}
}

// LoggerCfgFilename always returns non-empty filename - either the value
// of the flag set by user or default cfg location.
func (r *baseConfiguration) LoggerCfgFilename() string {
	if !filepath.IsAbs(r.LogCfgFile) {
		return filepath.Join(r.HomeDir, r.LogCfgFile)
	}
	return r.LogCfgFile
}

func (r *baseConfiguration) configFileExists() bool {
	_, err := os.Stat(r.CfgFile)
	return err == nil
}

// initLogger loads the logger configuration file. A missing default file is not an error,
// the developer configuration is used then.
func (r *baseConfiguration) initLogger() error {
	loggerCfgFile := filepath.Clean(r.LoggerCfgFilename())
	if _, err := os.Stat(loggerCfgFile); err != nil {
		if errors.Is(err, os.ErrNotExist) && loggerCfgFile == filepath.Join(r.HomeDir, defaultLoggerConfigFile) {
			logger.InitializeGlobalLogger()
			return nil
		}
		return fmt.Errorf("opening logger configuration file: %w", err)
	}
	return logger.UpdateGlobalConfigFromFile(loggerCfgFile)
}

func envKey(key string) string {
	return strings.ToUpper(envPrefix + "_" + key)
}

func swapHomeDir() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		panic("default user home dir not defined: " + err.Error())
	}
	return filepath.Join(dir, defaultSwapDir)
}
