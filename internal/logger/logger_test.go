package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	require.Equal(t, NONE, LevelFromString("NONE"))
	require.Equal(t, ERROR, LevelFromString("error"))
	require.Equal(t, WARNING, LevelFromString(" Warning "))
	require.Equal(t, INFO, LevelFromString("INFO"))
	require.Equal(t, TRACE, LevelFromString("TRACE"))
	require.Equal(t, DEBUG, LevelFromString("whatever"))
	require.Equal(t, "INFO", INFO.String())
	require.Equal(t, "UNKNOWN", LogLevel(99).String())
}

func TestPackageName(t *testing.T) {
	r := &PackageNameResolver{BasePackage: "alphabill-org/assetswap", Depth: 1}
	require.Equal(t, "internal/logger", r.PackageName())
}

func TestConsoleFormatCaller(t *testing.T) {
	require.Equal(t, "", consoleFormatCallerLastTwoDirs(nil))
	require.Equal(t, "a.go:1", consoleFormatCallerLastTwoDirs("a.go:1"))
	p := filepath.Join("root", "internal", "swap", "offers.go:10")
	require.Equal(t, "internal/swap/offers.go:10", consoleFormatCallerLastTwoDirs(p))
}

func TestLogger_WritesWithPackageLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	UpdateGlobalConfig(GlobalConfig{
		DefaultLevel:  INFO,
		PackageLevels: map[string]LogLevel{"quiet": ERROR},
		Writer:        buf,
	})
	t.Cleanup(func() { UpdateGlobalConfig(developerConfiguration()) })

	loud := Create("loud")
	quiet := Create("quiet")
	loud.Info("offer added for asset %d", 2)
	loud.Debug("not shown")
	quiet.Warning("not shown either")
	require.Contains(t, buf.String(), "offer added for asset 2")
	require.NotContains(t, buf.String(), "not shown")

	buf.Reset()
	quiet.ChangeLevel(DEBUG)
	quiet.Debug("now shown")
	require.Contains(t, buf.String(), "now shown")
}

func TestLogger_Context(t *testing.T) {
	buf := &bytes.Buffer{}
	UpdateGlobalConfig(GlobalConfig{DefaultLevel: INFO, Writer: buf})
	t.Cleanup(func() {
		ClearContext("node")
		UpdateGlobalConfig(developerConfiguration())
	})

	l := Create("ctx")
	SetContext("node", "n1")
	l.Info("started")
	require.Contains(t, buf.String(), `"node":"n1"`)
}

func TestUpdateGlobalConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	require.ErrorContains(t, UpdateGlobalConfigFromFile(filepath.Join(dir, "missing.yaml")), "failed to read logger config file")

	cfgFile := filepath.Join(dir, "logger.yaml")
	logFile := filepath.Join(dir, "out.log")
	require.NoError(t, os.WriteFile(cfgFile, []byte("defaultLevel: WARNING\npackageLevels:\n  internal_swap: TRACE\noutputPath: "+logFile+"\n"), 0600))
	conf, err := loadGlobalConfigFromFile(cfgFile)
	require.NoError(t, err)
	require.Equal(t, WARNING, conf.DefaultLevel)
	require.Equal(t, TRACE, conf.PackageLevels["internal_swap"])
	require.NotNil(t, conf.Writer)
	require.NoError(t, conf.Writer.(*os.File).Close())

	require.NoError(t, os.WriteFile(cfgFile, []byte("defaultLevel: [\n"), 0600))
	require.ErrorContains(t, UpdateGlobalConfigFromFile(cfgFile), "failed to unmarshal logger config")
}
