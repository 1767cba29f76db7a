package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConsoleWriter struct {
	mu    sync.Mutex
	lines []string
}

func (w *testConsoleWriter) Println(a ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := strings.TrimSuffix(fmt.Sprintln(a...), "\n")
	w.lines = append(w.lines, s)
}

func (w *testConsoleWriter) Print(a ...any) {
	w.Println(a...)
}

func (w *testConsoleWriter) output() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return strings.Join(w.lines, "\n")
}

func verifyStdout(t *testing.T, consoleWriter *testConsoleWriter, expectedLines ...string) {
	t.Helper()
	joined := consoleWriter.output()
	for _, expectedLine := range expectedLines {
		require.Contains(t, joined, expectedLine)
	}
}

// execCommand runs the command line (given as separate arguments) and returns the console output.
func execCommand(args ...string) (*testConsoleWriter, error) {
	outputWriter := &testConsoleWriter{}
	consoleWriter = outputWriter

	app := New()
	app.baseCmd.SetArgs(args)
	return outputWriter, app.addAndExecuteCommand(context.Background())
}

func TestBindFlags_Env(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("ASWP_REST_ADDRESS", "localhost:1234")
	t.Setenv("ASWP_EVENT_LOG_CAPACITY", "7")

	config := runNodeCmd(t, "node", "--home", homeDir)
	require.Equal(t, "localhost:1234", config.RESTAddress)
	require.Equal(t, 7, config.EventLogCapacity)
	require.Equal(t, homeDir, config.Base.HomeDir)
}

func TestBindFlags_ConfigFile(t *testing.T) {
	homeDir := t.TempDir()
	writeFile(t, homeDir, defaultConfigFile, "rest-address=localhost:4321\nmetrics=true\n")

	config := runNodeCmd(t, "node", "--home", homeDir)
	require.Equal(t, "localhost:4321", config.RESTAddress)
	require.True(t, config.Metrics)

	// flag overrides the config file
	config = runNodeCmd(t, "node", "--home", homeDir, "--rest-address", "localhost:5555")
	require.Equal(t, "localhost:5555", config.RESTAddress)
}

func TestNodeCmd_Defaults(t *testing.T) {
	homeDir := t.TempDir()
	config := runNodeCmd(t, "node", "--home", homeDir)
	require.Equal(t, defaultRESTAddress, config.RESTAddress)
	require.Equal(t, homeDir+"/node/node.db", config.dbFile())
	require.Equal(t, homeDir+"/node/genesis.yaml", config.genesisFile())

	config = runNodeCmd(t, "node", "--home", homeDir, "-f", "/tmp/x.db", "-g", "/tmp/g.yaml")
	require.Equal(t, "/tmp/x.db", config.dbFile())
	require.Equal(t, "/tmp/g.yaml", config.genesisFile())
}

func TestNodeCmd_GenesisMissing(t *testing.T) {
	_, err := execCommand("node", "--home", t.TempDir())
	require.ErrorContains(t, err, "genesis")
}

func TestLoggerConfigMissing(t *testing.T) {
	_, err := execCommand("node", "--home", t.TempDir(), "--logger-config", "/does/not/exist.yaml")
	require.ErrorContains(t, err, "opening logger configuration file")
}

func runNodeCmd(t *testing.T, args ...string) *nodeConfiguration {
	t.Helper()
	var config *nodeConfiguration
	app := New()
	app.baseCmd.AddCommand(newNodeCmd(app.baseConfig, func(ctx context.Context, c *nodeConfiguration) error {
		config = c
		return nil
	}))
	app.baseCmd.SetArgs(args)
	require.NoError(t, app.baseCmd.ExecuteContext(context.Background()))
	require.NotNil(t, config)
	return config
}
