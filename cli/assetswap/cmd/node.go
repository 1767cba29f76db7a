package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ainvaltin/httpsrv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alphabill-org/assetswap/internal/keyvaluedb/boltdb"
	"github.com/alphabill-org/assetswap/internal/logger"
	"github.com/alphabill-org/assetswap/internal/metrics"
	"github.com/alphabill-org/assetswap/internal/node"
	"github.com/alphabill-org/assetswap/internal/rpc"
)

const (
	defaultNodeDir         = "node"
	defaultDbFileName      = "node.db"
	defaultGenesisFileName = "genesis.yaml"
	defaultRESTAddress     = "localhost:9654"

	keyMetrics = "metrics"
)

type (
	nodeConfiguration struct {
		Base             *baseConfiguration
		DbFile           string
		GenesisFile      string
		RESTAddress      string
		MaxBodyBytes     int64
		EventLogCapacity int
		Metrics          bool
	}

	// nodeRunnable is the function that is run after configuration is loaded.
	nodeRunnable func(ctx context.Context, config *nodeConfiguration) error
)

var log = logger.CreateForPackage()

// newNodeCmd creates a new cobra command for the swap node.
//
// runFunc - set the function to override the default behaviour. Meant for tests.
func newNodeCmd(baseConfig *baseConfiguration, runFunc nodeRunnable) *cobra.Command {
	config := &nodeConfiguration{Base: baseConfig}
	var nodeCmd = &cobra.Command{
		Use:   "node",
		Short: "Starts an asset swap node",
		Long:  `Starts an asset swap node, serving the REST API on the address provided by configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runFunc != nil {
				return runFunc(cmd.Context(), config)
			}
			return runNode(cmd.Context(), config)
		},
	}
	nodeCmd.Flags().StringVarP(&config.DbFile, "db", "f", "", fmt.Sprintf("path to the database file (default: $ASWP_HOME/%s/%s)", defaultNodeDir, defaultDbFileName))
	nodeCmd.Flags().StringVarP(&config.GenesisFile, "genesis", "g", "", fmt.Sprintf("path to the genesis file (default: $ASWP_HOME/%s/%s)", defaultNodeDir, defaultGenesisFileName))
	nodeCmd.Flags().StringVar(&config.RESTAddress, "rest-address", defaultRESTAddress, "address the REST server listens on")
	nodeCmd.Flags().Int64Var(&config.MaxBodyBytes, "rest-max-body", rpc.DefaultMaxBodyBytes, "maximum size of the REST request body in bytes")
	nodeCmd.Flags().IntVar(&config.EventLogCapacity, "event-log-capacity", node.DefaultEventLogCapacity, "number of recent swap events served by the REST API")
	nodeCmd.Flags().BoolVar(&config.Metrics, keyMetrics, false, "enables metrics collection, exported at /api/v1/metrics")
	return nodeCmd
}

func (c *nodeConfiguration) dbFile() string {
	if c.DbFile != "" {
		return c.DbFile
	}
	return filepath.Join(c.Base.HomeDir, defaultNodeDir, defaultDbFileName)
}

func (c *nodeConfiguration) genesisFile() string {
	if c.GenesisFile != "" {
		return c.GenesisFile
	}
	return filepath.Join(c.Base.HomeDir, defaultNodeDir, defaultGenesisFileName)
}

func runNode(ctx context.Context, config *nodeConfiguration) error {
	genesis, err := node.LoadGenesis(config.genesisFile())
	if err != nil {
		return err
	}
	if config.Metrics {
		metrics.Enable()
	}
	dbFile := config.dbFile()
	if err := os.MkdirAll(filepath.Dir(dbFile), 0700); err != nil { // -rwx------
		return fmt.Errorf("creating database directory: %w", err)
	}
	db, err := boltdb.New(dbFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warning("closing database: %v", err)
		}
	}()

	n, err := node.New(genesis, node.WithDatabase(db))
	if err != nil {
		return fmt.Errorf("creating node: %w", err)
	}
	eventLog, err := node.NewEventLog(n.EventBus(), config.EventLogCapacity)
	if err != nil {
		return err
	}
	registrars := []rpc.Registrar{rpc.NodeEndpoints(n, eventLog)}
	if config.Metrics {
		registrars = append(registrars, rpc.MetricsEndpoints())
	}
	server := rpc.NewRESTServer(config.RESTAddress, config.MaxBodyBytes, registrars...)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eventLog.Run(ctx)
	})
	g.Go(func() error {
		log.Info("node administered by %s serving REST API on %s", n.Administrator(), config.RESTAddress)
		return httpsrv.Run(ctx, *server, httpsrv.ShutdownTimeout(5*time.Second))
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("node stopped")
	return nil
}
