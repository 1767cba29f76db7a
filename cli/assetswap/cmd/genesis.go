package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alphabill-org/assetswap/internal/node"
)

const (
	adminCmdFlag   = "admin"
	assetCmdFlag   = "asset"
	balanceCmdFlag = "balance"
	outputCmdFlag  = "output"
	forceCmdFlag   = "force"
)

type genesisConfig struct {
	Base       *baseConfiguration
	Admin      addressValue
	Assets     []string
	Balances   []string
	OutputFile string
	Force      bool
}

func newGenesisCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &genesisConfig{Base: baseConfig}
	var cmd = &cobra.Command{
		Use:   "genesis",
		Short: "Generates the genesis file of an asset swap node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeGenesis(config)
		},
	}
	cmd.Flags().Var(&config.Admin, adminCmdFlag, "address of the administrator, the only caller allowed to assign assets and mint funds")
	cmd.Flags().StringArrayVar(&config.Assets, assetCmdFlag, nil, "initial asset in format id,holder[,uri], may be repeated")
	cmd.Flags().StringArrayVar(&config.Balances, balanceCmdFlag, nil, "initial balance in format address=amount, may be repeated")
	cmd.Flags().StringVarP(&config.OutputFile, outputCmdFlag, "o", "", fmt.Sprintf("path to the output genesis file (default: $ASWP_HOME/%s/%s)", defaultNodeDir, defaultGenesisFileName))
	cmd.Flags().BoolVar(&config.Force, forceCmdFlag, false, "overwrite the genesis file if it exists")
	_ = cmd.MarkFlagRequired(adminCmdFlag)
	return cmd
}

func (c *genesisConfig) outputFile() string {
	if c.OutputFile != "" {
		return c.OutputFile
	}
	return filepath.Join(c.Base.HomeDir, defaultNodeDir, defaultGenesisFileName)
}

func writeGenesis(config *genesisConfig) error {
	genesis, err := config.genesis()
	if err != nil {
		return err
	}
	if err := genesis.IsValid(); err != nil {
		return fmt.Errorf("invalid genesis: %w", err)
	}
	path := config.outputFile()
	if _, err := os.Stat(path); err == nil && !config.Force {
		return fmt.Errorf("genesis file %s already exists, use --%s to overwrite", path, forceCmdFlag)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil { // -rwx------
		return err
	}
	if err := node.WriteGenesis(path, genesis); err != nil {
		return err
	}
	consoleWriter.Println("Genesis file written to", path)
	return nil
}

func (c *genesisConfig) genesis() (*node.Genesis, error) {
	g := &node.Genesis{Administrator: c.Admin.Value().Hex()}
	var errs []error
	for _, s := range c.Assets {
		parts := strings.SplitN(s, ",", 3)
		if len(parts) < 2 {
			errs = append(errs, fmt.Errorf("invalid asset %q, expected id,holder[,uri]", s))
			continue
		}
		asset := node.GenesisAsset{ID: strings.TrimSpace(parts[0]), Holder: strings.TrimSpace(parts[1])}
		if len(parts) == 3 {
			asset.URI = strings.TrimSpace(parts[2])
		}
		g.Assets = append(g.Assets, asset)
	}
	for _, s := range c.Balances {
		address, amount, found := strings.Cut(s, "=")
		if !found {
			errs = append(errs, fmt.Errorf("invalid balance %q, expected address=amount", s))
			continue
		}
		g.Balances = append(g.Balances, node.GenesisBalance{Address: strings.TrimSpace(address), Amount: strings.TrimSpace(amount)})
	}
	return g, errors.Join(errs...)
}
