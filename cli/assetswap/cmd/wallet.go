package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alphabill-org/assetswap/pkg/wallet/account"
)

const (
	defaultWalletDir = "wallet"
	defaultNodeURL   = "localhost:9654"

	seedCmdName           = "seed"
	passwordArgCmdName    = "password"
	passwordPromptCmdName = "pn"
	nodeURLCmdName        = "node-url"
	keyCmdName            = "key"

	passwordPromptUsage = "password (interactive from prompt)"
	passwordArgUsage    = "password (non-interactive from args)"
)

type walletConfig struct {
	Base            *baseConfiguration
	WalletHomeDir   string
	NodeURL         string
	PasswordFromArg string
	PromptPassword  bool
	// 1-based index of the account key
	Key uint64
}

// newWalletCmd creates a new cobra command for the wallet component.
func newWalletCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &walletConfig{Base: baseConfig}
	var walletCmd = &cobra.Command{
		Use:   "wallet",
		Short: "cli for managing the keys of a swap participant and sending swap transactions",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeConfig(cmd, baseConfig); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			config.WalletHomeDir = filepath.Join(baseConfig.HomeDir, defaultWalletDir)
			return nil
		},
	}
	walletCmd.PersistentFlags().StringVarP(&config.NodeURL, nodeURLCmdName, "u", defaultNodeURL, "asset swap node url")
	walletCmd.PersistentFlags().StringVarP(&config.PasswordFromArg, passwordArgCmdName, "p", "", passwordArgUsage)
	walletCmd.PersistentFlags().BoolVar(&config.PromptPassword, passwordPromptCmdName, false, passwordPromptUsage)
	walletCmd.PersistentFlags().Uint64VarP(&config.Key, keyCmdName, "k", 1, "which key to use for sending transactions")

	walletCmd.AddCommand(createCmd(config))
	walletCmd.AddCommand(addKeyCmd(config))
	walletCmd.AddCommand(listKeysCmd(config))
	walletCmd.AddCommand(swapCmds(config)...)
	walletCmd.AddCommand(assetCmds(config)...)
	walletCmd.AddCommand(fundsCmds(config)...)
	return walletCmd
}

func createCmd(config *walletConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "creates a new wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execCreateCmd(cmd, config)
		},
	}
	cmd.Flags().StringP(seedCmdName, "s", "", "mnemonic seed, the number of words should be 12, 15, 18, 21 or 24")
	return cmd
}

func execCreateCmd(cmd *cobra.Command, config *walletConfig) error {
	mnemonic, err := cmd.Flags().GetString(seedCmdName)
	if err != nil {
		return err
	}
	password, err := createPassphrase(config)
	if err != nil {
		return err
	}
	am, err := account.NewManager(config.WalletHomeDir, password, true)
	if err != nil {
		return err
	}
	key, err := am.CreateKeys(mnemonic)
	if err != nil {
		return errors.Join(err, am.Close(), os.Remove(filepath.Join(config.WalletHomeDir, account.AccountFileName)))
	}
	defer am.Close()
	if mnemonic == "" {
		mnemonic, err = am.GetMnemonic()
		if err != nil {
			return err
		}
		consoleWriter.Println("The following mnemonic key can be used to recover your wallet. Please write it down now, and keep it in a safe, offline place.")
		consoleWriter.Println("mnemonic key: " + mnemonic)
	}
	consoleWriter.Println("Wallet created, address of the first key: " + key.Address.Hex())
	return nil
}

func addKeyCmd(config *walletConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "add-key",
		Short: "adds the next key in the series to the wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			am, err := loadManager(config)
			if err != nil {
				return err
			}
			defer am.Close()
			idx, key, err := am.AddAccount()
			if err != nil {
				return err
			}
			consoleWriter.Println(fmt.Sprintf("Added key #%d %s", idx+1, key.Address.Hex()))
			return nil
		},
	}
}

func listKeysCmd(config *walletConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "list-keys",
		Short: "lists the addresses of the wallet keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			am, err := loadManager(config)
			if err != nil {
				return err
			}
			defer am.Close()
			keys, err := am.GetAccountKeys()
			if err != nil {
				return err
			}
			for i, k := range keys {
				consoleWriter.Println(fmt.Sprintf("#%d %s", i+1, k.Address.Hex()))
			}
			return nil
		},
	}
}

func loadManager(config *walletConfig) (*account.Manager, error) {
	encrypted, err := account.IsEncrypted(config.WalletHomeDir)
	if err != nil {
		return nil, err
	}
	var password string
	if encrypted {
		if password, err = getPassphrase(config, "Enter passphrase: "); err != nil {
			return nil, err
		}
	}
	return account.NewManager(config.WalletHomeDir, password, false)
}

// loadAccountKey returns the key selected with the --key flag.
func loadAccountKey(config *walletConfig) (*account.AccountKey, error) {
	if config.Key == 0 {
		return nil, fmt.Errorf("invalid --%s value, keys are numbered from 1", keyCmdName)
	}
	am, err := loadManager(config)
	if err != nil {
		return nil, err
	}
	defer am.Close()
	return am.GetAccountKey(config.Key - 1)
}

func createPassphrase(config *walletConfig) (string, error) {
	if config.PasswordFromArg != "" {
		return config.PasswordFromArg, nil
	}
	if !config.PromptPassword {
		return "", nil
	}
	p1, err := readPassword("Create new passphrase: ")
	if err != nil {
		return "", err
	}
	p2, err := readPassword("Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	if p1 != p2 {
		return "", errors.New("passphrases do not match")
	}
	return p1, nil
}

func getPassphrase(config *walletConfig, promptMessage string) (string, error) {
	if config.PasswordFromArg != "" {
		return config.PasswordFromArg, nil
	}
	return readPassword(promptMessage)
}

func readPassword(promptMessage string) (string, error) {
	consoleWriter.Print(promptMessage)
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	consoleWriter.Println("") // line break after reading password
	return string(passwordBytes), nil
}
