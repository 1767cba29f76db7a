package node

import (
	"errors"
	"fmt"
	"os"

	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"github.com/alphabill-org/assetswap/internal/txsystem/money"
	"github.com/alphabill-org/assetswap/internal/txsystem/tokens"
	"github.com/alphabill-org/assetswap/internal/types"
)

var ErrGenesisIsNil = errors.New("genesis is nil")

type (
	// Genesis describes the initial state of a new node: the administrator of the registry and
	// the ledger, the initial assets and the initial balances.
	Genesis struct {
		Administrator string           `yaml:"administrator"`
		Assets        []GenesisAsset   `yaml:"assets"`
		Balances      []GenesisBalance `yaml:"balances"`
	}

	GenesisAsset struct {
		ID     string `yaml:"id"`
		URI    string `yaml:"uri"`
		Holder string `yaml:"holder"`
	}

	GenesisBalance struct {
		Address string `yaml:"address"`
		Amount  string `yaml:"amount"`
	}
)

// LoadGenesis reads the genesis file and validates it.
func LoadGenesis(path string) (*Genesis, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading genesis file: %w", err)
	}
	g := &Genesis{}
	if err := yaml.Unmarshal(b, g); err != nil {
		return nil, fmt.Errorf("decoding genesis file %s: %w", path, err)
	}
	if err := g.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid genesis file %s: %w", path, err)
	}
	return g, nil
}

// WriteGenesis writes the genesis in YAML format.
func WriteGenesis(path string, g *Genesis) error {
	if err := g.IsValid(); err != nil {
		return err
	}
	b, err := yaml.Marshal(g)
	if err != nil {
		return fmt.Errorf("encoding genesis: %w", err)
	}
	return os.WriteFile(path, b, 0600)
}

func (g *Genesis) IsValid() error {
	if g == nil {
		return ErrGenesisIsNil
	}
	var errs []error
	admin, err := types.ParseAddress(g.Administrator)
	if err != nil {
		errs = append(errs, fmt.Errorf("administrator: %w", err))
	} else if types.IsZeroAddress(admin) {
		errs = append(errs, errors.New("administrator is zero"))
	}
	seen := map[uint256.Int]struct{}{}
	for i, a := range g.Assets {
		id, _, err := a.parse()
		if err != nil {
			errs = append(errs, fmt.Errorf("asset[%d]: %w", i, err))
			continue
		}
		if _, f := seen[*id]; f {
			errs = append(errs, fmt.Errorf("asset[%d]: duplicate id %s", i, a.ID))
		}
		seen[*id] = struct{}{}
	}
	for i, b := range g.Balances {
		if _, _, err := b.parse(); err != nil {
			errs = append(errs, fmt.Errorf("balance[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// AdministratorAddress returns the parsed administrator address, zero if the genesis is invalid.
func (g *Genesis) AdministratorAddress() types.Address {
	admin, err := types.ParseAddress(g.Administrator)
	if err != nil {
		return types.ZeroAddress
	}
	return admin
}

func (g *Genesis) apply(registry *tokens.Registry, ledger *money.Ledger) error {
	admin := g.AdministratorAddress()
	for _, a := range g.Assets {
		id, holder, err := a.parse()
		if err != nil {
			return err
		}
		if err := registry.AssignToken(admin, id, a.URI, holder); err != nil {
			return fmt.Errorf("genesis asset %s: %w", a.ID, err)
		}
	}
	for _, b := range g.Balances {
		holder, amount, err := b.parse()
		if err != nil {
			return err
		}
		if err := ledger.Mint(admin, holder, amount); err != nil {
			return fmt.Errorf("genesis balance of %s: %w", b.Address, err)
		}
	}
	return nil
}

func (a *GenesisAsset) parse() (*uint256.Int, types.Address, error) {
	id, err := types.ParseUint256(a.ID)
	if err != nil {
		return nil, types.ZeroAddress, fmt.Errorf("id: %w", err)
	}
	if id.IsZero() {
		return nil, types.ZeroAddress, errors.New("id is zero")
	}
	holder, err := types.ParseAddress(a.Holder)
	if err != nil {
		return nil, types.ZeroAddress, fmt.Errorf("holder: %w", err)
	}
	return id, holder, nil
}

func (b *GenesisBalance) parse() (types.Address, *uint256.Int, error) {
	holder, err := types.ParseAddress(b.Address)
	if err != nil {
		return types.ZeroAddress, nil, fmt.Errorf("address: %w", err)
	}
	amount, err := types.ParseUint256(b.Amount)
	if err != nil {
		return types.ZeroAddress, nil, fmt.Errorf("amount: %w", err)
	}
	return holder, amount, nil
}
