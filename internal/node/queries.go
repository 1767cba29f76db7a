package node

import (
	"github.com/holiman/uint256"

	"github.com/alphabill-org/assetswap/internal/swap"
	"github.com/alphabill-org/assetswap/internal/types"
)

// AssetInfo is the registry view of one asset.
type AssetInfo struct {
	ID       *uint256.Int
	URI      string
	Holder   types.Address
	Approved types.Address
}

// Swap returns a copy of the swap instance deployed at the address.
func (n *Node) Swap(address types.Address) (*swap.Instance, error) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	c, err := swap.Open(n.env, address)
	if err != nil {
		return nil, err
	}
	return c.Instance()
}

func (n *Node) Asset(assetID *uint256.Int) (*AssetInfo, error) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	holder, err := n.registry.OwnerOf(assetID)
	if err != nil {
		return nil, err
	}
	uri, err := n.registry.TokenURI(assetID)
	if err != nil {
		return nil, err
	}
	approved, err := n.registry.GetApproved(assetID)
	if err != nil {
		return nil, err
	}
	return &AssetInfo{ID: assetID.Clone(), URI: uri, Holder: holder, Approved: approved}, nil
}

// IsOperator returns true if the operator may transfer all assets of the holder.
func (n *Node) IsOperator(holder, operator types.Address) bool {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return n.registry.IsApprovedForAll(holder, operator)
}

func (n *Node) Balance(holder types.Address) *uint256.Int {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return n.ledger.BalanceOf(holder)
}

func (n *Node) Allowance(owner, spender types.Address) *uint256.Int {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return n.ledger.Allowance(owner, spender)
}

// Nonce returns the nonce the next transaction of the address must have.
func (n *Node) Nonce(address types.Address) uint64 {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return n.nonce(address)
}
