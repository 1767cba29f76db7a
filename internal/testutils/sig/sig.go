package testsig

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/assetswap/internal/types"
)

// CreateKey generates a new secp256k1 key and returns it with its address.
func CreateKey(t *testing.T) (*ecdsa.PrivateKey, types.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(key.PublicKey)
}

// SignedTx creates a transaction order signed with the key.
func SignedTx(t *testing.T, key *ecdsa.PrivateKey, payloadType string, target types.Address, attr any, nonce uint64) *types.TransactionOrder {
	t.Helper()
	tx, err := types.NewTransactionOrder(payloadType, target, attr, nonce)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(key))
	return tx
}
