package types

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

type testAttributes struct {
	_       struct{} `cbor:",toarray"`
	AssetID *uint256.Int
	To      Address
}

func TestTransactionOrder_SignAndRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	target := mustParseAddress("0x00000000000000000000000000000000000000aa")

	tx, err := NewTransactionOrder("addOffer", target, &testAttributes{AssetID: uint256.NewInt(2), To: target}, 3)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(key))
	require.Len(t, tx.Signature, crypto.SignatureLength)

	caller, err := tx.Caller()
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), caller)
	require.Equal(t, "addOffer", tx.PayloadType())
	require.Equal(t, target, tx.Target())
	require.EqualValues(t, 3, tx.Nonce())

	// encode, decode and recover again
	b, err := tx.Bytes()
	require.NoError(t, err)
	decoded := &TransactionOrder{}
	require.NoError(t, Cbor.Unmarshal(b, decoded))
	caller2, err := decoded.Caller()
	require.NoError(t, err)
	require.Equal(t, caller, caller2)

	attr := &testAttributes{}
	require.NoError(t, decoded.UnmarshalAttributes(attr))
	require.EqualValues(t, 2, attr.AssetID.Uint64())
	require.Equal(t, target, attr.To)
}

func TestTransactionOrder_TamperedPayload(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	tx, err := NewTransactionOrder("performSwap", ZeroAddress, struct{}{}, 0)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(key))

	tx.Payload.Nonce = 1
	caller, err := tx.Caller()
	require.NoError(t, err)
	require.NotEqual(t, crypto.PubkeyToAddress(key.PublicKey), caller)
}

func TestTransactionOrder_InvalidSignature(t *testing.T) {
	tx, err := NewTransactionOrder("performSwap", ZeroAddress, struct{}{}, 0)
	require.NoError(t, err)

	_, err = tx.Caller()
	require.ErrorIs(t, err, ErrInvalidSignature)

	tx.Signature = make([]byte, crypto.SignatureLength)
	_, err = tx.Caller()
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTransactionOrder_NilPayload(t *testing.T) {
	tx := &TransactionOrder{}
	require.Equal(t, "", tx.PayloadType())
	require.Equal(t, ZeroAddress, tx.Target())
	require.ErrorIs(t, tx.UnmarshalAttributes(&testAttributes{}), ErrMissingPayload)
	_, err := tx.SigHash()
	require.ErrorIs(t, err, ErrMissingPayload)
}

func TestRawCBOR(t *testing.T) {
	b, err := RawCBOR(nil).MarshalCBOR()
	require.NoError(t, err)
	require.Equal(t, cborNil, b)

	var r RawCBOR
	require.NoError(t, r.UnmarshalCBOR(cborNil))
	require.Nil(t, r)
	require.NoError(t, r.UnmarshalCBOR([]byte{0x01}))
	require.Equal(t, RawCBOR{0x01}, r)
}
