package types

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

type (
	// TransactionOrder is a request to execute one operation on behalf of the signer.
	TransactionOrder struct {
		_         struct{} `cbor:",toarray"`
		Payload   *Payload
		Signature []byte
	}

	Payload struct {
		_ struct{} `cbor:",toarray"`
		// Type selects the operation, see the PayloadType* constants of the node package.
		Type string
		// Target is the swap coordinator the operation is addressed to, zero for
		// registry and ledger operations.
		Target     Address
		Attributes RawCBOR
		// Nonce must equal the number of transactions the signer has executed before.
		Nonce uint64
	}
)

var (
	ErrMissingPayload   = errors.New("transaction payload is missing")
	ErrInvalidSignature = errors.New("invalid transaction signature")
)

// NewTransactionOrder creates an unsigned transaction order with CBOR encoded attributes.
func NewTransactionOrder(payloadType string, target Address, attr any, nonce uint64) (*TransactionOrder, error) {
	attrBytes, err := Cbor.Marshal(attr)
	if err != nil {
		return nil, fmt.Errorf("encoding %s attributes: %w", payloadType, err)
	}
	return &TransactionOrder{
		Payload: &Payload{
			Type:       payloadType,
			Target:     target,
			Attributes: attrBytes,
			Nonce:      nonce,
		},
	}, nil
}

func (t *TransactionOrder) PayloadType() string {
	if t.Payload == nil {
		return ""
	}
	return t.Payload.Type
}

func (t *TransactionOrder) Target() Address {
	if t.Payload == nil {
		return ZeroAddress
	}
	return t.Payload.Target
}

func (t *TransactionOrder) Nonce() uint64 {
	if t.Payload == nil {
		return 0
	}
	return t.Payload.Nonce
}

func (t *TransactionOrder) UnmarshalAttributes(v any) error {
	if t == nil || t.Payload == nil {
		return ErrMissingPayload
	}
	return Cbor.Unmarshal(t.Payload.Attributes, v)
}

// SigHash returns the Keccak256 hash of the CBOR encoded payload.
func (t *TransactionOrder) SigHash() ([]byte, error) {
	if t == nil || t.Payload == nil {
		return nil, ErrMissingPayload
	}
	b, err := Cbor.Marshal(t.Payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return crypto.Keccak256(b), nil
}

// Sign signs the payload with a secp256k1 key and stores the recoverable signature.
func (t *TransactionOrder) Sign(key *ecdsa.PrivateKey) error {
	h, err := t.SigHash()
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(h, key)
	if err != nil {
		return fmt.Errorf("signing transaction: %w", err)
	}
	t.Signature = sig
	return nil
}

// Caller recovers the address of the signer from the signature.
func (t *TransactionOrder) Caller() (Address, error) {
	if len(t.Signature) != crypto.SignatureLength {
		return ZeroAddress, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, crypto.SignatureLength, len(t.Signature))
	}
	h, err := t.SigHash()
	if err != nil {
		return ZeroAddress, err
	}
	pub, err := crypto.SigToPub(h, t.Signature)
	if err != nil {
		return ZeroAddress, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func (t *TransactionOrder) Bytes() ([]byte, error) {
	return Cbor.Marshal(t)
}
