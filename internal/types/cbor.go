package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var cborNil = []byte{0xf6}

type (
	cborHandler struct {
		enc cbor.EncMode
		dec cbor.DecMode
	}

	RawCBOR []byte
)

// Cbor encodes with the canonical options, signatures are computed over its output.
var Cbor = newCborHandler()

func newCborHandler() cborHandler {
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Errorf("creating cbor encoder: %w", err))
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Errorf("creating cbor decoder: %w", err))
	}
	return cborHandler{enc: enc, dec: dec}
}

func (c cborHandler) Marshal(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c cborHandler) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return errors.New("no cbor data")
	}
	return c.dec.Unmarshal(data, v)
}

// MarshalCBOR returns r or CBOR nil if r is nil.
func (r RawCBOR) MarshalCBOR() ([]byte, error) {
	if len(r) == 0 || bytes.Equal(r, cborNil) {
		return cborNil, nil
	}
	return r, nil
}

// UnmarshalCBOR creates a copy of data and saves to *r.
func (r *RawCBOR) UnmarshalCBOR(data []byte) error {
	if r == nil {
		return errors.New("UnmarshalCBOR on nil pointer")
	}
	if bytes.Equal(data, cborNil) {
		*r = nil
		return nil
	}
	*r = bytes.Clone(data)
	return nil
}
