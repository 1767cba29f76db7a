package account

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	acc "github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"

	"github.com/alphabill-org/assetswap/internal/types"
)

type (
	Keys struct {
		Mnemonic   string
		MasterKey  *hdkeychain.ExtendedKey
		AccountKey *AccountKey
	}

	AccountKey struct {
		PrivKey        []byte        `json:"privKey"`
		Address        types.Address `json:"address"`
		DerivationPath string        `json:"derivationPath"`
	}
)

const mnemonicEntropyBitSize = 128

// NewKeys generates new wallet keys from given mnemonic seed, or generates mnemonic first if empty string is provided
func NewKeys(mnemonic string) (*Keys, error) {
	if mnemonic == "" {
		var err error
		mnemonic, err = generateMnemonic()
		if err != nil {
			return nil, err
		}
	}

	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("invalid mnemonic")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, err
	}

	// only HDPrivateKeyID is used from chaincfg.MainNetParams,
	// it is used as version flag in extended key, which in turn is used to identify the extended key's type.
	masterKey, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	ac, err := NewAccountKey(masterKey, NewDerivationPath(0))
	if err != nil {
		return nil, err
	}
	return &Keys{
		Mnemonic:   mnemonic,
		MasterKey:  masterKey,
		AccountKey: ac,
	}, nil
}

// NewAccountKey generates new account key from given master key and derivation path
func NewAccountKey(masterKey *hdkeychain.ExtendedKey, derivationPath string) (*AccountKey, error) {
	path, err := acc.ParseDerivationPath(derivationPath)
	if err != nil {
		return nil, err
	}
	privateKey, err := derivePrivateKey(path, masterKey)
	if err != nil {
		return nil, err
	}
	return &AccountKey{
		PrivKey:        crypto.FromECDSA(privateKey),
		Address:        crypto.PubkeyToAddress(privateKey.PublicKey),
		DerivationPath: derivationPath,
	}, nil
}

// PrivateKey returns the secp256k1 key transactions of the account are signed with.
func (k *AccountKey) PrivateKey() (*ecdsa.PrivateKey, error) {
	key, err := crypto.ToECDSA(k.PrivKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key of account %s: %w", k.Address, err)
	}
	return key, nil
}

// NewDerivationPath returns derivation path for given account index
func NewDerivationPath(accountIndex uint64) string {
	// https://github.com/bitcoin/bips/blob/master/bip-0044.mediawiki
	// m / purpose' / coin_type' / account' / change / address_index
	// 634' - coin type, randomly chosen number from https://github.com/satoshilabs/slips/blob/master/slip-0044.md
	// 1 account = 1 address
	derivationPath := "m/44'/634'/%d'/0/0"
	return fmt.Sprintf(derivationPath, accountIndex)
}

func generateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBitSize)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// derivePrivateKey derives the private accountKey of the derivation path.
func derivePrivateKey(path acc.DerivationPath, masterKey *hdkeychain.ExtendedKey) (*ecdsa.PrivateKey, error) {
	var err error
	var derivedKey = masterKey
	for _, n := range path {
		derivedKey, err = derivedKey.Derive(n)
		if err != nil {
			return nil, err
		}
	}

	privateKey, err := derivedKey.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return privateKey.ToECDSA(), nil
}
