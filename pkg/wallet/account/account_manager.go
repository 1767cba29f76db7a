package account

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	bolt "go.etcd.io/bbolt"

	"github.com/alphabill-org/assetswap/internal/types"
)

var ErrInvalidPassword = errors.New("invalid password")

// Manager keeps the HD keys of the swap wallet, one address per account.
type Manager struct {
	db *accountDB
}

// NewManager opens the account db in the directory, with create=true a new db is created (and it
// must not exist yet).
func NewManager(dir string, password string, create bool) (*Manager, error) {
	dbFilePath := filepath.Join(dir, AccountFileName)
	if create {
		if err := os.MkdirAll(dir, 0700); err != nil { // -rwx------
			return nil, err
		}
	}
	db, err := openAccountDB(dbFilePath, password, create)
	if err != nil {
		return nil, err
	}
	var ok bool
	if err := db.view(func(tx *bolt.Tx) (err error) {
		ok, err = db.verifyPassword(tx)
		return err
	}); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	if !ok {
		return nil, errors.Join(ErrInvalidPassword, db.Close())
	}
	return &Manager{db: db}, nil
}

// CreateKeys stores the keys generated from the mnemonic (a new mnemonic is generated when empty)
// and adds the first account.
func (m *Manager) CreateKeys(mnemonic string) (*AccountKey, error) {
	keys, err := NewKeys(mnemonic)
	if err != nil {
		return nil, err
	}
	err = m.db.update(func(tx *bolt.Tx) error {
		if _, err := m.db.secret(tx, masterKeyName); err == nil {
			return errors.New("wallet keys already exist")
		}
		if err := m.db.setSecret(tx, mnemonicKeyName, keys.Mnemonic); err != nil {
			return err
		}
		if err := m.db.setSecret(tx, masterKeyName, keys.MasterKey.String()); err != nil {
			return err
		}
		_, err := m.db.addAccount(tx, keys.AccountKey)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("saving wallet keys: %w", err)
	}
	return keys.AccountKey, nil
}

// AddAccount derives the next account of the key series. Returns the index of the new account.
func (m *Manager) AddAccount() (uint64, *AccountKey, error) {
	var idx uint64
	var key *AccountKey
	err := m.db.update(func(tx *bolt.Tx) error {
		masterKeyString, err := m.db.secret(tx, masterKeyName)
		if err != nil {
			return err
		}
		masterKey, err := hdkeychain.NewKeyFromString(masterKeyString)
		if err != nil {
			return err
		}
		next, err := m.db.nextAccountIndex(tx)
		if err != nil {
			return err
		}
		if key, err = NewAccountKey(masterKey, NewDerivationPath(next)); err != nil {
			return err
		}
		idx, err = m.db.addAccount(tx, key)
		return err
	})
	if err != nil {
		return 0, nil, err
	}
	return idx, key, nil
}

func (m *Manager) GetAccountKey(accountIndex uint64) (key *AccountKey, err error) {
	err = m.db.view(func(tx *bolt.Tx) error {
		key, err = m.db.accountKey(tx, accountIndex)
		return err
	})
	return key, err
}

func (m *Manager) GetAccountKeys() (keys []*AccountKey, err error) {
	err = m.db.view(func(tx *bolt.Tx) error {
		keys, err = m.db.accountKeys(tx)
		return err
	})
	return keys, err
}

// AccountByAddress returns the index of the account with given address.
func (m *Manager) AccountByAddress(address types.Address) (uint64, *AccountKey, error) {
	keys, err := m.GetAccountKeys()
	if err != nil {
		return 0, nil, err
	}
	for i, k := range keys {
		if k.Address == address {
			return uint64(i), k, nil
		}
	}
	return 0, nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
}

// GetMnemonic returns mnemonic seed of the wallet
func (m *Manager) GetMnemonic() (mnemonic string, err error) {
	err = m.db.view(func(tx *bolt.Tx) error {
		mnemonic, err = m.db.secret(tx, mnemonicKeyName)
		return err
	})
	return mnemonic, err
}

func (m *Manager) IsEncrypted() (encrypted bool) {
	_ = m.db.view(func(tx *bolt.Tx) error {
		encrypted = m.db.isEncrypted(tx)
		return nil
	})
	return encrypted
}

func (m *Manager) Close() error {
	return m.db.Close()
}

// IsEncrypted returns true if the wallet in the directory exists and is encrypted,
// returns error if wallet does not exist.
func IsEncrypted(dir string) (bool, error) {
	db, err := openAccountDB(filepath.Join(dir, AccountFileName), "", false)
	if err != nil {
		return false, err
	}
	defer db.Close()
	var encrypted bool
	err = db.view(func(tx *bolt.Tx) error {
		encrypted = db.isEncrypted(tx)
		return nil
	})
	return encrypted, err
}
