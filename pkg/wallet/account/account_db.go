package account

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	keysBucket     = []byte("keys")
	accountsBucket = []byte("accounts")
	metaBucket     = []byte("meta")

	masterKeyName       = []byte("masterKey")
	mnemonicKeyName     = []byte("mnemonicKey")
	isEncryptedKeyName  = []byte("isEncryptedKey")
	nextAccountIndexKey = []byte("nextAccountIndexKey")

	ErrAccountNotFound = errors.New("account does not exist")
	ErrKeysNotCreated  = errors.New("wallet keys have not been created")
)

const AccountFileName = "accounts.db"

// accountDB stores the wallet keys in a bolt file, secret values are encrypted when the wallet has a password.
type accountDB struct {
	db       *bolt.DB
	password string
}

func openAccountDB(dbFilePath string, password string, create bool) (*accountDB, error) {
	_, err := os.Stat(dbFilePath)
	exists := err == nil
	if create && exists {
		return nil, fmt.Errorf("cannot create account db, file (%s) already exists", dbFilePath)
	} else if !create && !exists {
		return nil, fmt.Errorf("cannot open account db, file (%s) does not exist", dbFilePath)
	}

	db, err := bolt.Open(dbFilePath, 0600, &bolt.Options{Timeout: 3 * time.Second}) // -rw-------
	if err != nil {
		return nil, err
	}
	a := &accountDB{db: db, password: password}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{keysBucket, accountsBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		if create {
			return a.setEncrypted(tx, password != "")
		}
		return nil
	})
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return a, nil
}

func (a *accountDB) Close() error {
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("closing account db: %w", err)
	}
	return nil
}

func (a *accountDB) update(f func(tx *bolt.Tx) error) error {
	return a.db.Update(f)
}

func (a *accountDB) view(f func(tx *bolt.Tx) error) error {
	return a.db.View(f)
}

func (a *accountDB) addAccount(tx *bolt.Tx, key *AccountKey) (uint64, error) {
	idx, err := a.nextAccountIndex(tx)
	if err != nil {
		return 0, err
	}
	val, err := json.Marshal(key)
	if err != nil {
		return 0, err
	}
	if val, err = a.encryptValue(tx, val); err != nil {
		return 0, err
	}
	if err := tx.Bucket(accountsBucket).Put(indexKey(idx), val); err != nil {
		return 0, err
	}
	return idx, tx.Bucket(metaBucket).Put(nextAccountIndexKey, indexKey(idx+1))
}

func (a *accountDB) accountKey(tx *bolt.Tx, idx uint64) (*AccountKey, error) {
	val := tx.Bucket(accountsBucket).Get(indexKey(idx))
	if val == nil {
		return nil, fmt.Errorf("%w: index %d", ErrAccountNotFound, idx)
	}
	return a.decodeAccountKey(tx, val)
}

func (a *accountDB) accountKeys(tx *bolt.Tx) ([]*AccountKey, error) {
	var keys []*AccountKey
	err := tx.Bucket(accountsBucket).ForEach(func(k, v []byte) error {
		key, err := a.decodeAccountKey(tx, v)
		if err != nil {
			return err
		}
		keys = append(keys, key)
		return nil
	})
	return keys, err
}

func (a *accountDB) decodeAccountKey(tx *bolt.Tx, val []byte) (*AccountKey, error) {
	val, err := a.decryptValue(tx, val)
	if err != nil {
		return nil, err
	}
	key := &AccountKey{}
	if err := json.Unmarshal(val, key); err != nil {
		return nil, fmt.Errorf("decoding account key: %w", err)
	}
	return key, nil
}

func (a *accountDB) nextAccountIndex(tx *bolt.Tx) (uint64, error) {
	val := tx.Bucket(metaBucket).Get(nextAccountIndexKey)
	if val == nil {
		return 0, nil
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("invalid account index value of length %d", len(val))
	}
	return binary.BigEndian.Uint64(val), nil
}

func (a *accountDB) setSecret(tx *bolt.Tx, name []byte, value string) error {
	val, err := a.encryptValue(tx, []byte(value))
	if err != nil {
		return err
	}
	return tx.Bucket(keysBucket).Put(name, val)
}

func (a *accountDB) secret(tx *bolt.Tx, name []byte) (string, error) {
	val := tx.Bucket(keysBucket).Get(name)
	if val == nil {
		return "", ErrKeysNotCreated
	}
	val, err := a.decryptValue(tx, val)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

func (a *accountDB) setEncrypted(tx *bolt.Tx, encrypted bool) error {
	val := []byte{0}
	if encrypted {
		val[0] = 1
	}
	return tx.Bucket(metaBucket).Put(isEncryptedKeyName, val)
}

func (a *accountDB) isEncrypted(tx *bolt.Tx) bool {
	val := tx.Bucket(metaBucket).Get(isEncryptedKeyName)
	return len(val) == 1 && val[0] == 1
}

// verifyPassword returns false if the values can not be decrypted with the password the db was opened with.
func (a *accountDB) verifyPassword(tx *bolt.Tx) (bool, error) {
	if !a.isEncrypted(tx) {
		return true, nil
	}
	if _, err := a.accountKeys(tx); err != nil {
		if errors.Is(err, ErrEmptyPassphrase) || errors.Is(err, errDecryptingValue) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *accountDB) encryptValue(tx *bolt.Tx, val []byte) ([]byte, error) {
	if !a.isEncrypted(tx) {
		return val, nil
	}
	encrypted, err := encrypt(a.password, val)
	if err != nil {
		return nil, err
	}
	return []byte(encrypted), nil
}

func (a *accountDB) decryptValue(tx *bolt.Tx, val []byte) ([]byte, error) {
	if !a.isEncrypted(tx) {
		return val, nil
	}
	return decrypt(a.password, string(val))
}

func indexKey(idx uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, idx)
	return b
}
