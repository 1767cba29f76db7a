package account

import (
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"
	bolt "go.etcd.io/bbolt"
)

const (
	walletPass = "default-wallet-pass"

	testMnemonic                 = "dinosaur simple verify deliver bless ridge monkey design venue six problem lucky"
	testMasterKeyBase58          = "xprv9s21ZrQH143K4ZSw4N2P35FTs9PNiLAuufvQWoodWoneZ71o52jTL4VJuEXHej21BPUF9dQm5u3curjcem5zsARtq1MKP9mrbbq1qKqyuFX"
	testPubKey0Hex               = "03c30573dc0c7fd43fcb801289a6a96cb78c27f4ba398b89da91ece23e9a99aca3"
	testPubKey1Hex               = "02d36c574db299904b285aaeb57eb7b1fa145c43af90bec3c635c4174c224587b6"
	testPrivKey0Hex              = "70096ea8536cfba71203a959ed7de2a5900c5547762606f73b2aa078a66e355f"
	testAccountKeyDerivationPath = "m/44'/634'/0'/0/0"
)

func TestNewKeys_FromMnemonic(t *testing.T) {
	keys, err := NewKeys(testMnemonic)
	require.NoError(t, err)
	require.Equal(t, testMnemonic, keys.Mnemonic)
	require.Equal(t, testMasterKeyBase58, keys.MasterKey.String())
	require.Equal(t, testAccountKeyDerivationPath, keys.AccountKey.DerivationPath)
	require.Equal(t, testPrivKey0Hex, hex.EncodeToString(keys.AccountKey.PrivKey))

	priv, err := keys.AccountKey.PrivateKey()
	require.NoError(t, err)
	require.Equal(t, testPubKey0Hex, hex.EncodeToString(crypto.CompressPubkey(&priv.PublicKey)))
	require.Equal(t, crypto.PubkeyToAddress(priv.PublicKey), keys.AccountKey.Address)
}

func TestNewKeys_GeneratesMnemonic(t *testing.T) {
	keys, err := NewKeys("")
	require.NoError(t, err)
	require.True(t, bip39.IsMnemonicValid(keys.Mnemonic))
	require.NotEqual(t, testMnemonic, keys.Mnemonic)
}

func TestNewKeys_InvalidMnemonic(t *testing.T) {
	keys, err := NewKeys("not a valid mnemonic")
	require.ErrorContains(t, err, "invalid mnemonic")
	require.Nil(t, keys)
}

func TestAccountKey_InvalidPrivateKey(t *testing.T) {
	k := &AccountKey{PrivKey: []byte{1, 2, 3}}
	_, err := k.PrivateKey()
	require.ErrorContains(t, err, "invalid private key of account")
}

func TestEncryptedWalletCanBeCreated(t *testing.T) {
	dir := t.TempDir()
	am, err := NewManager(dir, walletPass, true)
	require.NoError(t, err)
	require.True(t, am.IsEncrypted())
	require.NoError(t, am.Close())

	am, err = NewManager(dir, walletPass, false)
	require.NoError(t, err)
	defer am.Close()

	key, err := am.CreateKeys(testMnemonic)
	require.NoError(t, err)
	require.Equal(t, testPrivKey0Hex, hex.EncodeToString(key.PrivKey))

	mnemonic, err := am.GetMnemonic()
	require.NoError(t, err)
	require.Equal(t, testMnemonic, mnemonic)

	ac, err := am.GetAccountKey(0)
	require.NoError(t, err)
	require.Equal(t, key, ac)

	// secrets are not stored in plain text
	require.NoError(t, am.db.view(func(tx *bolt.Tx) error {
		require.NotEqual(t, testMnemonic, string(tx.Bucket(keysBucket).Get(mnemonicKeyName)))
		return nil
	}))
}

func TestLoadingEncryptedWalletWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	am, err := NewManager(dir, walletPass, true)
	require.NoError(t, err)
	_, err = am.CreateKeys(testMnemonic)
	require.NoError(t, err)
	require.NoError(t, am.Close())

	am, err = NewManager(dir, "wrong pw", false)
	require.ErrorIs(t, err, ErrInvalidPassword)
	require.Nil(t, am)

	am, err = NewManager(dir, "", false)
	require.ErrorIs(t, err, ErrInvalidPassword)
	require.Nil(t, am)

	encrypted, err := IsEncrypted(dir)
	require.NoError(t, err)
	require.True(t, encrypted)
}

func TestUnencryptedWallet(t *testing.T) {
	dir := t.TempDir()
	am, err := NewManager(dir, "", true)
	require.NoError(t, err)
	require.False(t, am.IsEncrypted())
	_, err = am.CreateKeys(testMnemonic)
	require.NoError(t, err)
	require.NoError(t, am.Close())

	encrypted, err := IsEncrypted(dir)
	require.NoError(t, err)
	require.False(t, encrypted)

	am, err = NewManager(dir, "", false)
	require.NoError(t, err)
	defer am.Close()
	mnemonic, err := am.GetMnemonic()
	require.NoError(t, err)
	require.Equal(t, testMnemonic, mnemonic)
}

func TestCreateKeysTwice(t *testing.T) {
	am, err := NewManager(t.TempDir(), walletPass, true)
	require.NoError(t, err)
	defer am.Close()
	_, err = am.CreateKeys(testMnemonic)
	require.NoError(t, err)
	_, err = am.CreateKeys("")
	require.ErrorContains(t, err, "wallet keys already exist")
}

func TestAddAccount(t *testing.T) {
	am, err := NewManager(t.TempDir(), walletPass, true)
	require.NoError(t, err)
	defer am.Close()

	_, _, err = am.AddAccount()
	require.ErrorIs(t, err, ErrKeysNotCreated)

	_, err = am.CreateKeys(testMnemonic)
	require.NoError(t, err)

	idx, key, err := am.AddAccount()
	require.NoError(t, err)
	require.EqualValues(t, 1, idx)
	require.Equal(t, NewDerivationPath(1), key.DerivationPath)
	priv, err := key.PrivateKey()
	require.NoError(t, err)
	require.Equal(t, testPubKey1Hex, hex.EncodeToString(crypto.CompressPubkey(&priv.PublicKey)))

	keys, err := am.GetAccountKeys()
	require.NoError(t, err)
	require.Len(t, keys, 2)
	require.Equal(t, key, keys[1])

	i, k, err := am.AccountByAddress(key.Address)
	require.NoError(t, err)
	require.EqualValues(t, 1, i)
	require.Equal(t, key, k)

	_, _, err = am.AccountByAddress([20]byte{1})
	require.ErrorIs(t, err, ErrAccountNotFound)

	_, err = am.GetAccountKey(5)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestNewManager_FileExistence(t *testing.T) {
	dir := t.TempDir()
	_, err := NewManager(dir, "", false)
	require.ErrorContains(t, err, "does not exist")

	am, err := NewManager(dir, "", true)
	require.NoError(t, err)
	require.NoError(t, am.Close())
	require.FileExists(t, filepath.Join(dir, AccountFileName))

	_, err = NewManager(dir, "", true)
	require.ErrorContains(t, err, "already exists")
}

func TestEncryptDecrypt(t *testing.T) {
	data := []byte("secret")
	enc, err := encrypt(walletPass, data)
	require.NoError(t, err)

	dec, err := decrypt(walletPass, enc)
	require.NoError(t, err)
	require.Equal(t, data, dec)

	_, err = decrypt("other", enc)
	require.ErrorIs(t, err, errDecryptingValue)
	_, err = decrypt("", enc)
	require.ErrorIs(t, err, ErrEmptyPassphrase)
	_, err = encrypt("", data)
	require.ErrorIs(t, err, ErrEmptyPassphrase)
	_, err = decrypt(walletPass, "abc")
	require.ErrorContains(t, err, "expected 3 parts")
	_, err = decrypt(walletPass, "zz-00-00")
	require.ErrorContains(t, err, "error decoding hex data")
}
