package memorydb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/assetswap/internal/keyvaluedb"
)

type testRecord struct {
	Name  string
	Value uint64
}

func TestMemoryDB_ReadWriteDelete(t *testing.T) {
	db := New()
	require.True(t, db.Empty())
	empty, err := keyvaluedb.IsEmpty(db)
	require.NoError(t, err)
	require.True(t, empty)

	require.NoError(t, db.Write([]byte("a"), &testRecord{Name: "a", Value: 1}))
	var got testRecord
	found, err := db.Read([]byte("a"), &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, testRecord{Name: "a", Value: 1}, got)

	found, err = db.Read([]byte("b"), &got)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, db.Delete([]byte("a")))
	require.True(t, db.Empty())
}

func TestMemoryDB_InvalidInput(t *testing.T) {
	db := New()
	require.ErrorContains(t, db.Write(nil, &testRecord{}), "invalid key")
	var rec *testRecord
	require.ErrorContains(t, db.Write([]byte("a"), rec), "value is nil")
	_, err := db.Read([]byte("a"), nil)
	require.ErrorContains(t, err, "value is nil")
	require.ErrorContains(t, db.Delete(nil), "invalid key")
}

func TestMemoryDB_Iterator(t *testing.T) {
	db := New()
	for _, k := range []string{"c", "a", "b"} {
		require.NoError(t, db.Write([]byte(k), &testRecord{Name: k}))
	}
	it := db.First()
	defer func() { require.NoError(t, it.Close()) }()
	var keys []string
	for ; it.Valid(); it.Next() {
		var rec testRecord
		require.NoError(t, it.Value(&rec))
		require.Equal(t, string(it.Key()), rec.Name)
		keys = append(keys, rec.Name)
	}
	require.Equal(t, []string{"a", "b", "c"}, keys)
	require.Nil(t, it.Key())
	require.Error(t, it.Value(&testRecord{}))

	it2 := db.Find([]byte("bb"))
	require.True(t, it2.Valid())
	require.Equal(t, []byte("c"), it2.Key())
	require.False(t, db.Find([]byte("d")).Valid())
}

func TestMemoryDB_Tx(t *testing.T) {
	db := New()
	tx, err := db.StartTx()
	require.NoError(t, err)
	require.NoError(t, tx.Write([]byte("a"), &testRecord{Name: "a"}))
	// not visible before commit
	require.True(t, db.Empty())
	require.NoError(t, tx.Commit())
	require.False(t, db.Empty())

	tx, err = db.StartTx()
	require.NoError(t, err)
	require.NoError(t, tx.Delete([]byte("a")))
	require.NoError(t, tx.Rollback())
	require.False(t, db.Empty())
	require.ErrorContains(t, tx.Write([]byte("b"), &testRecord{}), "tx closed")
}

func TestMemoryDB_MockWriteError(t *testing.T) {
	db := New()
	expErr := errors.New("disk full")
	db.MockWriteError(expErr)
	require.ErrorIs(t, db.Write([]byte("a"), &testRecord{}), expErr)
	tx, err := db.StartTx()
	require.NoError(t, err)
	require.ErrorIs(t, tx.Write([]byte("a"), &testRecord{}), expErr)
	require.NoError(t, tx.Rollback())

	db.MockWriteError(nil)
	require.NoError(t, db.Write([]byte("a"), &testRecord{}))
}
