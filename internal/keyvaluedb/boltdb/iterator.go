package boltdb

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// Itr iterates over the bucket inside a read-only bolt transaction. The transaction
// is held open until Close is called.
type Itr struct {
	tx      *bolt.Tx
	cursor  *bolt.Cursor
	key     []byte
	value   []byte
	decoder DecodeFn
}

func NewIterator(db *bolt.DB, bucket []byte, d DecodeFn) *Itr {
	tx, err := db.Begin(false)
	if err != nil {
		return &Itr{}
	}
	b := tx.Bucket(bucket)
	if b == nil {
		_ = tx.Rollback()
		return &Itr{}
	}
	return &Itr{tx: tx, cursor: b.Cursor(), decoder: d}
}

func (it *Itr) first() {
	if it.cursor == nil {
		return
	}
	it.key, it.value = it.cursor.First()
}

func (it *Itr) seek(key []byte) {
	if it.cursor == nil {
		return
	}
	it.key, it.value = it.cursor.Seek(key)
}

func (it *Itr) Next() {
	if !it.Valid() {
		return
	}
	it.key, it.value = it.cursor.Next()
}

func (it *Itr) Valid() bool {
	return it.key != nil
}

func (it *Itr) Key() []byte {
	return it.key
}

func (it *Itr) Value(v any) error {
	if !it.Valid() {
		return fmt.Errorf("iterator invalid")
	}
	return it.decoder(it.value, v)
}

func (it *Itr) Close() error {
	it.key, it.value = nil, nil
	it.cursor = nil
	if it.tx == nil {
		return nil
	}
	tx := it.tx
	it.tx = nil
	return tx.Rollback()
}
