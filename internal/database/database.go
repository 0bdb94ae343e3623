package database

import (
	badger "github.com/dgraph-io/badger/v3"
)

// ErrNotFound is returned when a key is absent from the storage.
var ErrNotFound = badger.ErrKeyNotFound

type DB struct {
	DB *badger.DB
}

// New opens the key/value storage at path, or a volatile one if inMemory.
func New(path string, inMemory bool) (*DB, error) {
	if inMemory {
		path = ""
	}
	bc := badger.DefaultOptions(path).WithInMemory(inMemory)
	bc.Logger = nil
	d, err := badger.Open(bc)
	if err != nil {
		return nil, err
	}
	db := &DB{
		DB: d,
	}
	return db, err
}

func (db *DB) Close() error {
	return db.DB.Close()
}
