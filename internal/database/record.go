package database

import (
	"bytes"
	"errors"
	"fmt"

	xdr "github.com/davecgh/go-xdr/xdr2"
	badger "github.com/dgraph-io/badger/v3"
)

func getRecord[T any](db *DB, key string) (*T, error) {
	var rec *T
	err := db.DB.View(func(txn *badger.Txn) error {
		v, err := txn.Get([]byte(key))
		if err != nil {
			return fmt.Errorf("can't get value from storage: %w", err)
		}
		b, err := v.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("can't copy value: %w", err)
		}
		// a corrupted length prefix must not allocate past the stored size
		dec := xdr.NewDecoderLimited(bytes.NewReader(b), uint(len(b)))
		_, err = dec.Decode(&rec)
		if err != nil {
			return fmt.Errorf("can't unmarshal value: %w", err)
		}
		return nil
	})
	return rec, err
}

func saveRecord[T any](db *DB, key string, rec *T) error {
	err := db.DB.Update(func(txn *badger.Txn) error {
		var w bytes.Buffer
		_, err := xdr.Marshal(&w, rec)
		if err != nil {
			return fmt.Errorf("can't marshal value: %w", err)
		}
		err = txn.Set([]byte(key), w.Bytes())
		if err != nil {
			return fmt.Errorf("can't save value to storage: %w", err)
		}
		return nil
	})
	return err
}

func deleteRecord(db *DB, key string) error {
	err := db.DB.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(key))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("can't delete value from storage: %w", err)
		}
		return nil
	})
	return err
}
