package container

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

func containerKey(id string) []byte {
	return []byte("container:" + id)
}

func (s *BadgerStore) Load(id string) ([]byte, error) {
	var result []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(containerKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		result, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *BadgerStore) Save(id string, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(containerKey(id), data)
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
