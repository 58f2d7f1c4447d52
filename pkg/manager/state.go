package manager

import (
	"fmt"

	"craftd/pkg/codec"
	"craftd/pkg/logger"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
)

// serverSnapshot is the per-instance metadata persisted across daemon
// restarts. Runtime state is deliberately absent: a restarted daemon never
// claims a process it did not spawn, so every instance rehydrates Stopped.
type serverSnapshot struct {
	Status    codec.ServerState `cbor:"status"`
	LastError string            `cbor:"last_error"`
	Version   string            `cbor:"version"`
}

// StateStore wraps the on-disk snapshot database.
type StateStore struct {
	db *badger.DB
}

func OpenStateStore(dir string) (*StateStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	return &StateStore{db: db}, nil
}

func (st *StateStore) Close() error {
	return st.db.Close()
}

// Save snapshots every registered instance in one transaction.
func (st *StateStore) Save(reg *Registry) error {
	enc, err := codec.GetEncoder()
	if err != nil {
		return err
	}

	return st.db.Update(func(txn *badger.Txn) error {
		for _, inst := range reg.All() {
			snap := serverSnapshot{
				Status:    inst.Status(),
				LastError: inst.LastError(),
				Version:   inst.Version(),
			}
			data, err := enc.Marshal(snap)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(inst.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Restore merges stored metadata into already-registered instances.
// Snapshots for instances no longer on disk are ignored.
func (st *StateStore) Restore(reg *Registry) error {
	log := logger.Logging("state")

	return st.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			id := string(item.Key())

			inst, err := reg.Get(id)
			if err != nil {
				continue
			}

			err = item.Value(func(val []byte) error {
				var snap serverSnapshot
				if err := cbor.Unmarshal(val, &snap); err != nil {
					return err
				}
				inst.restoreState(snap.Version, snap.LastError)
				return nil
			})
			if err != nil {
				log.Warnf("Skipping corrupt snapshot for %s: %v", id, err)
			}
		}
		return nil
	})
}
