// Package repositories persists users, rooms and messages in BadgerDB.
// Values are JSON documents; keys embed a zero-padded creation timestamp
// wherever a prefix scan must come back in chronological order.
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Badger detects read-write conflicts between concurrent transactions.
// A conflicted read-modify-write (two users joining the same room at once)
// is retried, which gives the participant set compare-and-set semantics.
// Under contention only one writer commits per round, so the cap must
// exceed any realistic number of simultaneous writers on one key.
const maxTxnRetries = 64

func runUpdate(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxTxnRetries; i++ {
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return txn.Set(key, data)
}

func getJSON(txn *badger.Txn, key []byte, out any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

// padTime formats a timestamp as 19 zero-padded digits of UnixNano so
// lexicographic key order matches chronological order.
func padTime(t time.Time) string {
	return fmt.Sprintf("%019d", t.UnixNano())
}
