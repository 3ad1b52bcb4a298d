// Package store is the string keyed persistence behind the ledger.
package store

import "errors"

var ErrNotFound = errors.New("store: key not found")

// KV reads and writes string values by key.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Close() error
}
