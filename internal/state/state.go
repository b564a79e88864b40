// Package state abstracts per-namespace key/value persistence. There is no
// query or list operation: callers that need enumeration maintain explicit
// index records (id lists) alongside their values. Writes are
// last-writer-wins per key.
package state

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("state: key not found")

// KV is one key/value pair in a batch save.
type KV struct {
	Key   string
	Value []byte
}

type Store interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Save(ctx context.Context, namespace string, kvs []KV) error
	Delete(ctx context.Context, namespace, key string) error
}

func compositeKey(namespace, key string) string {
	return namespace + "||" + key
}
