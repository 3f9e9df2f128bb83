package kv

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/eduverse/core"
)

// Adapter reads and writes JSON values over a Store.
// Missing keys read as empty values. Corrupt values are logged and read as empty values,
// unless the Adapter is strict, in which case ErrCorruptState is returned.
type Adapter struct {
	store  Store
	logger core.Logger
	strict bool
}

func NewAdapter(store Store, logger core.Logger, strict bool) *Adapter {
	return &Adapter{store: store, logger: logger, strict: strict}
}

func (a *Adapter) Store() Store { return a.store }

// read returns nil, nil if key is absent.
func (a *Adapter) read(ctx context.Context, key string) ([]byte, error) {
	data, err := a.store.Read(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "kv: reading %q", key)
	}
	return data, nil
}

func (a *Adapter) corrupt(key string, err error) error {
	if a.strict {
		return errors.Wrapf(ErrCorruptState, "kv: decoding %q: %v", key, err)
	}
	a.logger.Warn("kv: ignoring corrupt value", err, map[string]interface{}{"key": key})
	return nil
}

// GetList returns the list stored under key, or an empty list.
func GetList[T any](ctx context.Context, a *Adapter, key string) ([]T, error) {
	data, err := a.read(ctx, key)
	if err != nil {
		return nil, err
	}
	list := make([]T, 0)
	if data == nil {
		return list, nil
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return make([]T, 0), a.corrupt(key, err)
	}
	if list == nil { // "null"
		list = make([]T, 0)
	}
	return list, nil
}

// SetList stores list under key, overwriting any previous value.
func SetList[T any](ctx context.Context, a *Adapter, key string, list []T) error {
	if list == nil {
		list = make([]T, 0)
	}
	return a.SetObject(ctx, key, list)
}

// GetObject returns the object stored under key, or the zero value of T.
func GetObject[T any](ctx context.Context, a *Adapter, key string) (T, error) {
	var obj T
	data, err := a.read(ctx, key)
	if err != nil || data == nil {
		return obj, err
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		var zero T
		return zero, a.corrupt(key, err)
	}
	return obj, nil
}

// Exists reports whether key holds a value.
func (a *Adapter) Exists(ctx context.Context, key string) (bool, error) {
	data, err := a.read(ctx, key)
	return data != nil, err
}

func (a *Adapter) SetObject(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "kv: encoding %q", key)
	}
	return errors.Wrapf(a.store.Write(ctx, key, data), "kv: writing %q", key)
}

// GetString returns the raw string stored under key, or "".
func (a *Adapter) GetString(ctx context.Context, key string) (string, error) {
	data, err := a.read(ctx, key)
	return string(data), err
}

// SetString stores s as is, without JSON encoding.
func (a *Adapter) SetString(ctx context.Context, key, s string) error {
	return errors.Wrapf(a.store.Write(ctx, key, []byte(s)), "kv: writing %q", key)
}

func (a *Adapter) Remove(ctx context.Context, key string) error {
	return errors.Wrapf(a.store.Remove(ctx, key), "kv: removing %q", key)
}

func (a *Adapter) Keys(ctx context.Context) ([]string, error) {
	keys, err := a.store.Keys(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "kv: listing keys")
	}
	sort.Strings(keys)
	return keys, nil
}

// Reset wipes every key and writes entries in their place.
// String entries are stored raw, everything else is JSON encoded.
// The swap is atomic when the Store is a Batcher.
func (a *Adapter) Reset(ctx context.Context, entries map[string]interface{}) error {
	raw := make(map[string][]byte, len(entries))
	for key, v := range entries {
		if s, ok := v.(string); ok {
			raw[key] = []byte(s)
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			return errors.Wrapf(err, "kv: encoding %q", key)
		}
		raw[key] = data
	}

	if b, ok := a.store.(Batcher); ok {
		return errors.Wrap(b.Replace(ctx, raw), "kv: replacing content")
	}

	if err := a.store.Clear(ctx); err != nil {
		return errors.Wrap(err, "kv: clearing")
	}
	for key, data := range raw {
		if err := a.store.Write(ctx, key, data); err != nil {
			return errors.Wrapf(err, "kv: writing %q", key)
		}
	}
	return nil
}
