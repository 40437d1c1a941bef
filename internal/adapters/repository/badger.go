package repository

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/okian/gigrec/internal/domain/model"
	"github.com/okian/gigrec/pkg/metrics"
)

const (
	itemKeyPrefix  = "item:"
	eventKeyPrefix = "event:"
	eventSeqKey    = "seq:event"
	seqBandwidth   = 1000
)

// BadgerStore persists records in BadgerDB. Items live under
// item:<kind>:<id>; events under event:<big-endian sequence> so that key
// order is append order.
type BadgerStore struct {
	db     *badger.DB
	seq    *badger.Sequence
	closed atomic.Bool
}

// OpenBadgerStore opens (or creates) a store at path. An empty path opens
// an in-memory database.
func OpenBadgerStore(path string, opts ...BadgerOption) (*BadgerStore, error) {
	cfg := badgerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	bopts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithSyncWrites(cfg.syncWrites)
	if path == "" {
		bopts = bopts.WithInMemory(true)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	seq, err := db.GetSequence([]byte(eventSeqKey), seqBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("event sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq}, nil
}

func (s *BadgerStore) SaveItem(ctx context.Context, item model.Item) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := checkItem(item); err != nil {
		return err
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(itemKey(item.Kind, item.ID)), data)
	})
	if err != nil {
		metrics.RecordStoreError("save_item")
		return fmt.Errorf("set item %q: %w", item.ID, err)
	}
	return nil
}

func (s *BadgerStore) AppendEvent(ctx context.Context, ev model.Event) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := checkEvent(ev); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	n, err := s.seq.Next()
	if err != nil {
		metrics.RecordStoreError("append_event")
		return fmt.Errorf("next event sequence: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(n), data)
	})
	if err != nil {
		metrics.RecordStoreError("append_event")
		return fmt.Errorf("set event: %w", err)
	}
	return nil
}

func (s *BadgerStore) Load(ctx context.Context, v Visitor) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if v.Item != nil {
		err := s.scan(ctx, itemKeyPrefix, func(val []byte) error {
			var it model.Item
			if err := json.Unmarshal(val, &it); err != nil {
				return fmt.Errorf("decode item: %w", err)
			}
			return v.Item(it)
		})
		if err != nil {
			return err
		}
	}
	if v.Event != nil {
		return s.scan(ctx, eventKeyPrefix, func(val []byte) error {
			var ev model.Event
			if err := json.Unmarshal(val, &ev); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}
			return v.Event(ev)
		})
	}
	return nil
}

// scan decodes values under prefix inside one read transaction. Values are
// copied out before fn runs so callbacks may be slow.
func (s *BadgerStore) scan(ctx context.Context, prefix string, fn func([]byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read %s: %w", prefix, err)
			}
			if err := fn(val); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) Stats(ctx context.Context) (Stats, error) {
	if s.closed.Load() {
		return Stats{}, ErrClosed
	}
	var st Stats
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for _, p := range []struct {
			prefix []byte
			n      *int
		}{{[]byte(itemKeyPrefix), &st.Items}, {[]byte(eventKeyPrefix), &st.Events}} {
			for it.Seek(p.prefix); it.ValidForPrefix(p.prefix); it.Next() {
				*p.n++
			}
		}
		return nil
	})
	return st, err
}

func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	seqErr := s.seq.Release()
	dbErr := s.db.Close()
	return errors.Join(seqErr, dbErr)
}

func eventKey(n uint64) []byte {
	key := make([]byte, len(eventKeyPrefix)+8)
	copy(key, eventKeyPrefix)
	binary.BigEndian.PutUint64(key[len(eventKeyPrefix):], n)
	return key
}
