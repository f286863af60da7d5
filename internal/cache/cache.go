// Package cache persists analyzed positions in BadgerDB. Each entry is
// keyed by position hash and holds the compressed serialized position
// plus one result slot per analysis kind; new kinds update the entry in
// place, so one position accumulates alpha-beta, MCTS and endgame results
// over time without ever losing an earlier one.
package cache

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
)

// Analysis kinds, one result slot each per entry.
const (
	KindAlphaBeta = "alphabeta"
	KindMCTS      = "mcts"
	KindEndgame   = "endgame"
)

// Entry is the stored value for one position.
type Entry struct {
	Codec    Codec                      `json:"codec"`
	Checksum uint64                     `json:"checksum"` // xxhash of the uncompressed position text
	Position []byte                     `json:"position"` // compressed serialized position
	Created  time.Time                  `json:"created"`
	Accessed time.Time                  `json:"accessed"`
	Analyses map[string]json.RawMessage `json:"analyses"`
}

// Result unmarshals the analysis slot for the given kind into out.
// Returns false when the slot is empty.
func (e *Entry) Result(kind string, out any) (bool, error) {
	raw, ok := e.Analyses[kind]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("cache: corrupt %s result: %w", kind, err)
	}
	return true, nil
}

// PutItem is one position-result pair for BulkPut.
type PutItem struct {
	Hash     uint64
	Position string
	Kind     string
	Result   any
}

// Stats summarizes cache effectiveness.
type Stats struct {
	Entries          int     `json:"entries"`
	Hits             uint64  `json:"hits"`
	Misses           uint64  `json:"misses"`
	HitRate          float64 `json:"hit_rate"`          // percentage
	CompressionRatio float64 `json:"compression_ratio"` // stored bytes / raw bytes
}

// Cache wraps BadgerDB for persistent position storage.
type Cache struct {
	db    *badger.DB
	codec Codec
	comp  *compressor

	// Statistics (atomic for thread-safety)
	hits      atomic.Uint64
	misses    atomic.Uint64
	rawBytes  atomic.Uint64
	heldBytes atomic.Uint64
}

// Open opens (or creates) the cache at dir with the given codec for new
// entries. level is the zstd level; 0 selects the library default and it
// is ignored by the other codecs.
func Open(dir string, codec Codec, level int) (*Cache, error) {
	comp, err := newCompressor(level)
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		comp.close()
		return nil, fmt.Errorf("cache: open %s: %w", dir, err)
	}

	return &Cache{db: db, codec: codec, comp: comp}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	c.comp.close()
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func entryKey(hash uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], hash)
	return k[:]
}

// Get fetches the entry for a position hash. Reads run in a read-only
// transaction so concurrent Gets never conflict; the access timestamp is
// refreshed best-effort afterwards. The second return is false on a miss.
func (c *Cache) Get(hash uint64) (*Entry, bool, error) {
	var entry *Entry

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(hash))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		var e Entry
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		}); err != nil {
			return err
		}

		entry = &e
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %016x: %w", hash, err)
	}

	if entry == nil {
		c.misses.Add(1)
		return nil, false, nil
	}
	c.hits.Add(1)
	c.touch(hash)
	return entry, true, nil
}

// touch refreshes an entry's access timestamp. The stamp is advisory, so
// a lost race with a concurrent writer is simply dropped.
func (c *Cache) touch(hash uint64) {
	_ = c.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(hash))
		if err != nil {
			return err
		}
		var e Entry
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		}); err != nil {
			return err
		}
		e.Accessed = time.Now().UTC()
		data, err := json.Marshal(&e)
		if err != nil {
			return err
		}
		return txn.Set(entryKey(hash), data)
	})
}

// Position decompresses an entry's position text and verifies it against
// the stored checksum.
func (c *Cache) Position(e *Entry) (string, error) {
	raw, err := c.comp.decompress(e.Codec, e.Position)
	if err != nil {
		return "", err
	}
	if sum := xxhash.Sum64(raw); sum != e.Checksum {
		return "", fmt.Errorf("cache: checksum mismatch: stored %016x, computed %016x", e.Checksum, sum)
	}
	return string(raw), nil
}

// Put stores one analysis result for a position, creating the entry on
// first write and filling only the named slot on later ones. The whole
// upsert is a single transaction.
func (c *Cache) Put(hash uint64, position string, kind string, result any) error {
	return c.putTxnWrapped(func(txn *badger.Txn) error {
		return c.put(txn, hash, position, kind, result)
	})
}

// BulkPut stores many results in one transaction. Either all items land
// or none do.
func (c *Cache) BulkPut(items []PutItem) error {
	return c.putTxnWrapped(func(txn *badger.Txn) error {
		for _, it := range items {
			if err := c.put(txn, it.Hash, it.Position, it.Kind, it.Result); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Cache) putTxnWrapped(fn func(txn *badger.Txn) error) error {
	if err := c.db.Update(fn); err != nil {
		return fmt.Errorf("cache: put: %w", err)
	}
	return nil
}

func (c *Cache) put(txn *badger.Txn, hash uint64, position, kind string, result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	entry := Entry{
		Codec:    c.codec,
		Created:  now,
		Analyses: make(map[string]json.RawMessage),
	}

	item, err := txn.Get(entryKey(hash))
	switch err {
	case nil:
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		}); err != nil {
			return err
		}
	case badger.ErrKeyNotFound:
		compressed, err := c.comp.compress(c.codec, []byte(position))
		if err != nil {
			return err
		}
		entry.Checksum = xxhash.Sum64String(position)
		entry.Position = compressed
		c.rawBytes.Add(uint64(len(position)))
		c.heldBytes.Add(uint64(len(compressed)))
	default:
		return err
	}

	if entry.Analyses == nil {
		entry.Analyses = make(map[string]json.RawMessage)
	}
	entry.Analyses[kind] = raw
	entry.Accessed = now

	data, err := json.Marshal(&entry)
	if err != nil {
		return err
	}
	return txn.Set(entryKey(hash), data)
}

// Delete removes an entry. Deleting a missing hash is not an error.
func (c *Cache) Delete(hash uint64) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(entryKey(hash))
	})
	if err != nil {
		return fmt.Errorf("cache: delete %016x: %w", hash, err)
	}
	return nil
}

// BulkGet fetches many entries in one read transaction. Missing hashes
// are simply absent from the result; access timestamps are not touched.
func (c *Cache) BulkGet(hashes []uint64) (map[uint64]*Entry, error) {
	out := make(map[uint64]*Entry, len(hashes))

	err := c.db.View(func(txn *badger.Txn) error {
		for _, hash := range hashes {
			item, err := txn.Get(entryKey(hash))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			var e Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			out[hash] = &e
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cache: bulk get: %w", err)
	}
	return out, nil
}

// Stats counts entries and reports hit rate and compression ratio for
// this process's lifetime.
func (c *Cache) Stats() (Stats, error) {
	st := Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}

	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			st.Entries++
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("cache: stats: %w", err)
	}

	if total := st.Hits + st.Misses; total > 0 {
		st.HitRate = float64(st.Hits) / float64(total) * 100
	}
	if raw := c.rawBytes.Load(); raw > 0 {
		st.CompressionRatio = float64(c.heldBytes.Load()) / float64(raw)
	}
	return st, nil
}
