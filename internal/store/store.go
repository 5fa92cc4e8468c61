package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a primary record does not exist.
var ErrNotFound = staticErr("record not found")

type staticErr string

func (e staticErr) Error() string { return string(e) }

// OpenKey is the reserved index key for entities whose indexed field is unset,
// so "all open challenges" stays an ordinary indexed range scan.
const OpenKey = "open"

// Index derives a secondary key from an entity. Returning "" is not allowed;
// use OpenKey for the absent case.
type Index[T any] struct {
	Name string
	Key  func(*T) string
}

// Collection is a keyed entity map (uint64 → T, stored as JSON) with an
// all-IDs sorted set and zero or more secondary sorted-set indexes. Index
// members are scored by primary ID, so every range scan over a fixed index
// key comes back in ascending primary-ID order.
type Collection[T any] struct {
	rdb     *redis.Client
	name    string
	id      func(*T) uint64
	indexes []Index[T]
}

func NewCollection[T any](rdb *redis.Client, name string, id func(*T) uint64, indexes ...Index[T]) *Collection[T] {
	return &Collection[T]{rdb: rdb, name: name, id: id, indexes: indexes}
}

func (c *Collection[T]) keyItem(id uint64) string { return fmt.Sprintf("chess:%s:item:%d", c.name, id) }
func (c *Collection[T]) keyIDs() string           { return "chess:" + c.name + ":ids" }
func (c *Collection[T]) keySeq() string           { return "chess:" + c.name + ":seq" }
func (c *Collection[T]) keyIdx(name, key string) string {
	return "chess:" + c.name + ":idx:" + name + ":" + key
}

// NextID allocates a fresh monotonic ID. IDs start at 1 and are never reused;
// the counter lives in the same store as the entities.
func (c *Collection[T]) NextID(ctx context.Context) (uint64, error) {
	n, err := c.rdb.Incr(ctx, c.keySeq()).Result()
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}

func (c *Collection[T]) Get(ctx context.Context, id uint64) (*T, error) {
	raw, err := c.rdb.Get(ctx, c.keyItem(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ItemKey exposes the primary key for an ID so callers can WATCH it in
// transactions that span collections.
func (c *Collection[T]) ItemKey(id uint64) string { return c.keyItem(id) }

// PutTx queues the primary write plus every index delta on an open pipeline.
// old carries the previous version for index reconciliation (nil on insert).
func (c *Collection[T]) PutTx(ctx context.Context, pipe redis.Pipeliner, v, old *T) error {
	id := c.id(v)
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	member := strconv.FormatUint(id, 10)
	pipe.Set(ctx, c.keyItem(id), raw, 0)
	pipe.ZAdd(ctx, c.keyIDs(), redis.Z{Score: float64(id), Member: member})
	for _, idx := range c.indexes {
		newKey := idx.Key(v)
		if old != nil {
			if oldKey := idx.Key(old); oldKey != newKey {
				pipe.ZRem(ctx, c.keyIdx(idx.Name, oldKey), member)
			}
		}
		pipe.ZAdd(ctx, c.keyIdx(idx.Name, newKey), redis.Z{Score: float64(id), Member: member})
	}
	return nil
}

// DeleteTx queues removal of the entity and all of its index entries.
func (c *Collection[T]) DeleteTx(ctx context.Context, pipe redis.Pipeliner, old *T) {
	id := c.id(old)
	member := strconv.FormatUint(id, 10)
	pipe.Del(ctx, c.keyItem(id))
	pipe.ZRem(ctx, c.keyIDs(), member)
	for _, idx := range c.indexes {
		pipe.ZRem(ctx, c.keyIdx(idx.Name, idx.Key(old)), member)
	}
}

// Put writes the entity and reconciles every secondary index in one
// MULTI/EXEC pipeline guarded by WATCH on the primary key. The primary record
// and its index entries are never observably out of sync.
func (c *Collection[T]) Put(ctx context.Context, v *T) error {
	itemKey := c.keyItem(c.id(v))
	return c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		old, err := c.loadTx(ctx, tx, itemKey)
		if err != nil {
			return err
		}
		pipe := tx.TxPipeline()
		if err := c.PutTx(ctx, pipe, v, old); err != nil {
			return err
		}
		_, err = pipe.Exec(ctx)
		return err
	}, itemKey)
}

// Delete removes the entity and all of its index entries atomically.
func (c *Collection[T]) Delete(ctx context.Context, id uint64) error {
	itemKey := c.keyItem(id)
	return c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		old, err := c.loadTx(ctx, tx, itemKey)
		if err != nil {
			return err
		}
		if old == nil {
			return ErrNotFound
		}
		pipe := tx.TxPipeline()
		c.DeleteTx(ctx, pipe, old)
		_, err = pipe.Exec(ctx)
		return err
	}, itemKey)
}

// Update runs fn against the current entity under an optimistic transaction
// and persists the result with index reconciliation. When fn returns an error
// nothing is written; domain errors pass through to the caller unchanged.
func (c *Collection[T]) Update(ctx context.Context, id uint64, fn func(*T) error) (*T, error) {
	itemKey := c.keyItem(id)
	var out *T
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		old, err := c.loadTx(ctx, tx, itemKey)
		if err != nil {
			return err
		}
		if old == nil {
			return ErrNotFound
		}
		cur := *old
		if err := fn(&cur); err != nil {
			return err
		}
		pipe := tx.TxPipeline()
		if err := c.PutTx(ctx, pipe, &cur, old); err != nil {
			return err
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		out = &cur
		return nil
	}, itemKey)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Scan returns a lazy ascending-ID cursor over one index key. An empty index
// name scans the whole collection. after is an exclusive lower bound pushed
// into the range query itself, not applied post-hoc.
func (c *Collection[T]) Scan(index, key string, after uint64) *Cursor {
	zkey := c.keyIDs()
	if index != "" {
		zkey = c.keyIdx(index, key)
	}
	return newCursor(c.rdb, zkey, after)
}

// Count reports the number of entities in the collection.
func (c *Collection[T]) Count(ctx context.Context) (int64, error) {
	return c.rdb.ZCard(ctx, c.keyIDs()).Result()
}

func (c *Collection[T]) loadTx(ctx context.Context, tx *redis.Tx, key string) (*T, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
