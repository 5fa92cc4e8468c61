package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 64

// Cursor walks a sorted-set index in ascending primary-ID order, fetching
// members in batches so unbounded scans never materialize fully.
type Cursor struct {
	rdb  *redis.Client
	key  string
	min  string
	buf  []uint64
	done bool
}

func newCursor(rdb *redis.Client, key string, after uint64) *Cursor {
	return &Cursor{rdb: rdb, key: key, min: fmt.Sprintf("(%d", after)}
}

// Next yields the next ID. The second return is false once the scan is
// exhausted.
func (cu *Cursor) Next(ctx context.Context) (uint64, bool, error) {
	if len(cu.buf) == 0 {
		if cu.done {
			return 0, false, nil
		}
		if err := cu.refill(ctx); err != nil {
			return 0, false, err
		}
		if len(cu.buf) == 0 {
			return 0, false, nil
		}
	}
	id := cu.buf[0]
	cu.buf = cu.buf[1:]
	return id, true, nil
}

func (cu *Cursor) refill(ctx context.Context) error {
	members, err := cu.rdb.ZRangeByScore(ctx, cu.key, &redis.ZRangeBy{
		Min:   cu.min,
		Max:   "+inf",
		Count: scanBatch,
	}).Result()
	if err != nil {
		return err
	}
	if len(members) < scanBatch {
		cu.done = true
	}
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			return fmt.Errorf("corrupt index member %q in %s: %w", m, cu.key, err)
		}
		cu.buf = append(cu.buf, id)
	}
	if n := len(cu.buf); n > 0 {
		cu.min = fmt.Sprintf("(%d", cu.buf[n-1])
	}
	return nil
}
