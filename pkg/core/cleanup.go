package core

import (
	"context"
	"sort"
	"time"

	"github.com/oceanbase/decaymem-go/pkg/intelligence"
	"github.com/oceanbase/decaymem-go/pkg/storage"
)

type scoredRecord struct {
	id       string
	strength float64
}

// Cleanup evicts memories. After a pass with no concurrent writers, no
// memory is weaker than memory.min_strength and at most memory.max_memories
// remain.
//
// Each pass scans up to max_memories + cleanup_margin records, sorts them by
// ascending strength and deletes in that order while a record is below the
// threshold or the store is over capacity. Deleting an id that is already
// gone is a no-op. Failed delete batches are logged and counted in
// CleanupResult.Failed; they do not fail the call.
//
// Concurrent calls share one pass. The pass is detached from ctx, so a
// caller that gives up does not interrupt deletes in progress.
func (c *Client) Cleanup(ctx context.Context) (*CleanupResult, error) {
	const op = "Cleanup"
	if !c.IsAvailable() {
		return nil, NewMemoryError(op, ErrNotAvailable)
	}

	ch := c.cleanups.DoChan("cleanup", func() (interface{}, error) {
		return c.cleanup(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, NewMemoryError(op, res.Err)
		}
		return res.Val.(*CleanupResult), nil
	case <-ctx.Done():
		return nil, NewMemoryError(op, ctx.Err())
	}
}

func (c *Client) cleanup(ctx context.Context) (*CleanupResult, error) {
	ctx, span := c.obs.StartSpan(ctx, "decaymem.Cleanup")
	defer span.End()

	total := &CleanupResult{}
	for {
		res, done, err := c.cleanupPass(ctx)
		if err != nil {
			return nil, err
		}
		total.Scanned += res.Scanned
		total.Deleted += res.Deleted
		total.Failed += res.Failed
		total.DeletedIDs = append(total.DeletedIDs, res.DeletedIDs...)
		if done || res.Deleted == 0 {
			break
		}
	}

	if total.Deleted > 0 || total.Failed > 0 {
		c.obs.Log().Info().
			Int("scanned", total.Scanned).
			Int("deleted", total.Deleted).
			Int("failed", total.Failed).
			Msg("memory cleanup")
	}
	return total, nil
}

// cleanupPass runs one scan and delete round. done reports that the scan
// came back short of its limit, so it covered every stored memory. A full
// scan may have left records unseen, even when the deletes already brought
// the count under capacity, and those can still be below the threshold.
func (c *Client) cleanupPass(ctx context.Context) (*CleanupResult, bool, error) {
	limit := c.cfg.Memory.MaxMemories + c.cfg.Memory.CleanupMargin

	scanCtx, cancel := c.withTimeout(ctx)
	records, err := c.index.Scroll(scanCtx, limit)
	cancel()
	if err != nil {
		return nil, true, dependencyError("vector index", err)
	}

	countCtx, cancel := c.withTimeout(ctx)
	remaining, err := c.index.Count(countCtx)
	cancel()
	if err != nil {
		c.obs.Log().Warn().Err(err).Msg("count failed, using scan size")
		remaining = len(records)
	}
	if remaining < len(records) {
		remaining = len(records)
	}

	victims := c.selectVictims(records, remaining, c.now())
	res := &CleanupResult{Scanned: len(records)}
	c.deleteAll(ctx, victims, res)

	done := len(records) < limit
	return res, done, nil
}

// selectVictims returns the ids to delete: weakest first, while a record is
// below the threshold or the store holds more than max_memories.
func (c *Client) selectVictims(records []*storage.Record, remaining int, now time.Time) []string {
	scored := make([]scoredRecord, len(records))
	for i, r := range records {
		m := fromPayload(r.ID, r.Payload)
		scored[i] = scoredRecord{id: r.ID, strength: c.scorer.Strength(m.signals(), now)}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].strength != scored[j].strength {
			return scored[i].strength < scored[j].strength
		}
		return scored[i].id < scored[j].id
	})

	var victims []string
	for _, s := range scored {
		if s.strength >= c.cfg.Memory.MinStrength && remaining <= c.cfg.Memory.MaxMemories {
			break
		}
		victims = append(victims, s.id)
		remaining--
	}
	return victims
}

func (c *Client) deleteAll(ctx context.Context, ids []string, res *CleanupResult) {
	size := c.cfg.Memory.DeleteBatchSize
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		delCtx, cancel := c.withTimeout(ctx)
		err := c.index.Delete(delCtx, batch)
		cancel()
		if err != nil {
			res.Failed += len(batch)
			c.obs.Log().Warn().Err(err).Int("batch", len(batch)).Msg("failed to delete memories")
			continue
		}
		res.Deleted += len(batch)
		res.DeletedIDs = append(res.DeletedIDs, batch...)
	}
}

// Stats summarizes every stored memory at the current time.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	const op = "Stats"
	if !c.IsAvailable() {
		return nil, NewMemoryError(op, ErrNotAvailable)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	records, err := c.index.Scroll(ctx, 0)
	if err != nil {
		return nil, NewMemoryError(op, dependencyError("vector index", err))
	}

	stats := &Stats{
		TotalMemories: len(records),
		Tiers:         make(map[intelligence.Tier]int, len(intelligence.AllTiers)),
	}
	for _, tier := range intelligence.AllTiers {
		stats.Tiers[tier] = 0
	}
	if len(records) == 0 {
		return stats, nil
	}

	now := c.now()
	stats.MinStrength = 1
	var sumStrength, sumAge float64
	for _, r := range records {
		m := fromPayload(r.ID, r.Payload)
		s := c.scorer.Strength(m.signals(), now)

		sumStrength += s
		if !m.CreatedAt.IsZero() {
			sumAge += now.Sub(m.CreatedAt).Hours() / 24
		}
		if s < stats.MinStrength {
			stats.MinStrength = s
		}
		if s > stats.MaxStrength {
			stats.MaxStrength = s
		}
		if s < c.cfg.Memory.MinStrength {
			stats.WeakMemories++
		}
		stats.Tiers[c.scorer.Classify(s)]++
	}
	n := float64(len(records))
	stats.AvgStrength = sumStrength / n
	stats.AvgAgeDays = sumAge / n
	return stats, nil
}
