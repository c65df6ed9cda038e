package ledger

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/classroom-attendance/internal/models"
)

func TestTryRecordIdempotent(t *testing.T) {
	l := New()
	ts := time.Date(2026, 10, 19, 9, 10, 0, 0, time.UTC)

	assert.True(t, l.TryRecord("alice", "2026-10-19", "1", ts))
	for i := 1; i <= 5; i++ {
		assert.False(t, l.TryRecord("alice", "2026-10-19", "1", ts.Add(time.Duration(i)*time.Second)))
	}

	snap := l.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, ts, snap[0].Timestamp, "первая отметка не перезаписывается")
	assert.True(t, l.Has(models.RecordKey{Identity: "alice", Date: "2026-10-19", PeriodID: "1"}))
}

func TestTryRecordDistinctKeys(t *testing.T) {
	l := New()
	ts := time.Now()

	assert.True(t, l.TryRecord("alice", "2026-10-19", "1", ts))
	assert.True(t, l.TryRecord("alice", "2026-10-19", "2", ts))
	assert.True(t, l.TryRecord("alice", "2026-10-20", "1", ts))
	assert.True(t, l.TryRecord("bob", "2026-10-19", "1", ts))
	assert.Equal(t, 4, l.Len())
}

func TestSnapshotIsCopyInInsertionOrder(t *testing.T) {
	l := New()
	ts := time.Now()
	for _, who := range []string{"carol", "alice", "bob"} {
		l.TryRecord(who, "2026-10-19", "1", ts)
	}

	snap := l.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []string{"carol", "alice", "bob"}, []string{snap[0].Identity, snap[1].Identity, snap[2].Identity})

	snap[0].Identity = "mallory"
	assert.Equal(t, "carol", l.Snapshot()[0].Identity)
}

func TestTryRecordParallel(t *testing.T) {
	l := New()
	ts := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	inserted := 0
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if l.TryRecord(fmt.Sprintf("student-%d", i%50), "2026-10-19", "1", ts) {
					mu.Lock()
					inserted++
					mu.Unlock()
				}
				_ = l.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, inserted)
	assert.Equal(t, 50, l.Len())

	seen := map[models.RecordKey]bool{}
	for _, r := range l.Snapshot() {
		require.False(t, seen[r.Key()], "дубликат %v", r.Key())
		seen[r.Key()] = true
	}
}
