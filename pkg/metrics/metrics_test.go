package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/stash/pkg/buffer"
	"github.com/ssargent/stash/pkg/journal"
	"github.com/ssargent/stash/pkg/ring"
)

func TestJournal_RecordsRingActivity(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := NewJournal(reg)

	schema, err := ring.Compile(journal.DefaultSchemaConfig())
	require.NoError(t, err)

	buf := buffer.New(0)
	stash, err := ring.Open(schema, ring.New(), buf, journal.Config{Metrics: m})
	require.NoError(t, err)

	for _, v := range []int32{1, 2, 3} {
		_, err := stash.Store(v)
		require.NoError(t, err)
	}
	_, err = stash.Values()
	require.NoError(t, err)
	assert.ErrorIs(t, stash.Label("", 0), ring.ErrEmptyLabel)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.commitsTotal.WithLabelValues("ring", "Store")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failuresTotal.WithLabelValues("ring", "Label")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.volatileTotal.WithLabelValues("ring", "Values")))

	buf.Flip()
	_, err = ring.Open(schema, ring.New(), buf, journal.Config{Metrics: m})
	require.NoError(t, err)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.replayEntries.WithLabelValues("ring")))

	count, err := testutil.GatherAndCount(reg,
		"stash_journal_record_duration_seconds",
		"stash_journal_replay_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestJournal_Direct(t *testing.T) {
	m := NewJournal(nil)

	m.Committed("ledger", "Add", time.Millisecond)
	m.Committed("ledger", "Add", 2*time.Millisecond)
	m.Failed("ledger", "Add")
	m.Volatile("ledger", "Peek")
	m.Replayed("ledger", 42, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commitsTotal.WithLabelValues("ledger", "Add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failuresTotal.WithLabelValues("ledger", "Add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.volatileTotal.WithLabelValues("ledger", "Peek")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.replayEntries.WithLabelValues("ledger")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.recordDuration))
}

func TestNewJournal_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewJournal(reg)
	assert.Panics(t, func() { NewJournal(reg) })
}

var _ journal.Recorder = (*Journal)(nil)
