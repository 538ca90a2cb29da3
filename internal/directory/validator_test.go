package directory

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukpostcodes/internal/corpus"
	"github.com/ukpostcodes/internal/corpus/corpustest"
)

type countingCorpus struct {
	corpus.Corpus
	calls atomic.Int32
	fail  atomic.Bool
	gate  chan struct{}
}

func (c *countingCorpus) Lookup(ctx context.Context, pc string) (*corpus.Record, error) {
	c.calls.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.fail.Load() {
		return nil, errors.New("connection reset")
	}
	return c.Corpus.Lookup(ctx, pc)
}

func TestCheck(t *testing.T) {
	v := New(corpustest.Memory())
	ctx := context.Background()

	status, rec := v.Check(ctx, "sw1a 1aa")
	assert.Equal(t, Found, status)
	require.NotNil(t, rec)
	assert.Equal(t, "SW1A 1AA", rec.Postcode)

	status, rec = v.Check(ctx, "ZZ99 9ZZ")
	assert.Equal(t, NotFound, status)
	assert.Nil(t, rec)
}

func TestCheckUnavailable(t *testing.T) {
	ctx := context.Background()

	status, _ := New(corpustest.Broken{}).Check(ctx, "SW1A 1AA")
	assert.Equal(t, Unavailable, status)

	status, _ = New(nil).Check(ctx, "SW1A 1AA")
	assert.Equal(t, Unavailable, status)

	_, err := New(nil).Lookup(ctx, "SW1A 1AA")
	assert.ErrorIs(t, err, corpus.ErrUnavailable)
}

func TestMemoisesAnswers(t *testing.T) {
	c := &countingCorpus{Corpus: corpustest.Memory()}
	v := New(c)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := v.Lookup(ctx, "SW1A 1AA")
		require.NoError(t, err)
		_, err = v.Lookup(ctx, "sw1a1aa")
		require.NoError(t, err)
		rec, err := v.Lookup(ctx, "ZZ99 9ZZ")
		require.NoError(t, err)
		assert.Nil(t, rec)
	}
	assert.Equal(t, int32(2), c.calls.Load())
	assert.Equal(t, 2, v.Cached())
}

func TestFailuresAreNotCached(t *testing.T) {
	c := &countingCorpus{Corpus: corpustest.Memory()}
	c.fail.Store(true)
	v := New(c)
	ctx := context.Background()

	_, err := v.Lookup(ctx, "SW1A 1AA")
	assert.ErrorIs(t, err, corpus.ErrUnavailable)

	c.fail.Store(false)
	rec, err := v.Lookup(ctx, "SW1A 1AA")
	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, int32(2), c.calls.Load())
}

func TestCacheSize(t *testing.T) {
	c := &countingCorpus{Corpus: corpustest.Memory()}
	v := New(c, WithCacheSize(0))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := v.Lookup(ctx, "E3 4SS")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), c.calls.Load())
	assert.Equal(t, 0, v.Cached())

	v = New(corpustest.Memory(), WithCacheSize(1))
	_, _ = v.Lookup(ctx, "E3 4SS")
	_, _ = v.Lookup(ctx, "N1 9AA")
	assert.Equal(t, 1, v.Cached())
}

func TestCoalescesConcurrentLookups(t *testing.T) {
	c := &countingCorpus{Corpus: corpustest.Memory(), gate: make(chan struct{})}
	v := New(c, WithCacheSize(0))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, _ := v.Check(ctx, "N1 9AA")
			assert.Equal(t, Found, status)
		}()
	}
	// Wait until the first lookup is in flight, then release it.
	for c.calls.Load() == 0 {
		runtime.Gosched()
	}
	close(c.gate)
	wg.Wait()

	assert.LessOrEqual(t, c.calls.Load(), int32(8))
	assert.GreaterOrEqual(t, c.calls.Load(), int32(1))
}

func TestCancelledCallerLeavesSharedLookupRunning(t *testing.T) {
	c := &countingCorpus{Corpus: corpustest.Memory(), gate: make(chan struct{})}
	v := New(c, WithCacheSize(0))

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan Status, 1)
	go func() {
		status, _ := v.Check(ctx, "N1 9AA")
		first <- status
	}()
	for c.calls.Load() == 0 {
		runtime.Gosched()
	}

	second := make(chan Status, 1)
	go func() {
		status, _ := v.Check(context.Background(), "N1 9AA")
		second <- status
	}()

	cancel()
	assert.Equal(t, Unavailable, <-first)

	close(c.gate)
	assert.Equal(t, Found, <-second)
}

func TestStatusText(t *testing.T) {
	text, err := Unavailable.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "unavailable", string(text))
	assert.Equal(t, "found", Found.String())
	assert.Equal(t, "not_found", NotFound.String())
}
