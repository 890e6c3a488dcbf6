package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cinemad/internal/ir"
	"github.com/roach88/cinemad/internal/testutil"
)

func TestSource_StartsEmpty(t *testing.T) {
	src := NewSource(SourceInfo{ID: "s"}, quiet())
	assert.NotNil(t, src.Data())
	assert.Empty(t, src.Data())
	assert.Nil(t, src.Loader())
	assert.Equal(t, int64(0), src.Generation())
}

func TestSource_LoadRoundTrip(t *testing.T) {
	want := abcd()
	loader := &staticLoader{records: want}
	info := SourceInfo{ID: "s", URI: "data/s.csv", Table: "t", Mime: "text/csv"}
	src := NewSource(info, quiet(), WithLoader(loader))

	src.Load(context.Background(), nil)

	assert.Equal(t, want, src.Data())
	assert.Equal(t, 1, loader.Calls(), "loader runs exactly once")
	assert.Equal(t, []SourceInfo{info}, loader.infos)
	assert.Equal(t, int64(1), src.Generation())
}

func TestSource_OverrideTakesPrecedence(t *testing.T) {
	assigned := &staticLoader{records: abcd()}
	override := &staticLoader{records: abcd()[:1]}
	src := NewSource(SourceInfo{ID: "s"}, quiet(), WithLoader(assigned))

	src.Load(context.Background(), override)

	assert.Equal(t, 0, assigned.Calls())
	assert.Equal(t, 1, override.Calls())
	assert.Len(t, src.Data(), 1)
}

func TestSource_NoLoaderLeavesDataUnchanged(t *testing.T) {
	obs := &recordingObserver{}
	src := NewSource(SourceInfo{ID: "s"}, quiet(), WithObserver(obs))
	src.Load(context.Background(), &staticLoader{records: abcd()})
	before := src.Data()

	src.SetLoader(nil)
	src.Load(context.Background(), nil)

	assert.Equal(t, before, src.Data())
	assert.Equal(t, int64(1), src.Generation(), "a skipped load is not stamped")
	require.Len(t, obs.errs, 2)
	assert.ErrorIs(t, obs.errs[1], ErrNoLoader)
}

func TestSource_LoaderErrorEmptiesData(t *testing.T) {
	src := NewSource(SourceInfo{ID: "s"}, quiet())
	src.Load(context.Background(), &staticLoader{records: abcd()})
	require.Len(t, src.Data(), 4)

	src.Load(context.Background(), &staticLoader{err: errors.New("connection refused")})

	assert.NotNil(t, src.Data())
	assert.Empty(t, src.Data())
	assert.Equal(t, int64(2), src.Generation())
}

func TestSource_NilRecordsBecomeEmpty(t *testing.T) {
	src := NewSource(SourceInfo{ID: "s"}, quiet())
	src.Load(context.Background(), LoaderFunc(func(context.Context, SourceInfo) ([]*ir.Record, error) {
		return nil, nil
	}))
	assert.NotNil(t, src.Data())
}

func TestSource_LoadAsyncClosesOnce(t *testing.T) {
	src := NewSource(SourceInfo{ID: "s"}, quiet(), WithLoader(&staticLoader{records: abcd()}))

	done := src.LoadAsync(context.Background(), nil)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("LoadAsync did not complete")
	}

	_, open := <-done
	assert.False(t, open, "channel is closed after completion")
	assert.Len(t, src.Data(), 4)
}

func TestSource_LastWriteWins(t *testing.T) {
	src := NewSource(SourceInfo{ID: "s"}, quiet())
	first := testutil.Records([]string{"id"}, []any{"old"})
	second := testutil.Records([]string{"id"}, []any{"new"}, []any{"newer"})

	release := make(chan struct{})
	slow := LoaderFunc(func(context.Context, SourceInfo) ([]*ir.Record, error) {
		<-release
		return first, nil
	})
	fast := LoaderFunc(func(context.Context, SourceInfo) ([]*ir.Record, error) {
		return second, nil
	})

	slowDone := src.LoadAsync(context.Background(), slow)
	src.Load(context.Background(), fast)
	assert.Equal(t, second, src.Data())

	close(release)
	<-slowDone
	assert.Equal(t, first, src.Data(), "the load that finishes last wins")
}

func TestSource_ConcurrentLoadsStampDistinctGenerations(t *testing.T) {
	src := NewSource(SourceInfo{ID: "s"}, quiet(), WithLoader(&staticLoader{records: abcd()}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			src.Load(context.Background(), nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20), src.Generation())
}

func TestSource_ObserverSeesLoads(t *testing.T) {
	obs := &recordingObserver{}
	src := NewSource(SourceInfo{ID: "images"}, quiet(), WithObserver(obs), WithLoader(&staticLoader{records: abcd()}))

	src.Load(context.Background(), nil)

	assert.Equal(t, []string{"images"}, obs.loads)
	assert.Equal(t, []error{nil}, obs.errs)
}
