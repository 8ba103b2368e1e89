package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(WithAddress(mr.Addr()), WithOpTimeout(200*time.Millisecond))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(ctx, "score:abc", payload{Name: "abc", Score: 4.2}, time.Minute))

	var got payload
	require.NoError(t, c.Get(ctx, "score:abc", &got))
	assert.Equal(t, payload{Name: "abc", Score: 4.2}, got)

	mr.FastForward(61 * time.Second)

	err := c.Get(ctx, "score:abc", &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCache_GetMissingKey(t *testing.T) {
	c, _ := newTestCache(t)

	var got payload
	err := c.Get(context.Background(), "location:none", &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCache_DelAndDelPattern(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	for _, k := range []string{"nearby:1.0000:2.0000:500", "nearby:3.0000:4.0000:1000", "location:a", "score:a"} {
		require.NoError(t, c.Set(ctx, k, 1, time.Minute))
	}

	n, err := c.Del(ctx, "location:a", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.DelPattern(ctx, "nearby:*")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.False(t, mr.Exists("nearby:1.0000:2.0000:500"))
	assert.True(t, mr.Exists("score:a"))
}

func TestCache_MGetAndMSet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	err := c.MSet(ctx, []Entry{
		{Key: "location:a", Value: payload{Name: "a"}, TTL: time.Minute},
		{Key: "location:b", Value: payload{Name: "b"}, TTL: 2 * time.Minute},
	})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("location:a"))
	assert.Equal(t, 2*time.Minute, mr.TTL("location:b"))

	got, err := c.MGet(ctx, "location:a", "location:missing", "location:b")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.JSONEq(t, `{"name":"a","score":0}`, string(got["location:a"]))
	assert.NotContains(t, got, "location:missing")
}

func TestCache_SortedSetOrdering(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	err := c.SortedSetReplace(ctx, "hot:locations", 30*time.Minute, []ScoredMember{
		{Member: "z-first", Score: 10.45},
		{Member: "a-second", Score: 10.45},
		{Member: "top", Score: 12},
		{Member: "low", Score: 1.5},
	})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, mr.TTL("hot:locations"))

	top, err := c.SortedSetTopN(ctx, "hot:locations", 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, ScoredMember{Member: "top", Score: 12}, top[0])
	assert.Equal(t, "z-first", top[1].Member, "ties keep insertion order")
	assert.Equal(t, "a-second", top[2].Member)
	assert.InDelta(t, 10.45, top[1].Score, 1e-9)

	require.NoError(t, c.SortedSetAdd(ctx, "hot:locations", time.Minute, ScoredMember{Member: "late", Score: 12}))

	top, err = c.SortedSetTopN(ctx, "hot:locations", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"top", "late"}, []string{top[0].Member, top[1].Member})
}

func TestCache_SortedSetAddReaddedMemberMovesBehindEarlierOnes(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	for _, m := range []string{"a", "b", "c"} {
		require.NoError(t, c.SortedSetAdd(ctx, "hot:locations", time.Minute, ScoredMember{Member: m, Score: 5}))
	}
	require.NoError(t, c.SortedSetAdd(ctx, "hot:locations", time.Minute, ScoredMember{Member: "a", Score: 5}))
	require.NoError(t, c.SortedSetAdd(ctx, "hot:locations", time.Minute, ScoredMember{Member: "d", Score: 5}))

	top, err := c.SortedSetTopN(ctx, "hot:locations", 10)
	require.NoError(t, err)
	members := make([]string, 0, len(top))
	for _, m := range top {
		members = append(members, m.Member)
		assert.InDelta(t, 5.0, m.Score, 1e-9)
	}
	assert.Equal(t, []string{"b", "c", "a", "d"}, members)
	assert.Equal(t, time.Minute, mr.TTL(seqKey("hot:locations")), "counter expires with the set")
}

func TestCache_SortedSetAddBatchKeepsArgumentOrder(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	require.NoError(t, c.SortedSetAdd(ctx, "hot:locations", 0,
		ScoredMember{Member: "zz", Score: 2.5},
		ScoredMember{Member: "aa", Score: 2.5},
		ScoredMember{Member: "mid", Score: -1.25},
	))

	top, err := c.SortedSetTopN(ctx, "hot:locations", 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"zz", "aa", "mid"}, []string{top[0].Member, top[1].Member, top[2].Member})
	assert.InDelta(t, -1.25, top[2].Score, 1e-9)
}

func TestCache_SortedSetReplaceResetsSequence(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.SortedSetAdd(ctx, "hot:locations", 0, ScoredMember{Member: "x", Score: 1}, ScoredMember{Member: "y", Score: 1}))
	require.NoError(t, c.SortedSetReplace(ctx, "hot:locations", time.Minute, []ScoredMember{{Member: "p", Score: 4}}))

	seq, err := mr.Get(seqKey("hot:locations"))
	require.NoError(t, err)
	assert.Equal(t, "1", seq)

	require.NoError(t, c.SortedSetAdd(ctx, "hot:locations", time.Minute, ScoredMember{Member: "q", Score: 4}))
	top, err := c.SortedSetTopN(ctx, "hot:locations", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p", "q"}, []string{top[0].Member, top[1].Member})
}

func TestCache_SortedSetReplaceClearsOldMembers(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	require.NoError(t, c.SortedSetReplace(ctx, "hot:locations", time.Minute, []ScoredMember{{Member: "old", Score: 3}}))
	require.NoError(t, c.SortedSetReplace(ctx, "hot:locations", time.Minute, []ScoredMember{{Member: "new", Score: 1}}))

	top, err := c.SortedSetTopN(ctx, "hot:locations", 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "new", top[0].Member)
}

func TestCache_UnavailableServer(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	mr.Close()

	var got payload
	assert.Error(t, c.Get(ctx, "score:a", &got))
	assert.Error(t, c.Set(ctx, "score:a", 1, time.Minute))
	_, err := c.DelPattern(ctx, "nearby:*")
	assert.Error(t, err)
}

func TestCache_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var transitions []string
	mr := miniredis.RunT(t)
	c := New(
		WithAddress(mr.Addr()),
		WithOpTimeout(100*time.Millisecond),
		WithStateChangeHook(func(name, from, to string) {
			transitions = append(transitions, from+"->"+to)
		}),
	)
	defer c.Close()
	mr.Close()

	for i := 0; i < 6; i++ {
		_ = c.Set(context.Background(), "k", 1, time.Minute)
	}

	assert.Contains(t, transitions, "closed->open")
}

func TestEncodeDecodeScore(t *testing.T) {
	for _, score := range []float64{0, 1.5, 4.25, 57.9, 12345.67} {
		for _, seq := range []int64{0, 1, 999_999} {
			assert.InDelta(t, score, decodeScore(encodeScore(score, seq)), 1e-9)
		}
	}
	assert.Greater(t, encodeScore(2, 0), encodeScore(2, 1))
	assert.Greater(t, encodeScore(2.01, 999_999), encodeScore(2, 0))
}
