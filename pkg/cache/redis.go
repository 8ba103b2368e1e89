package cache

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrMiss is returned by Get when the key does not exist or has expired.
var ErrMiss = errors.New("cache miss")

const (
	seqSpace   = 1_000_000
	scoreScale = 100
	scanCount  = 500
)

type Cache struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker[any]
}

type Options struct {
	Address       string
	Password      string
	DB            int
	OpTimeout     time.Duration
	BreakerName   string
	OnStateChange func(name, from, to string)
}

type Option func(*Options)

func WithAddress(addr string) Option {
	return func(o *Options) {
		o.Address = addr
	}
}

func WithPassword(pass string) Option {
	return func(o *Options) {
		o.Password = pass
	}
}

func WithDB(db int) Option {
	return func(o *Options) {
		o.DB = db
	}
}

// WithOpTimeout bounds dial, read and write on every Redis round trip.
func WithOpTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.OpTimeout = d
		}
	}
}

// WithStateChangeHook is called whenever the circuit breaker changes state.
func WithStateChangeHook(fn func(name, from, to string)) Option {
	return func(o *Options) {
		o.OnStateChange = fn
	}
}

// ScoredMember is one entry of a sorted set.
type ScoredMember struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

// Entry is one key of a pipelined multi-set.
type Entry struct {
	Key   string
	Value any
	TTL   time.Duration
}

// New builds the client. It does not require the server to be reachable:
// callers are expected to treat every error as a miss.
func New(opts ...Option) *Cache {
	options := &Options{
		Address:     "localhost:6379",
		OpTimeout:   250 * time.Millisecond,
		BreakerName: "redis-cache",
	}

	for _, opt := range opts {
		opt(options)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         options.Address,
		Password:     options.Password,
		DB:           options.DB,
		DialTimeout:  options.OpTimeout,
		ReadTimeout:  options.OpTimeout,
		WriteTimeout: options.OpTimeout,
		MaxRetries:   -1,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	onChange := options.OnStateChange
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        options.BreakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMiss)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if onChange != nil {
				onChange(name, from.String(), to.String())
			}
		},
	})

	return &Cache{client: client, cb: cb}
}

func (c *Cache) execute(fn func() (any, error)) (any, error) {
	return c.cb.Execute(fn)
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	res, err := c.execute(func() (any, error) {
		val, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return val, err
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(res.([]byte), dest)
}

func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = c.execute(func() (any, error) {
		return nil, c.client.Set(ctx, key, data, expiration).Err()
	})
	return err
}

// Del removes keys and reports how many existed.
func (c *Cache) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	res, err := c.execute(func() (any, error) {
		return c.client.Del(ctx, keys...).Result()
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

// DelPattern removes every key matching a glob. It walks the keyspace with
// SCAN so a large keyspace does not block the server.
func (c *Cache) DelPattern(ctx context.Context, pattern string) (int64, error) {
	res, err := c.execute(func() (any, error) {
		var (
			cursor  uint64
			removed int64
		)
		for {
			keys, next, err := c.client.Scan(ctx, cursor, pattern, scanCount).Result()
			if err != nil {
				return removed, err
			}
			if len(keys) > 0 {
				n, err := c.client.Del(ctx, keys...).Result()
				if err != nil {
					return removed, err
				}
				removed += n
			}
			cursor = next
			if cursor == 0 {
				return removed, nil
			}
		}
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

// MGet returns the raw payloads of the keys that exist. Missing keys are
// absent from the result.
func (c *Cache) MGet(ctx context.Context, keys ...string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	res, err := c.execute(func() (any, error) {
		return c.client.MGet(ctx, keys...).Result()
	})
	if err != nil {
		return nil, err
	}
	for i, v := range res.([]any) {
		if s, ok := v.(string); ok {
			out[keys[i]] = []byte(s)
		}
	}
	return out, nil
}

// MSet writes all entries in a single pipelined round trip.
func (c *Cache) MSet(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	payloads := make([][]byte, len(entries))
	for i, e := range entries {
		data, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("marshal %q: %w", e.Key, err)
		}
		payloads[i] = data
	}
	_, err := c.execute(func() (any, error) {
		_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, e := range entries {
				pipe.Set(ctx, e.Key, payloads[i], e.TTL)
			}
			return nil
		})
		return nil, err
	})
	return err
}

// sortedSetAddScript draws the insertion sequence from a companion counter
// and writes the members in one atomic step. A re-added member takes a new
// sequence, so it sorts after every member added before it at equal score.
//
// KEYS: set, counter. ARGV: ttl ms, member count, sequence space, then
// (scaled score, member) pairs.
var sortedSetAddScript = redis.NewScript(`
local n = tonumber(ARGV[2])
local space = tonumber(ARGV[3])
local last = redis.call('INCRBY', KEYS[2], n)
if last > space then
	return redis.error_reply('sorted set insertion sequence exhausted')
end
local base = last - n
for i = 1, n do
	local scaled = tonumber(ARGV[2 + 2 * i])
	local stored = scaled * space + (space - 1 - (base + i - 1))
	redis.call('ZADD', KEYS[1], string.format('%.0f', stored), ARGV[3 + 2 * i])
end
local ttl = tonumber(ARGV[1])
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[1], ttl)
	redis.call('PEXPIRE', KEYS[2], ttl)
end
return last
`)

// seqKey holds the last insertion sequence handed out for a sorted set.
func seqKey(key string) string { return key + ":seq" }

// SortedSetAdd appends members after every member added before them;
// members with equal scores keep their insertion order on read.
func (c *Cache) SortedSetAdd(ctx context.Context, key string, ttl time.Duration, members ...ScoredMember) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]any, 0, 3+2*len(members))
	args = append(args, ttl.Milliseconds(), len(members), seqSpace)
	for _, m := range members {
		args = append(args, scaleScore(m.Score), m.Member)
	}
	_, err := c.execute(func() (any, error) {
		return nil, sortedSetAddScript.Run(ctx, c.client, []string{key, seqKey(key)}, args...).Err()
	})
	return err
}

// SortedSetReplace atomically swaps the whole set for members, in order.
func (c *Cache) SortedSetReplace(ctx context.Context, key string, ttl time.Duration, members []ScoredMember) error {
	zs, err := encodeMembers(members, 0)
	if err != nil {
		return err
	}
	_, err = c.execute(func() (any, error) {
		_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key, seqKey(key))
			if len(zs) > 0 {
				pipe.ZAdd(ctx, key, zs...)
				pipe.Set(ctx, seqKey(key), len(zs), ttl)
				if ttl > 0 {
					pipe.Expire(ctx, key, ttl)
				}
			}
			return nil
		})
		return nil, err
	})
	return err
}

// SortedSetTopN returns up to n members, highest score first.
func (c *Cache) SortedSetTopN(ctx context.Context, key string, n int) ([]ScoredMember, error) {
	if n <= 0 {
		return nil, nil
	}
	res, err := c.execute(func() (any, error) {
		return c.client.ZRevRangeWithScores(ctx, key, 0, int64(n-1)).Result()
	})
	if err != nil {
		return nil, err
	}
	zs := res.([]redis.Z)
	out := make([]ScoredMember, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		out = append(out, ScoredMember{Member: member, Score: decodeScore(z.Score)})
	}
	return out, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func encodeMembers(members []ScoredMember, base int64) ([]redis.Z, error) {
	if base+int64(len(members)) > seqSpace {
		return nil, fmt.Errorf("sorted set holds at most %d members", seqSpace)
	}
	zs := make([]redis.Z, len(members))
	for i, m := range members {
		seq := base + int64(i)
		zs[i] = redis.Z{Member: m.Member, Score: encodeScore(m.Score, seq)}
	}
	return zs, nil
}

// encodeScore packs a 2-decimal score and an insertion sequence into one
// float so that ZREVRANGE orders ties by insertion.
func encodeScore(score float64, seq int64) float64 {
	return float64(scaleScore(score))*seqSpace + float64(seqSpace-1-seq)
}

func scaleScore(score float64) int64 {
	return int64(math.Round(score * scoreScale))
}

func decodeScore(stored float64) float64 {
	return math.Floor(stored/seqSpace) / scoreScale
}
