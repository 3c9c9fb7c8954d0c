package escalation

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
)

// Stats accumulates escalation activity since the store was created.
type Stats struct {
	Runs           int64      `json:"runs"`
	TotalEscalated int64      `json:"totalEscalated"`
	TotalSkipped   int64      `json:"totalSkipped"`
	TotalFailed    int64      `json:"totalFailed"`
	LastRun        *RunResult `json:"lastRun,omitempty"`
	LastError      string     `json:"lastError,omitempty"`
	LastErrorAt    *time.Time `json:"lastErrorAt,omitempty"`
}

// StatsStore persists Stats. runErr is set when a pass could not list
// its candidates.
type StatsStore interface {
	Record(ctx context.Context, res RunResult, runErr error) error
	Load(ctx context.Context) (Stats, error)
}

// MemoryStatsStore keeps stats for a single process.
type MemoryStatsStore struct {
	mu    sync.Mutex
	stats Stats
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{}
}

func (m *MemoryStatsStore) Record(_ context.Context, res RunResult, runErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.Runs++
	m.stats.TotalEscalated += int64(res.Escalated)
	m.stats.TotalSkipped += int64(res.Skipped)
	m.stats.TotalFailed += int64(res.Failed)
	run := res
	m.stats.LastRun = &run
	if runErr != nil {
		at := res.FinishedAt
		m.stats.LastError = runErr.Error()
		m.stats.LastErrorAt = &at
	}
	return nil
}

func (m *MemoryStatsStore) Load(context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.stats
	if out.LastRun != nil {
		run := *out.LastRun
		out.LastRun = &run
	}
	return out, nil
}

// DefaultStatsKey is the Redis hash the shared stats live in.
const DefaultStatsKey = "resolveit:escalation:stats"

// RedisStatsStore shares stats between replicas through a single hash.
type RedisStatsStore struct {
	Redis *redis.Client
	Key   string
}

func NewRedisStatsStore(rdb *redis.Client) *RedisStatsStore {
	return &RedisStatsStore{Redis: rdb, Key: DefaultStatsKey}
}

func (r *RedisStatsStore) Record(ctx context.Context, res RunResult, runErr error) error {
	last, err := json.Marshal(res)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal run result")
	}

	_, err = r.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, r.Key, "runs", 1)
		pipe.HIncrBy(ctx, r.Key, "escalated", int64(res.Escalated))
		pipe.HIncrBy(ctx, r.Key, "skipped", int64(res.Skipped))
		pipe.HIncrBy(ctx, r.Key, "failed", int64(res.Failed))
		pipe.HSet(ctx, r.Key, "last_run", last)
		if runErr != nil {
			pipe.HSet(ctx, r.Key,
				"last_error", runErr.Error(),
				"last_error_at", res.FinishedAt.Format(time.RFC3339Nano))
		}
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to record escalation stats", goerr.V("key", r.Key))
	}
	return nil
}

func (r *RedisStatsStore) Load(ctx context.Context) (Stats, error) {
	fields, err := r.Redis.HGetAll(ctx, r.Key).Result()
	if err != nil {
		return Stats{}, goerr.Wrap(err, "failed to load escalation stats", goerr.V("key", r.Key))
	}

	var st Stats
	st.Runs = parseCounter(fields["runs"])
	st.TotalEscalated = parseCounter(fields["escalated"])
	st.TotalSkipped = parseCounter(fields["skipped"])
	st.TotalFailed = parseCounter(fields["failed"])
	if raw, ok := fields["last_run"]; ok {
		var run RunResult
		if err := json.Unmarshal([]byte(raw), &run); err != nil {
			return Stats{}, goerr.Wrap(err, "corrupt last_run in escalation stats")
		}
		st.LastRun = &run
	}
	st.LastError = fields["last_error"]
	if raw, ok := fields["last_error_at"]; ok {
		if at, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			st.LastErrorAt = &at
		}
	}
	return st, nil
}

func parseCounter(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
