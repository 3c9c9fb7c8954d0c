package escalation_test

import (
	"context"
	"os"
	"testing"
	"time"

	"resolveit/backend/internal/escalation"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStatsStore(t *testing.T) {
	addr := os.Getenv("RESOLVEIT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("RESOLVEIT_TEST_REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	st := escalation.NewRedisStatsStore(rdb)
	st.Key = "resolveit:test:" + t.Name()
	require.NoError(t, rdb.Del(ctx, st.Key).Err())
	t.Cleanup(func() { rdb.Del(context.Background(), st.Key) })

	first := escalation.RunResult{Trigger: "schedule", Escalated: 2, Skipped: 1, FinishedAt: base, EscalatedIDs: []uint{4, 9}}
	require.NoError(t, st.Record(ctx, first, nil))
	require.NoError(t, st.Record(ctx, escalation.RunResult{Trigger: "manual", Failed: 1, FinishedAt: base.Add(time.Minute)}, assert.AnError))

	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Runs)
	assert.Equal(t, int64(2), got.TotalEscalated)
	assert.Equal(t, int64(1), got.TotalSkipped)
	assert.Equal(t, int64(1), got.TotalFailed)
	require.NotNil(t, got.LastRun)
	assert.Equal(t, "manual", got.LastRun.Trigger)
	assert.Equal(t, assert.AnError.Error(), got.LastError)
	require.NotNil(t, got.LastErrorAt)
	assert.True(t, base.Add(time.Minute).Equal(*got.LastErrorAt))
}
