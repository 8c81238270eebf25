package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisQueue(rdb, "test:outbox"), mr
}

func TestRedisQueueFIFO(t *testing.T) {
	q, _ := newRedisQueue(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		e, err := NewEntry(KindRegistration, map[string]string{"id": id})
		require.NoError(t, err)
		e.ID = id
		require.NoError(t, q.Push(ctx, e))
	}
	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	for _, want := range []string{"a", "b", "c"} {
		e, err := q.Pop(ctx)
		require.NoError(t, err)
		require.NotNil(t, e)
		assert.Equal(t, want, e.ID)
		assert.JSONEq(t, `{"id":"`+want+`"}`, string(e.Payload))
	}

	e, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestRedisQueueUndecodableGoesDead(t *testing.T) {
	q, mr := newRedisQueue(t)
	ctx := context.Background()
	_, err := mr.Lpush("test:outbox", "not json")
	require.NoError(t, err)

	e, err := q.Pop(ctx)
	assert.Error(t, err)
	assert.Nil(t, e)
	dead, err := q.DeadLen(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, dead)
}

func TestWorkerRetriesThenDeadLetters(t *testing.T) {
	q, _ := newRedisQueue(t)
	ctx := context.Background()

	w := NewWorker(q, 2)
	calls := 0
	w.Handle(KindRegistration, func(ctx context.Context, e Entry) error {
		calls++
		return errors.New("db down")
	})

	e, err := NewEntry(KindRegistration, map[string]string{"order_id": "ORDER_1"})
	require.NoError(t, err)
	require.NoError(t, q.Push(ctx, e))

	st, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Retried: 1}, st)
	n, _ := q.Len(ctx)
	assert.EqualValues(t, 1, n)

	st, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Dead: 1}, st)
	assert.Equal(t, 2, calls)

	n, _ = q.Len(ctx)
	assert.EqualValues(t, 0, n)
	dead, _ := q.DeadLen(ctx)
	assert.EqualValues(t, 1, dead)
}

func TestWorkerProcessesAndHandlesPermanent(t *testing.T) {
	q, _ := newRedisQueue(t)
	ctx := context.Background()

	w := NewWorker(q, 5)
	w.Handle("ok", func(ctx context.Context, e Entry) error { return nil })
	w.Handle("bad", func(ctx context.Context, e Entry) error { return Permanent(errors.New("invalid payload")) })

	for _, kind := range []string{"ok", "bad", "unknown"} {
		e, err := NewEntry(kind, struct{}{})
		require.NoError(t, err)
		require.NoError(t, q.Push(ctx, e))
	}

	st, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 1, Dead: 2}, st)
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
