package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_LazyUntilAwaited(t *testing.T) {
	rec := &recorder{rows: []Row{{"id": int64(1)}}}
	f := New(rec).Select().From("T").Defer(context.Background())

	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, rec.count())

	rows, err := f.Await()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, rec.count())
}

func TestFuture_AwaitIsCached(t *testing.T) {
	rec := &recorder{rows: []Row{{"id": int64(1)}}}
	f := New(rec).Insert("T").Values(Row{"id": 1}).Defer(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.Await()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, rec.count())
}

func TestFuture_Continuations(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		rec := &recorder{rows: []Row{{"id": int64(1)}, {"id": int64(2)}}}
		done := make(chan struct{})

		var got []Row
		var caught error
		New(rec).Select().From("T").Defer(context.Background()).
			Then(func(rows []Row) { got = rows }).
			Catch(func(err error) { caught = err }).
			Finally(func() { close(done) })

		<-done
		assert.Len(t, got, 2)
		assert.NoError(t, caught)
		assert.Equal(t, 1, rec.count())
	})

	t.Run("failure", func(t *testing.T) {
		rec := &recorder{err: &RemoteError{Message: "boom"}}
		done := make(chan struct{})

		thenCalled := false
		var caught error
		New(rec).Delete().From("T").Defer(context.Background()).
			Then(func([]Row) { thenCalled = true }).
			Catch(func(err error) { caught = err }).
			Finally(func() { close(done) })

		<-done
		assert.False(t, thenCalled)
		assert.ErrorIs(t, caught, ErrRemoteQueryFailed)
	})

	t.Run("attached after completion", func(t *testing.T) {
		rec := &recorder{rows: []Row{}}
		f := New(rec).Select().From("T").Defer(context.Background())

		_, err := f.Await()
		require.NoError(t, err)

		called := false
		f.Then(func([]Row) { called = true })
		assert.True(t, called)
		assert.Equal(t, 1, rec.count())
	})
}

func TestFuture_StatementIsClaimed(t *testing.T) {
	rec := &recorder{}
	q := New(rec).Select().From("T")
	f := q.Defer(context.Background())

	_, err := q.Exec(context.Background())
	assert.ErrorIs(t, err, ErrStatementConsumed)

	again, err := q.Defer(context.Background()).Await()
	assert.Nil(t, again)
	assert.ErrorIs(t, err, ErrStatementConsumed)

	_, err = f.Await()
	require.NoError(t, err)
	assert.Equal(t, 1, rec.count())
}

func TestFuture_BuildErrorSkipsExecutor(t *testing.T) {
	rec := &recorder{}
	_, err := New(rec).Select().From("").Defer(context.Background()).Await()

	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, rec.count())
}

func TestFuture_Cancellation(t *testing.T) {
	exec := ExecutorFunc(func(ctx context.Context, _ string, _ []any) ([]Row, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	f := New(exec).Select().From("T").Defer(ctx)
	done := f.Done()
	cancel()

	<-done
	_, err := f.Await()
	assert.True(t, errors.Is(err, context.Canceled))
}
