package identity

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_AbsentByDefault(t *testing.T) {
	_, ok := Token(context.Background())
	assert.False(t, ok)
}

func TestToken_SetGetClear(t *testing.T) {
	ctx := WithToken(context.Background(), "abc.def.ghi")
	ctx = WithSubject(ctx, "jdoe")

	token, ok := Token(ctx)
	require.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	subject, ok := Subject(ctx)
	require.True(t, ok)
	assert.Equal(t, "jdoe", subject)

	cleared := Clear(ctx)
	_, ok = Token(cleared)
	assert.False(t, ok)
	_, ok = Subject(cleared)
	assert.False(t, ok)

	// the parent still sees its own value
	token, ok = Token(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)
}

func TestToken_BlankIsAbsent(t *testing.T) {
	_, ok := Token(WithToken(context.Background(), ""))
	assert.False(t, ok)
}

func TestClear_KeepsCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(WithToken(context.Background(), "t"), time.Millisecond)
	defer cancel()

	cleared := Clear(ctx)
	<-cleared.Done()
	assert.ErrorIs(t, cleared.Err(), context.DeadlineExceeded)
}

func TestToken_ConcurrentRequestsAreIsolated(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			want := fmt.Sprintf("token-%d", i)
			ctx := WithToken(context.Background(), want)
			time.Sleep(time.Millisecond)
			if got, _ := Token(ctx); got != want {
				errs <- fmt.Errorf("request %d saw %q", i, got)
			}
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
