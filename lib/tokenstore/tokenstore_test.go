package tokenstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"karesis-backend/lib/scrapers/karesis"

	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) *karesis.Client {
	client, err := karesis.NewClient(context.Background(), karesis.ClientOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestNewTokenUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 64; i++ {
		token, err := NewToken()
		require.NoError(t, err)
		require.NotEmpty(t, token)
		require.False(t, seen[token], "token issued twice")
		seen[token] = true
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemory()

	_, ok := store.Get("nope")
	require.False(t, ok)

	first := newSession(t)
	second := newSession(t)
	store.Put("a", first)
	store.Put("b", second)

	got, ok := store.Get("a")
	require.True(t, ok)
	require.Same(t, first, got)
	got, ok = store.Get("b")
	require.True(t, ok)
	require.Same(t, second, got)

	store.Delete("a")
	_, ok = store.Get("a")
	require.False(t, ok)
}

func TestMemoryStoreConcurrent(t *testing.T) {
	store := NewMemory()
	session := newSession(t)

	wg := sync.WaitGroup{}
	for i := 0; i < 32; i++ {
		wg.Add(2)
		token := fmt.Sprintf("token-%d", i)
		go func() {
			defer wg.Done()
			store.Put(token, session)
		}()
		go func() {
			defer wg.Done()
			store.Get(token)
		}()
	}
	wg.Wait()
}

func TestExpirableStore(t *testing.T) {
	store := NewExpirable(8, time.Minute)

	session := newSession(t)
	store.Put("a", session)
	got, ok := store.Get("a")
	require.True(t, ok)
	require.Same(t, session, got)

	store.Delete("a")
	_, ok = store.Get("a")
	require.False(t, ok)
}
