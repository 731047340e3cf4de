package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"kvfiles/internal/keystore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T, names ...string) *Store {
	t.Helper()
	s := New()
	for _, name := range names {
		s.Put(keystore.Key{Name: name, Metadata: map[string]any{"fileName": name, "TimeStamp": 1}})
	}
	return s
}

func TestStore_ListFollowsCursor(t *testing.T) {
	s := seeded(t, "e.png", "a.png", "c.png", "b.png", "d.png")
	ctx := context.Background()

	var seen []string
	cursor := ""
	fetches := 0
	for {
		page, err := s.List(ctx, keystore.ListOptions{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		fetches++
		for _, key := range page.Keys {
			seen = append(seen, key.Name)
		}
		if page.ListComplete {
			assert.Empty(t, page.Cursor)
			break
		}
		require.NotEmpty(t, page.Cursor)
		cursor = page.Cursor
	}

	assert.Equal(t, []string{"a.png", "b.png", "c.png", "d.png", "e.png"}, seen)
	assert.Equal(t, 3, fetches)
}

func TestStore_ListPrefix(t *testing.T) {
	s := seeded(t, "hf:a", "r2:a", "r2:b", "s3:a")

	page, err := s.List(context.Background(), keystore.ListOptions{Prefix: "r2:"})
	require.NoError(t, err)
	require.Len(t, page.Keys, 2)
	assert.Equal(t, "r2:a", page.Keys[0].Name)
	assert.Equal(t, "r2:b", page.Keys[1].Name)
	assert.True(t, page.ListComplete)
}

func TestStore_ListPrefixWithCursor(t *testing.T) {
	s := seeded(t, "r2:a", "r2:b", "r2:c", "s3:a")

	first, err := s.List(context.Background(), keystore.ListOptions{Prefix: "r2:", Limit: 1})
	require.NoError(t, err)
	require.False(t, first.ListComplete)

	second, err := s.List(context.Background(), keystore.ListOptions{Prefix: "r2:", Limit: 5, Cursor: first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Keys, 2)
	assert.Equal(t, "r2:b", second.Keys[0].Name)
	assert.Equal(t, "r2:c", second.Keys[1].Name)
	assert.True(t, second.ListComplete)
}

func TestStore_ListClampsLimit(t *testing.T) {
	s := New()
	for i := 0; i < keystore.MaxPageSize+5; i++ {
		s.Put(keystore.Key{Name: fmt.Sprintf("k%05d", i)})
	}

	page, err := s.List(context.Background(), keystore.ListOptions{Limit: 5000})
	require.NoError(t, err)
	assert.Len(t, page.Keys, keystore.MaxPageSize)
	assert.False(t, page.ListComplete)
}

func TestStore_ListInvalidCursor(t *testing.T) {
	s := seeded(t, "a")
	_, err := s.List(context.Background(), keystore.ListOptions{Cursor: "%%%"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, keystore.ErrInvalidCursor))
}

func TestStore_ListReturnsCopies(t *testing.T) {
	s := seeded(t, "a.png")

	page, err := s.List(context.Background(), keystore.ListOptions{})
	require.NoError(t, err)
	page.Keys[0].Metadata["fileName"] = "mutated"

	again, err := s.List(context.Background(), keystore.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, "a.png", again.Keys[0].Metadata["fileName"])
}

func TestStore_Load(t *testing.T) {
	s := New()
	n, err := s.Load(strings.NewReader(`[
		{"name":"a.png","metadata":{"fileName":"a.png","TimeStamp":0}},
		{"name":"","metadata":{}},
		{"name":"b.mp4","metadata":{"fileName":"b.mp4","TimeStamp":1},"expiration":1700000000}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, s.Len())

	page, err := s.List(context.Background(), keystore.ListOptions{})
	require.NoError(t, err)
	require.NotNil(t, page.Keys[1].Expiration)
	assert.Equal(t, int64(1700000000), *page.Keys[1].Expiration)
}

func TestStore_ListHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := seeded(t, "a").List(ctx, keystore.ListOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
