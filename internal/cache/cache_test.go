package cache

import (
	"context"
	"testing"
	"time"

	"github.com/c4rrotJuice/web-unlocker-tool/internal/model"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKV_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	kv := NewMemoryKV(clock)

	require.NoError(t, kv.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, kv.Set(ctx, "b", []byte("2"), 0))

	v, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	clock.Advance(time.Minute)
	_, err = kv.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)

	v, err = kv.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)

	require.NoError(t, kv.Del(ctx, "b", "missing"))
	_, err = kv.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestDocumentCache(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV(clockwork.NewFakeClock())
	c := NewDocumentCache(kv, time.Minute)

	id := uuid.New()
	got, err := c.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	doc := &model.Document{ID: id.String(), Owner: "u1", Title: "Notes", Content: []byte(`{"ops":[]}`)}
	doc.SetCitations([]string{"c1"})
	require.NoError(t, c.SetDocument(ctx, doc))

	got, err = c.GetDocument(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Notes", got.Title)
	assert.Equal(t, doc.Content, got.Content)
	assert.Equal(t, []string{"c1"}, got.Citations())

	require.NoError(t, c.DeleteDocument(ctx, id))
	got, err = c.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDocumentCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV(nil)
	c := NewDocumentCache(kv, 0)

	id := uuid.New()
	require.NoError(t, kv.Set(ctx, documentKey(id.String()), []byte("{"), 0))

	got, err := c.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = kv.Get(ctx, documentKey(id.String()))
	assert.ErrorIs(t, err, ErrMiss)
}
