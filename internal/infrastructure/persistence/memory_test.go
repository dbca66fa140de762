package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testRecord struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	in := testRecord{Name: "algebra", Score: 72}
	err := store.Set(ctx, "profile:student-1", in)
	assert.NoError(t, err)

	var out testRecord
	err = store.Get(ctx, "profile:student-1", &out)
	assert.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMemoryStore_Miss(t *testing.T) {
	store := NewMemoryStore()

	var out testRecord
	err := store.Get(context.Background(), "profile:nobody", &out)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_EmptyKey(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.Set(ctx, "", testRecord{})
	assert.True(t, errors.Is(err, ErrKeyEmpty))

	var out testRecord
	err = store.Get(ctx, "", &out)
	assert.True(t, errors.Is(err, ErrKeyEmpty))
}

func TestMemoryStore_CorruptRecord(t *testing.T) {
	store := NewMemoryStore()
	store.SetRaw("profile:student-1", []byte("{not json"))

	var out testRecord
	err := store.Get(context.Background(), "profile:student-1", &out)
	assert.True(t, errors.Is(err, ErrSerialization))
}

func TestMemoryStore_Overwrite(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	assert.NoError(t, store.Set(ctx, "k", testRecord{Score: 1}))
	assert.NoError(t, store.Set(ctx, "k", testRecord{Score: 2}))

	var out testRecord
	assert.NoError(t, store.Get(ctx, "k", &out))
	assert.Equal(t, 2, out.Score)
	assert.Equal(t, 1, store.Len())
}

func TestKeyBuilders(t *testing.T) {
	assert.Equal(t, "profile:s1", ProfileKey("s1"))
	assert.Equal(t, "fairuse:2026-03-04:s1", FairUseKey("2026-03-04", "s1"))
	assert.Equal(t, "gam:state:s1", GamStateKey("s1"))
}
