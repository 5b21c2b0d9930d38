package wishlist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GlowMint/internal/catalog"
	"GlowMint/internal/store"
)

type recorder struct{ msgs []string }

func (r *recorder) Notify(_ context.Context, _ string, msg string) { r.msgs = append(r.msgs, msg) }

func ids(ps []catalog.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestManager_ToggleTwiceRestores(t *testing.T) {
	rec := &recorder{}
	m := NewManager(store.NewMemKV(), Config{Notifier: rec})
	ctx := context.Background()
	c := catalog.Builtin()
	p, _ := c.Get("SK001")

	added, err := m.Toggle(ctx, "v1", p)
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, m.Contains(ctx, "v1", "SK001"))
	assert.Equal(t, []catalog.Product{p}, m.Entries(ctx, "v1"))

	added, err = m.Toggle(ctx, "v1", p)
	require.NoError(t, err)
	assert.False(t, added)
	assert.False(t, m.Contains(ctx, "v1", "SK001"))
	assert.Empty(t, m.Entries(ctx, "v1"))

	assert.Equal(t, []string{
		"HydraGlow Face Cream added to wishlist ❤️",
		"HydraGlow Face Cream removed from wishlist 💔",
	}, rec.msgs)
}

func TestManager_NeverDuplicates(t *testing.T) {
	m := NewManager(store.NewMemKV(), Config{})
	ctx := context.Background()
	c := catalog.Builtin()

	for _, id := range []string{"SK001", "SK002", "SK001", "SK003", "SK001"} {
		p, _ := c.Get(id)
		_, err := m.Toggle(ctx, "v1", p)
		require.NoError(t, err)
	}

	got := ids(m.Entries(ctx, "v1"))
	assert.Equal(t, []string{"SK002", "SK003", "SK001"}, got)

	seen := map[string]bool{}
	for _, id := range got {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
	assert.Equal(t, seen, m.IDs(ctx, "v1"))
}

func TestManager_Remove(t *testing.T) {
	m := NewManager(store.NewMemKV(), Config{})
	ctx := context.Background()
	c := catalog.Builtin()

	for _, id := range []string{"SK001", "SK002"} {
		p, _ := c.Get(id)
		_, err := m.Toggle(ctx, "v1", p)
		require.NoError(t, err)
	}

	left, err := m.Remove(ctx, "v1", "SK001")
	require.NoError(t, err)
	assert.Equal(t, []string{"SK002"}, ids(left))

	left, err = m.Remove(ctx, "v1", "SK001")
	require.NoError(t, err)
	assert.Equal(t, []string{"SK002"}, ids(left))
}

func TestManager_SnapshotSurvivesCatalogChange(t *testing.T) {
	m := NewManager(store.NewMemKV(), Config{})
	ctx := context.Background()

	old := catalog.Product{ID: "X", Title: "Old title", Price: 100}
	_, err := m.Toggle(ctx, "v1", old)
	require.NoError(t, err)

	assert.Equal(t, []catalog.Product{old}, m.Entries(ctx, "v1"))
}

func TestManager_LegacyWishlistIsMigrated(t *testing.T) {
	kv := store.NewMemKV()
	m := NewManager(kv, Config{})
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, store.Key("v1", "wishlist"), []byte(
		`[{"id":"SK004","title":"Aloe Moist Gel","price":699,"img":"x.png","specs":{"Size":"100ml"}}]`)))

	got := m.Entries(ctx, "v1")
	require.Len(t, got, 1)
	assert.Equal(t, "x.png", got[0].Image)
	assert.Equal(t, catalog.Specs{{Name: "Size", Value: "100ml"}}, got[0].Specs)
}

type flakyKV struct {
	*store.MemKV
	failNext bool
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.failNext {
		f.failNext = false
		return nil, false, errors.New("i/o timeout")
	}
	return f.MemKV.Get(ctx, key)
}

func TestManager_FailedReadIsNotWrittenBack(t *testing.T) {
	kv := &flakyKV{MemKV: store.NewMemKV()}
	m := NewManager(kv, Config{})
	ctx := context.Background()
	c := catalog.Builtin()
	p1, _ := c.Get("SK001")
	p2, _ := c.Get("SK002")

	_, err := m.Toggle(ctx, "v1", p1)
	require.NoError(t, err)

	kv.failNext = true
	_, err = m.Toggle(ctx, "v1", p2)
	require.Error(t, err)

	kv.failNext = true
	_, err = m.Remove(ctx, "v1", "SK001")
	require.Error(t, err)

	assert.Equal(t, []string{"SK001"}, ids(m.Entries(ctx, "v1")))
}
