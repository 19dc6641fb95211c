package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybrasil/storefront/internal/infrastructure/store"
)

func newTestCatalog(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	svc, err := NewService(context.Background(), st)
	require.NoError(t, err)
	return svc, st
}

func TestNewService_SeedsDefaults(t *testing.T) {
	svc, _ := newTestCatalog(t)

	products := svc.Products()
	require.Len(t, products, 4)
	assert.Equal(t, "Eldritch Sovereign", products[0].Name)

	posts := svc.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, "O Despertar de Orbis", posts[0].Title)
}

func TestNewService_PrefersPersistedState(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, store.KeyProducts, []Product{
		{ID: "x", Name: "Persisted", Price: 1, Category: CategoryCoins},
	}))

	svc, err := NewService(ctx, st)
	require.NoError(t, err)

	products := svc.Products()
	require.Len(t, products, 1)
	assert.Equal(t, "Persisted", products[0].Name)
}

func TestNewService_CorruptStateFallsBackToDefaults(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, store.KeyProducts, []Product{}))
	st.Corrupt(store.KeyProducts)

	svc, err := NewService(ctx, st)
	require.NoError(t, err)
	assert.Len(t, svc.Products(), 4)
}

func TestCreateProduct_AssignsIDAndPersists(t *testing.T) {
	svc, st := newTestCatalog(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, Product{
		Name:     "Elmo Estelar",
		Price:    19.90,
		Category: CategoryCosmetic,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	got, ok := svc.GetProduct(p.ID)
	require.True(t, ok)
	assert.Equal(t, "Elmo Estelar", got.Name)

	var persisted []Product
	found, err := st.Load(ctx, store.KeyProducts, &persisted)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, persisted, 5)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, Product{Price: 1, Category: CategoryRank})
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = svc.CreateProduct(ctx, Product{Name: "x", Price: -1, Category: CategoryRank})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = svc.CreateProduct(ctx, Product{Name: "x", Price: 1, Category: "weapon"})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestUpdateProduct_ReplacesByID(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	err := svc.UpdateProduct(ctx, Product{
		ID:       "1",
		Name:     "Eldritch Sovereign II",
		Price:    199.90,
		Category: CategoryRank,
	})
	require.NoError(t, err)

	got, ok := svc.GetProduct("1")
	require.True(t, ok)
	assert.Equal(t, "Eldritch Sovereign II", got.Name)
	assert.InDelta(t, 199.90, got.Price, 0.001)

	err = svc.UpdateProduct(ctx, Product{ID: "missing", Name: "x", Price: 1, Category: CategoryRank})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDeleteProduct(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, svc.DeleteProduct(ctx, "1"))
	_, ok := svc.GetProduct("1")
	assert.False(t, ok)
	assert.Len(t, svc.Products(), 3)

	assert.ErrorIs(t, svc.DeleteProduct(ctx, "1"), ErrProductNotFound)
}

func TestPostCRUD(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	p, err := svc.CreatePost(ctx, BlogPost{Title: "Nova Temporada", Author: "Gab15"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	_, err = svc.CreatePost(ctx, BlogPost{})
	assert.ErrorIs(t, err, ErrInvalidTitle)

	p.Excerpt = "A temporada de gelo chegou."
	require.NoError(t, svc.UpdatePost(ctx, p))
	got, ok := svc.GetPost(p.ID)
	require.True(t, ok)
	assert.Equal(t, "A temporada de gelo chegou.", got.Excerpt)

	require.NoError(t, svc.DeletePost(ctx, p.ID))
	assert.ErrorIs(t, svc.DeletePost(ctx, p.ID), ErrPostNotFound)
}

func TestExternalChangeReplacesCatalog(t *testing.T) {
	svc, st := newTestCatalog(t)
	ctx := context.Background()

	err := st.ApplyExternal(ctx, store.KeyProducts, []byte(`[{"id":"7","name":"Remoto","price":5,"category":"coins","description":"","image":""}]`))
	require.NoError(t, err)

	products := svc.Products()
	require.Len(t, products, 1)
	assert.Equal(t, "Remoto", products[0].Name)
}
