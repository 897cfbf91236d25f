package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/docstore"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/models"
)

func newService(t *testing.T) (*Service, *docstore.Store) {
	t.Helper()
	store := docstore.New(docstore.NewFileBackend(afero.NewMemMapFs(), "/data"), nil)
	return New(store), store
}

func intp(v int) *int { return &v }

func seedCars(t *testing.T, store *docstore.Store) {
	t.Helper()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cars := []models.Entry{
		{ID: "1", Brand: "Audi", Model: "A4 Avant", Year: 2019, BodyTypes: []string{"Kombi"}, Status: models.StatusPublished, CreatedAt: now, UpdatedAt: now},
		{ID: "2", Brand: "BMW", Model: "Z4", Year: 2022, BodyTypes: []string{"Cabrio"}, Status: models.StatusPublished, CreatedAt: now, UpdatedAt: now},
		{ID: "3", Brand: "audi", Model: "TT", Year: 2008, BodyTypes: []string{"Coupe", "Cabrio"}, Status: models.StatusPublished, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, docstore.Write(context.Background(), store, models.CollectionCars, cars))
}

func ids(entries []models.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestList_Filters(t *testing.T) {
	svc, store := newService(t)
	seedCars(t, store)
	ctx := context.Background()

	cases := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"1", "2", "3"}},
		{"brand case-insensitive", Filter{Brand: "AUDI"}, []string{"1", "3"}},
		{"body type", Filter{BodyType: "Cabrio"}, []string{"2", "3"}},
		{"query matches brand and model", Filter{Query: "audi a4"}, []string{"1"}},
		{"year range", Filter{YearFrom: intp(2010), YearTo: intp(2020)}, []string{"1"}},
		{"no match", Filter{Brand: "Opel"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.List(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestGet(t *testing.T) {
	svc, store := newService(t)
	seedCars(t, store)

	e, err := svc.Get(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "Z4", e.Model)

	_, err = svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBrands_SortedAndUnique(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, b := range []string{"Volkswagen", "Audi", "Škoda", "BMW"} {
		_, err := svc.AddBrand(ctx, b)
		require.NoError(t, err)
	}
	brands, err := svc.Brands(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Audi", "BMW", "Škoda", "Volkswagen"}, brands)

	_, err = svc.AddBrand(ctx, " bmw ")
	require.ErrorIs(t, err, ErrConflict)

	require.NoError(t, svc.DeleteBrand(ctx, "škoda"))
	require.ErrorIs(t, svc.DeleteBrand(ctx, "Skoda"), ErrNotFound)
	brands, err = svc.Brands(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Audi", "BMW", "Volkswagen"}, brands)
}

func TestCategories_Lifecycle(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddCategory(ctx, models.Category{Name: "SUV", Icon: "suv.svg"})
	require.NoError(t, err)
	_, err = svc.AddCategory(ctx, models.Category{Name: "Coupe", Icon: "coupe.svg"})
	require.NoError(t, err)
	_, err = svc.AddCategory(ctx, models.Category{Name: "suv", Icon: "x"})
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.UpdateCategory(ctx, "coupe", models.Category{Name: "SUV", Icon: "x"})
	require.ErrorIs(t, err, ErrConflict)
	_, err = svc.UpdateCategory(ctx, "Limousine", models.Category{Name: "Sedan", Icon: "x"})
	require.ErrorIs(t, err, ErrNotFound)

	c, err := svc.UpdateCategory(ctx, "coupe", models.Category{Name: "Coupé", Icon: "coupe2.svg"})
	require.NoError(t, err)
	assert.Equal(t, "Coupé", c.Name)

	require.NoError(t, svc.DeleteCategory(ctx, "SUV"))
	require.ErrorIs(t, svc.DeleteCategory(ctx, "SUV"), ErrNotFound)

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Category{{Name: "Coupé", Icon: "coupe2.svg"}}, cats)
}
