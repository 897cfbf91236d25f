// Package catalog serves the published collection and maintains the brand
// and category allow-lists entries are validated against.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/docstore"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Service reads and mutates the cars, brands and categories collections.
type Service struct {
	store *docstore.Store
	lang  language.Tag
}

func New(store *docstore.Store) *Service {
	return &Service{store: store, lang: language.German}
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Brand    string
	BodyType string
	Query    string
	YearFrom *int
	YearTo   *int
}

func (f Filter) match(e models.Entry) bool {
	if f.Brand != "" && !strings.EqualFold(e.Brand, f.Brand) {
		return false
	}
	if f.BodyType != "" && !containsString(e.BodyTypes, f.BodyType) {
		return false
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(e.Brand+" "+e.Model), strings.ToLower(f.Query)) {
		return false
	}
	if f.YearFrom != nil && e.Year < *f.YearFrom {
		return false
	}
	if f.YearTo != nil && e.Year > *f.YearTo {
		return false
	}
	return true
}

// List returns the published entries matching f in stored order.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Entry, error) {
	cars, err := docstore.Read(ctx, s.store, models.CollectionCars, []models.Entry{})
	if err != nil {
		return nil, err
	}
	out := make([]models.Entry, 0, len(cars))
	for _, e := range cars {
		if f.match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.Entry, error) {
	cars, err := docstore.Read(ctx, s.store, models.CollectionCars, []models.Entry{})
	if err != nil {
		return models.Entry{}, err
	}
	i := models.IndexOf(cars, id)
	if i < 0 {
		return models.Entry{}, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return cars[i], nil
}

func (s *Service) Brands(ctx context.Context) ([]string, error) {
	return docstore.Read(ctx, s.store, models.CollectionBrands, []string{})
}

// AddBrand inserts name and keeps the list in collation order.
func (s *Service) AddBrand(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	return docstore.Update(ctx, s.store, models.CollectionBrands, func(brands []string) ([]string, error) {
		if indexFold(brands, name) >= 0 {
			return nil, fmt.Errorf("brand %q: %w", name, ErrConflict)
		}
		next := append(append([]string{}, brands...), name)
		s.sortBrands(next)
		return next, nil
	}, []string{})
}

// DeleteBrand removes name, matched case-insensitively. Entries referencing it are left alone.
func (s *Service) DeleteBrand(ctx context.Context, name string) error {
	_, err := docstore.Update(ctx, s.store, models.CollectionBrands, func(brands []string) ([]string, error) {
		i := indexFold(brands, name)
		if i < 0 {
			return nil, fmt.Errorf("brand %q: %w", name, ErrNotFound)
		}
		return append(brands[:i:i], brands[i+1:]...), nil
	}, []string{})
	return err
}

// collate.Collator is not safe for concurrent use, so one is built per sort.
func (s *Service) sortBrands(brands []string) {
	c := collate.New(s.lang)
	sort.SliceStable(brands, func(i, j int) bool {
		return c.CompareString(brands[i], brands[j]) < 0
	})
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	return docstore.Read(ctx, s.store, models.CollectionCategories, []models.Category{})
}

func (s *Service) AddCategory(ctx context.Context, c models.Category) (models.Category, error) {
	_, err := docstore.Update(ctx, s.store, models.CollectionCategories, func(cats []models.Category) ([]models.Category, error) {
		if categoryIndex(cats, c.Name) >= 0 {
			return nil, fmt.Errorf("category %q: %w", c.Name, ErrConflict)
		}
		return append(append([]models.Category{}, cats...), c), nil
	}, []models.Category{})
	if err != nil {
		return models.Category{}, err
	}
	return c, nil
}

// UpdateCategory replaces the category currently named current. Entries that
// carry the old name keep it.
func (s *Service) UpdateCategory(ctx context.Context, current string, c models.Category) (models.Category, error) {
	_, err := docstore.Update(ctx, s.store, models.CollectionCategories, func(cats []models.Category) ([]models.Category, error) {
		i := categoryIndex(cats, current)
		if i < 0 {
			return nil, fmt.Errorf("category %q: %w", current, ErrNotFound)
		}
		for j := range cats {
			if j != i && strings.EqualFold(cats[j].Name, c.Name) {
				return nil, fmt.Errorf("category %q: %w", c.Name, ErrConflict)
			}
		}
		next := append([]models.Category{}, cats...)
		next[i] = c
		return next, nil
	}, []models.Category{})
	if err != nil {
		return models.Category{}, err
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, name string) error {
	_, err := docstore.Update(ctx, s.store, models.CollectionCategories, func(cats []models.Category) ([]models.Category, error) {
		i := categoryIndex(cats, name)
		if i < 0 {
			return nil, fmt.Errorf("category %q: %w", name, ErrNotFound)
		}
		return append(cats[:i:i], cats[i+1:]...), nil
	}, []models.Category{})
	return err
}

func categoryIndex(cats []models.Category, name string) int {
	for i := range cats {
		if strings.EqualFold(cats[i].Name, name) {
			return i
		}
	}
	return -1
}

func indexFold(list []string, v string) int {
	for i, item := range list {
		if strings.EqualFold(item, v) {
			return i
		}
	}
	return -1
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
