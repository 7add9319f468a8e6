package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"jewelry-catalog/internal/media"
	"jewelry-catalog/internal/models"
	"jewelry-catalog/internal/repository"
)

type fakeCategories struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Category
}

func newFakeCategories() *fakeCategories {
	return &fakeCategories{items: make(map[primitive.ObjectID]models.Category)}
}

func (f *fakeCategories) FindAll(_ context.Context, isActive *bool) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Category, 0, len(f.items))
	for _, c := range f.items {
		if isActive != nil && c.IsActive != *isActive {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCategories) FindByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCategories) FindBySlug(_ context.Context, slug string) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.items {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCategories) ExistsByName(_ context.Context, name string, excludeID *primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.items {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategories) ExistsBySlug(_ context.Context, slug string, excludeID *primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.items {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategories) CountChildren(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, c := range f.items {
		if c.ParentID != nil && *c.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (f *fakeCategories) Create(_ context.Context, c *models.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.CreatedAt, c.UpdatedAt = now, now
	f.items[c.ID] = *c
	return nil
}

func (f *fakeCategories) Update(_ context.Context, c *models.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[c.ID]; !ok {
		return repository.ErrNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	f.items[c.ID] = *c
	return nil
}

func (f *fakeCategories) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeCategories) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

type fakeProducts struct {
	mu         sync.Mutex
	items      []models.Product
	categories *fakeCategories
	pageCalls  int
}

func newFakeProducts(categories *fakeCategories) *fakeProducts {
	return &fakeProducts{categories: categories}
}

// withSnapshot imita el $lookup de la categoría
func (f *fakeProducts) withSnapshot(p models.Product) models.Product {
	p.Category = nil
	if p.CategoryID != nil {
		if c, err := f.categories.FindByID(context.Background(), *p.CategoryID); err == nil {
			p.Category = &models.CategorySnapshot{ID: c.ID, Name: c.Name, Slug: c.Slug}
		}
	}
	return p
}

func (f *fakeProducts) FindPage(_ context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageCalls++

	matched := make([]models.Product, 0)
	for _, p := range f.items {
		if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.MinPrice != nil && p.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
			continue
		}
		if filter.IsActive != nil && p.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, f.withSnapshot(p))
	}

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakeProducts) find(match func(models.Product) bool) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if match(p) {
			out := f.withSnapshot(p)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	return f.find(func(p models.Product) bool { return p.ID == id })
}

func (f *fakeProducts) FindBySlug(_ context.Context, slug string) (*models.Product, error) {
	return f.find(func(p models.Product) bool { return p.Slug == slug })
}

func (f *fakeProducts) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]models.Product, 0)
	for _, p := range f.items {
		if want[p.ID] {
			out = append(out, f.withSnapshot(p))
		}
	}
	return out, nil
}

func (f *fakeProducts) exists(match func(models.Product) bool, excludeID *primitive.ObjectID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if excludeID != nil && p.ID == *excludeID {
			continue
		}
		if match(p) {
			return true
		}
	}
	return false
}

func (f *fakeProducts) ExistsBySlug(_ context.Context, slug string, excludeID *primitive.ObjectID) (bool, error) {
	return f.exists(func(p models.Product) bool { return p.Slug == slug }, excludeID), nil
}

func (f *fakeProducts) ExistsBySKU(_ context.Context, sku string, excludeID *primitive.ObjectID) (bool, error) {
	return f.exists(func(p models.Product) bool { return p.SKU == sku }, excludeID), nil
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now
	stored := *p
	stored.Category = nil
	f.items = append(f.items, stored)
	return nil
}

func (f *fakeProducts) Update(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == p.ID {
			p.UpdatedAt = time.Now().UTC()
			stored := *p
			stored.Category = nil
			f.items[i] = stored
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeProducts) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeProducts) ClearCategory(_ context.Context, categoryID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.items {
		if f.items[i].CategoryID != nil && *f.items[i].CategoryID == categoryID {
			f.items[i].CategoryID = nil
			n++
		}
	}
	return n, nil
}

func (f *fakeProducts) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

type fakeWishlists struct {
	mu    sync.Mutex
	lists map[string][]primitive.ObjectID
}

func newFakeWishlists() *fakeWishlists {
	return &fakeWishlists{lists: make(map[string][]primitive.ObjectID)}
}

func (f *fakeWishlists) Get(_ context.Context, owner string) (*models.Wishlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := append([]primitive.ObjectID{}, f.lists[owner]...)
	return &models.Wishlist{Owner: owner, ProductIDs: ids}, nil
}

func (f *fakeWishlists) Add(_ context.Context, owner string, productID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.lists[owner] {
		if id == productID {
			return nil
		}
	}
	f.lists[owner] = append(f.lists[owner], productID)
	return nil
}

func (f *fakeWishlists) Remove(_ context.Context, owner string, productID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[owner] = without(f.lists[owner], productID)
	return nil
}

func (f *fakeWishlists) Clear(_ context.Context, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.lists, owner)
	return nil
}

func (f *fakeWishlists) PullProduct(_ context.Context, productID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for owner, ids := range f.lists {
		f.lists[owner] = without(ids, productID)
	}
	return nil
}

func without(ids []primitive.ObjectID, target primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// fakeImages imita al Gateway: Upload falla sin host, Store cae a inline
type fakeImages struct {
	configured bool
	fail       bool
	uploads    int
}

func (f *fakeImages) Upload(ctx context.Context, file media.File, folder string) (*media.UploadResult, error) {
	if _, err := media.Detect(file.Data); err != nil {
		return nil, err
	}
	if !f.configured {
		return nil, media.ErrNotConfigured
	}
	if f.fail {
		return nil, errors.New("host unavailable")
	}
	f.uploads++
	ref := folder + "/" + file.Filename
	return &media.UploadResult{URL: "https://img.example.com/" + ref, Ref: ref, Format: "png", Width: 2, Height: 2}, nil
}

func (f *fakeImages) Store(ctx context.Context, file media.File, folder string) (*media.UploadResult, error) {
	result, err := f.Upload(ctx, file, folder)
	if err == nil || media.IsClientError(err) {
		return result, err
	}
	return &media.UploadResult{URL: media.DataURI("image/png", file.Data), Format: "png", Inline: true}, nil
}

type fakeDiscarder struct {
	mu   sync.Mutex
	refs []string
}

func (f *fakeDiscarder) Discard(_ context.Context, refs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs = append(f.refs, refs...)
}

func (f *fakeDiscarder) discarded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.refs...)
}
