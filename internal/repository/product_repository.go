package repository

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jewelry-catalog/internal/models"
)

// ProductFilter describe un listado de productos ya normalizado
type ProductFilter struct {
	Search       string
	CategoryID   *primitive.ObjectID
	IsActive     *bool
	IsFeatured   *bool
	IsBestSeller *bool
	MinPrice     *float64
	MaxPrice     *float64
	SortField    string
	SortDesc     bool
	Page         int
	Limit        int
}

// searchFields son los campos donde busca el texto libre
var searchFields = []string{"name", "sku", "description", "short_description", "tags"}

// Query construye el filtro de MongoDB
func (f ProductFilter) Query() bson.M {
	filter := bson.M{}

	if f.Search != "" {
		pattern := regexp.QuoteMeta(f.Search)
		or := make([]bson.M, 0, len(searchFields))
		for _, field := range searchFields {
			or = append(or, bson.M{field: bson.M{"$regex": pattern, "$options": "i"}})
		}
		filter["$or"] = or
	}

	if f.CategoryID != nil {
		filter["category_id"] = *f.CategoryID
	}
	if f.IsActive != nil {
		filter["is_active"] = *f.IsActive
	}
	if f.IsFeatured != nil {
		filter["is_featured"] = *f.IsFeatured
	}
	if f.IsBestSeller != nil {
		filter["is_best_seller"] = *f.IsBestSeller
	}

	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	return filter
}

// Sort construye el orden; _id desempata para que la paginación sea estable
func (f ProductFilter) Sort() bson.D {
	field := f.SortField
	if field == "" {
		field = "created_at"
	}
	order := 1
	if f.SortDesc {
		order = -1
	}
	sort := bson.D{{Key: field, Value: order}}
	if field != "_id" {
		sort = append(sort, bson.E{Key: "_id", Value: order})
	}
	return sort
}

type ProductRepository struct {
	collection         *mongo.Collection
	categoryCollection string
}

func NewProductRepository(collection *mongo.Collection, categoryCollection string) *ProductRepository {
	return &ProductRepository{collection: collection, categoryCollection: categoryCollection}
}

// categoryStages adjunta la vista {_id, name, slug} de la categoría de cada producto
func (r *ProductRepository) categoryStages() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: r.categoryCollection},
			{Key: "localField", Value: "category_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "pipeline", Value: bson.A{bson.D{{Key: "$project", Value: bson.D{{Key: "name", Value: 1}, {Key: "slug", Value: 1}}}}}},
			{Key: "as", Value: "category"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$category"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}
}

type productPage struct {
	Items []models.Product `bson:"items"`
	Total []struct {
		N int64 `bson:"n"`
	} `bson:"total"`
}

// FindPage lista productos con filtros y paginación en una sola agregación ($facet)
func (r *ProductRepository) FindPage(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	items := bson.A{
		bson.D{{Key: "$sort", Value: f.Sort()}},
		bson.D{{Key: "$skip", Value: int64(f.Page-1) * int64(f.Limit)}},
		bson.D{{Key: "$limit", Value: int64(f.Limit)}},
	}
	for _, stage := range r.categoryStages() {
		items = append(items, stage)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: f.Query()}},
		{{Key: "$facet", Value: bson.D{
			{Key: "items", Value: items},
			{Key: "total", Value: bson.A{bson.D{{Key: "$count", Value: "n"}}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, wrapErr("aggregate products", err)
	}
	defer cursor.Close(ctx)

	var pages []productPage
	if err := cursor.All(ctx, &pages); err != nil {
		return nil, 0, wrapErr("decode products", err)
	}

	products := make([]models.Product, 0)
	var total int64
	if len(pages) > 0 {
		if pages[0].Items != nil {
			products = pages[0].Items
		}
		if len(pages[0].Total) > 0 {
			total = pages[0].Total[0].N
		}
	}
	return products, total, nil
}

// FindByID obtiene un producto por ID con su categoría
func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindBySlug obtiene un producto por slug con su categoría
func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *ProductRepository) findOne(ctx context.Context, filter bson.M) (*models.Product, error) {
	products, err := r.find(ctx, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	return &products[0], nil
}

// FindByIDs obtiene los productos existentes de la lista, en orden de creación
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, 0)
}

func (r *ProductRepository) find(ctx context.Context, filter bson.M, limit int64) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	pipeline = append(pipeline, r.categoryStages()...)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr("aggregate products", err)
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, wrapErr("decode products", err)
	}
	return products, nil
}

// ExistsBySlug indica si otro producto ya usa el slug
func (r *ProductRepository) ExistsBySlug(ctx context.Context, slug string, excludeID *primitive.ObjectID) (bool, error) {
	return r.exists(ctx, "slug", slug, excludeID)
}

// ExistsBySKU indica si otro producto ya usa el SKU
func (r *ProductRepository) ExistsBySKU(ctx context.Context, sku string, excludeID *primitive.ObjectID) (bool, error) {
	return r.exists(ctx, "sku", sku, excludeID)
}

func (r *ProductRepository) exists(ctx context.Context, field, value string, excludeID *primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	filter := bson.M{field: value}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, wrapErr("count products", err)
	}
	return n > 0, nil
}

// Create crea un nuevo producto
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, storable(product))
	return wrapErr("insert product", err)
}

// Update reemplaza el documento completo del producto
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	product.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": product.ID}, storable(product))
	if err != nil {
		return wrapErr("update product", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete elimina el producto
func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrapErr("delete product", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearCategory desvincula los productos de una categoría eliminada
func (r *ProductRepository) ClearCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	result, err := r.collection.UpdateMany(ctx,
		bson.M{"category_id": categoryID},
		bson.M{"$set": bson.M{"category_id": nil, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, wrapErr("clear product category", err)
	}
	return result.ModifiedCount, nil
}

// storable quita la vista de categoría, que solo existe en lecturas
func storable(p *models.Product) *models.Product {
	doc := *p
	doc.Category = nil
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if doc.Images == nil {
		doc.Images = []models.ProductImage{}
	}
	return &doc
}
