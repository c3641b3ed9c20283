package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopd-io/shopd/domain"
	serrors "github.com/shopd-io/shopd/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ProductRepository implements domain.ProductRepository
type ProductRepository struct {
	products *mongo.Collection
}

// NewProductRepository creates a new ProductRepository backed by MongoDB.
func NewProductRepository(ctx context.Context, db *mongo.Database) (domain.ProductRepository, error) {
	repo := &ProductRepository{
		products: db.Collection(ProductsCollection),
	}

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := repo.products.Indexes().CreateMany(ctx, indexModels, options.CreateIndexes()); err != nil {
		log.Warn().Err(err).Msg("Issue creating indexes for products collection (might already exist or other error)")
	}

	return repo, nil
}

// CreateProduct persists a new product.
func (r *ProductRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	if _, err := r.products.InsertOne(ctx, product); err != nil {
		log.Error().Err(err).Msg("Error creating product in MongoDB")
		return err
	}
	return nil
}

// GetProductByID retrieves a product by ID. Returns (nil, nil) when absent.
func (r *ProductRepository) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := r.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		log.Error().Err(err).Str("id", id).Msg("Error getting product by ID from MongoDB")
		return nil, err
	}
	return &product, nil
}

// ListProducts returns a page of products (newest first) and the total count.
func (r *ProductRepository) ListProducts(ctx context.Context, limit, offset int64) ([]*domain.Product, int64, error) {
	total, err := r.products.CountDocuments(ctx, bson.M{})
	if err != nil {
		log.Error().Err(err).Msg("Error counting products in MongoDB")
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	cursor, err := r.products.Find(ctx, bson.M{}, opts)
	if err != nil {
		log.Error().Err(err).Msg("Error listing products from MongoDB")
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var products []*domain.Product
	if err = cursor.All(ctx, &products); err != nil {
		log.Error().Err(err).Msg("Error decoding listed products from MongoDB")
		return nil, 0, err
	}
	return products, total, nil
}

// UpdateProduct replaces the mutable fields of an existing product.
// Returns ErrNotFound when the product does not exist.
func (r *ProductRepository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	update := bson.M{"$set": bson.M{
		"name":        product.Name,
		"description": product.Description,
		"price":       product.Price,
		"quantity":    product.Quantity,
		"updated_at":  time.Now().UTC(),
	}}
	result, err := r.products.UpdateOne(ctx, bson.M{"_id": product.ID}, update)
	if err != nil {
		log.Error().Err(err).Str("productID", product.ID).Msg("Error updating product in MongoDB")
		return err
	}
	if result.MatchedCount == 0 {
		return serrors.ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product by ID. Returns ErrNotFound when absent.
func (r *ProductRepository) DeleteProduct(ctx context.Context, id string) error {
	result, err := r.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Error deleting product from MongoDB")
		return err
	}
	if result.DeletedCount == 0 {
		return serrors.ErrNotFound
	}
	return nil
}

// Ensure interface compliance
var _ domain.ProductRepository = (*ProductRepository)(nil)
