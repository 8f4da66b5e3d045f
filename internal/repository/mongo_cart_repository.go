package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nextchow/internal/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCartCollection = "customer_cart"

// ConnectMongoDB 连接 MongoDB 并校验可用性
func ConnectMongoDB(ctx context.Context, uri, database string, connectTimeout time.Duration) (*mongo.Client, *mongo.Database, error) {
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, client.Database(database), nil
}

// cartDocument 购物车文档结构，金额以字符串保存避免浮点误差
type cartDocument struct {
	CustomerID uint            `bson:"customer_id"`
	VendorID   uint            `bson:"vendor_id"`
	Packs      models.PackList `bson:"packs"`
	TotalPrice string          `bson:"total_price"`
	Version    uint64          `bson:"version"`
	CreatedAt  time.Time       `bson:"created_at"`
	UpdatedAt  time.Time       `bson:"updated_at"`
}

func (d cartDocument) toModel() (*models.Cart, error) {
	total := decimal.Zero
	if d.TotalPrice != "" {
		parsed, err := decimal.NewFromString(d.TotalPrice)
		if err != nil {
			return nil, fmt.Errorf("decode cart total: %w", err)
		}
		total = parsed
	}
	packs := d.Packs
	if packs == nil {
		packs = models.PackList{}
	}
	return &models.Cart{
		// Mongo 文档没有自增主键，使用顾客 ID 标记已持久化
		ID:         d.CustomerID,
		CustomerID: d.CustomerID,
		VendorID:   d.VendorID,
		Packs:      packs,
		TotalPrice: models.NewMoneyFromDecimal(total),
		Version:    d.Version,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}

// MongoCartRepository MongoDB 实现
type MongoCartRepository struct {
	collection *mongo.Collection
}

// NewMongoCartRepository 创建 MongoDB 购物车仓库
func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{collection: db.Collection(mongoCartCollection)}
}

// CreateIndexes 创建唯一索引
func (r *MongoCartRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "customer_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "updated_at", Value: 1}},
		},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	return nil
}

// GetByCustomer 获取顾客购物车
func (r *MongoCartRepository) GetByCustomer(ctx context.Context, customerID uint) (*models.Cart, error) {
	var doc cartDocument
	err := r.collection.FindOne(ctx, bson.M{"customer_id": customerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return doc.toModel()
}

// Save 新建或按版本更新购物车
func (r *MongoCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	if cart == nil {
		return nil
	}
	now := time.Now()
	if cart.ID == 0 {
		if cart.CreatedAt.IsZero() {
			cart.CreatedAt = now
		}
		doc := cartDocument{
			CustomerID: cart.CustomerID,
			VendorID:   cart.VendorID,
			Packs:      cart.Packs,
			TotalPrice: cart.TotalPrice.String(),
			Version:    1,
			CreatedAt:  cart.CreatedAt,
			UpdatedAt:  now,
		}
		if _, err := r.collection.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrCartVersionConflict
			}
			return fmt.Errorf("failed to create cart: %w", err)
		}
		cart.ID = cart.CustomerID
		cart.Version = 1
		cart.UpdatedAt = now
		return nil
	}

	filter := bson.M{"customer_id": cart.CustomerID, "version": cart.Version}
	update := bson.M{"$set": bson.M{
		"vendor_id":   cart.VendorID,
		"packs":       cart.Packs,
		"total_price": cart.TotalPrice.String(),
		"updated_at":  now,
		"version":     cart.Version + 1,
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrCartVersionConflict
	}
	cart.Version++
	cart.UpdatedAt = now
	return nil
}

// DeleteByCustomer 删除顾客购物车
func (r *MongoCartRepository) DeleteByCustomer(ctx context.Context, customerID uint) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"customer_id": customerID}); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
