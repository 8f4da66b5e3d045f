package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/nextchow/internal/models"
)

// setupMongoCartRepository 需要设置 NEXTCHOW_TEST_MONGO_URI 才会执行
func setupMongoCartRepository(t *testing.T) *MongoCartRepository {
	t.Helper()
	uri := strings.TrimSpace(os.Getenv("NEXTCHOW_TEST_MONGO_URI"))
	if uri == "" {
		t.Skip("skip mongo cart test: NEXTCHOW_TEST_MONGO_URI is empty")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, db, err := ConnectMongoDB(ctx, uri, fmt.Sprintf("nextchow_test_%d", time.Now().UnixNano()), 5*time.Second)
	if err != nil {
		t.Fatalf("connect mongo failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	repo := NewMongoCartRepository(db)
	if err := repo.CreateIndexes(ctx); err != nil {
		t.Fatalf("create indexes failed: %v", err)
	}
	return repo
}

func TestMongoCartRepositoryLifecycle(t *testing.T) {
	repo := setupMongoCartRepository(t)
	ctx := context.Background()

	missing, err := repo.GetByCustomer(ctx, 1)
	if err != nil || missing != nil {
		t.Fatalf("expected missing cart, got %+v err=%v", missing, err)
	}

	cart := models.EmptyCart(1)
	cart.VendorID = 9
	cart.Packs = models.PackList{{PackagingID: uintPtr(3), Items: []models.PackItem{{MenuID: 1, Quantity: 2}}}}
	cart.TotalPrice = models.MustMoney("1500.00")
	if err := repo.Save(ctx, cart); err != nil {
		t.Fatalf("create cart failed: %v", err)
	}

	stored, err := repo.GetByCustomer(ctx, 1)
	if err != nil || stored == nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if !stored.TotalPrice.Equal(models.NewMoney(1500)) || stored.VendorID != 9 || len(stored.Packs) != 1 {
		t.Fatalf("unexpected stored cart: %+v", stored)
	}

	stale := *stored
	stored.Packs = models.PackList{}
	if err := repo.Save(ctx, stored); err != nil {
		t.Fatalf("update cart failed: %v", err)
	}
	if err := repo.Save(ctx, &stale); !errors.Is(err, ErrCartVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	if err := repo.Save(ctx, models.EmptyCart(1)); !errors.Is(err, ErrCartVersionConflict) {
		t.Fatalf("expected duplicate conflict, got %v", err)
	}

	if err := repo.DeleteByCustomer(ctx, 1); err != nil {
		t.Fatalf("delete cart failed: %v", err)
	}
	if gone, _ := repo.GetByCustomer(ctx, 1); gone != nil {
		t.Fatalf("cart should be deleted")
	}
}
