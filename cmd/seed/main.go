package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nextchow/internal/cache"
	"github.com/nextchow/internal/config"
	"github.com/nextchow/internal/constants"
	"github.com/nextchow/internal/logger"
	"github.com/nextchow/internal/models"
	"github.com/nextchow/internal/repository"
	"github.com/nextchow/internal/service"

	"gorm.io/gorm"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	db, err := models.OpenDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.LogLevel, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	})
	if err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	defer func() { _ = models.CloseDB(db) }()

	// 自动迁移
	if err := models.AutoMigrate(db); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 商家
	vendor := models.VendorProfile{
		StoreName:  "Mama Put Kitchen",
		Address:    "12 Market Road, Makurdi",
		Phone:      "+2348011111111",
		Location:   models.NewGeoPoint(7.186, 8.894),
		IsVerified: true,
	}
	if err := db.Where("store_name = ?", vendor.StoreName).FirstOrCreate(&vendor).Error; err != nil {
		stdLog.Fatalf("Failed to seed vendor: %v", err)
	}

	category := models.Category{VendorID: vendor.ID, Name: "Rice Dishes"}
	if err := db.Where("user_id = ? AND name = ?", vendor.ID, category.Name).FirstOrCreate(&category).Error; err != nil {
		stdLog.Fatalf("Failed to seed category: %v", err)
	}

	packaging := models.Packaging{
		VendorID:    vendor.ID,
		Name:        "Takeaway Box",
		Description: "Insulated single-portion box",
		Price:       models.MustMoney("200"),
	}
	if err := db.Where("user_id = ? AND name = ?", vendor.ID, packaging.Name).FirstOrCreate(&packaging).Error; err != nil {
		stdLog.Fatalf("Failed to seed packaging: %v", err)
	}

	menus := []models.Menu{
		{Name: "Jollof Rice", Description: "Smoky party jollof", Price: models.MustMoney("500"), PreparationDuration: 20},
		{Name: "Fried Plantain", Description: "Sweet dodo", Price: models.MustMoney("300"), PreparationDuration: 10},
		{Name: "Peppered Chicken", Description: "Grilled and glazed", Price: models.MustMoney("1200"), PreparationDuration: 25},
	}
	for i := range menus {
		menus[i].VendorID = vendor.ID
		menus[i].CategoryID = &category.ID
		menus[i].PackagingID = &packaging.ID
		menus[i].IsAvailable = true
		if err := seedMenu(db, &menus[i]); err != nil {
			stdLog.Fatalf("Failed to seed menu %s: %v", menus[i].Name, err)
		}
	}

	// 顾客
	customer := models.Customer{
		FirstName: "Ada",
		LastName:  "Obi",
		Email:     "ada@nextchow.test",
		Phone:     "+2348000000000",
		Address:   "4 Garden Close, Makurdi",
		Location:  models.NewGeoPoint(7.200, 8.900),
		Status:    constants.CustomerStatusActive,
	}
	if err := db.Where("email = ?", customer.Email).FirstOrCreate(&customer).Error; err != nil {
		stdLog.Fatalf("Failed to seed customer: %v", err)
	}

	authService := service.NewCustomerAuthService(cfg.UserJWT.SecretKey, cfg.UserJWT.Issuer,
		repository.NewCustomerRepository(db), cache.NewStore(nil))
	token, expiresAt, err := authService.GenerateCustomerJWT(&customer, 7*24*time.Hour)
	if err != nil {
		stdLog.Fatalf("Failed to issue customer token: %v", err)
	}
	if _, err := authService.Authenticate(context.Background(), token); err != nil {
		stdLog.Fatalf("Issued token does not verify: %v", err)
	}
	vendorAuth := service.NewVendorAuthService(cfg.UserJWT.SecretKey, cfg.UserJWT.Issuer, repository.NewVendorRepository(db))
	vendorToken, _, err := vendorAuth.GenerateVendorJWT(&vendor, 7*24*time.Hour)
	if err != nil {
		stdLog.Fatalf("Failed to issue vendor token: %v", err)
	}

	fmt.Println("Seed data created successfully!")
	fmt.Printf("Vendor:    #%d %s\n", vendor.ID, vendor.StoreName)
	fmt.Printf("Packaging: #%d %s (%s)\n", packaging.ID, packaging.Name, packaging.Price.String())
	for _, menu := range menus {
		fmt.Printf("Menu:      #%d %s (%s)\n", menu.ID, menu.Name, menu.Price.String())
	}
	fmt.Printf("Customer:  #%d %s\n", customer.ID, customer.Email)
	fmt.Printf("Token (expires %s):\n%s\n", expiresAt.Format(time.RFC3339), token)
	fmt.Printf("Vendor token:\n%s\n", vendorToken)
}

func seedMenu(db *gorm.DB, menu *models.Menu) error {
	return db.Where("user_id = ? AND name = ?", menu.VendorID, menu.Name).FirstOrCreate(menu).Error
}
