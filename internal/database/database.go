package database

import (
	"log"

	"github.com/sahidursuman/flex-commerce/config"
	"github.com/sahidursuman/flex-commerce/internal/domain"
	"github.com/sahidursuman/flex-commerce/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.Category{},
		&models.Product{},
		&models.Cart{},
		&models.Inventory{},
		&models.Address{},
		&models.ShippingMethod{},
		&models.ShippingRate{},
		&models.Order{},
		&models.Payment{},
		&models.Transaction{},
		&models.Transfer{},
		&models.SystemSetting{},
		&models.Notification{},
	)
}

// SeedAdmin creates the default admin account if none exists.
func SeedAdmin(db *gorm.DB) {
	var n int64
	db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&n)
	if n > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("change-me-now"), bcrypt.DefaultCost)
	if err != nil {
		return
	}
	admin := models.User{
		Email:        "admin@flex-commerce.local",
		Name:         "Admin",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("[seed] admin user: %v", err)
		return
	}
	db.FirstOrCreate(&models.Wallet{}, models.Wallet{UserID: admin.ID})
	log.Printf("[seed] created admin user %s", admin.Email)
}
