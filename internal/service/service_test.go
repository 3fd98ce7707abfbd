package service

import (
	"fmt"
	"testing"

	"github.com/sahidursuman/flex-commerce/config"
	"github.com/sahidursuman/flex-commerce/internal/domain"
	"github.com/sahidursuman/flex-commerce/internal/models"
	"github.com/sahidursuman/flex-commerce/pkg/alipay"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
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
	))
	return db
}

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Alipay.ReturnRoot = "http://localhost:8080"
	cfg.Payment.AppTitle = "Flex Commerce"
	return cfg
}

func testGateway(t *testing.T) *alipay.Client {
	t.Helper()
	gw, err := alipay.NewClient("https://gateway.test/gateway.do", "test-app", "", "")
	require.NoError(t, err)
	return gw
}

func createUser(t *testing.T, db *gorm.DB, balanceCents int64) *models.User {
	t.Helper()
	u := &models.User{
		Email: fmt.Sprintf("%s@example.com", uuid.New().String()),
		Name:  "Test User",
		Role:  domain.RoleCustomer,
	}
	require.NoError(t, db.Create(u).Error)
	w := &models.Wallet{UserID: u.ID, BalanceCents: balanceCents}
	require.NoError(t, db.Create(w).Error)
	return u
}

func createOrder(t *testing.T, db *gorm.DB, userID uint, status domain.OrderStatus, subtotalCents int64) *models.Order {
	t.Helper()
	o := &models.Order{
		Number:        fmt.Sprintf("ord-%s", uuid.New().String()),
		UserID:        userID,
		Status:        status,
		SubtotalCents: subtotalCents,
	}
	require.NoError(t, db.Create(o).Error)
	return o
}

func countPayments(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&n).Error)
	return n
}

func countTransactions(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&n).Error)
	return n
}

func reloadWallet(t *testing.T, db *gorm.DB, userID uint) *models.Wallet {
	t.Helper()
	var w models.Wallet
	require.NoError(t, db.Where("user_id = ?", userID).First(&w).Error)
	return &w
}

func reloadOrder(t *testing.T, db *gorm.DB, id uint) *models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, db.First(&o, id).Error)
	return &o
}

func reloadPayment(t *testing.T, db *gorm.DB, id uint) *models.Payment {
	t.Helper()
	var p models.Payment
	require.NoError(t, db.First(&p, id).Error)
	return &p
}
