package mysql

import (
	"fmt"
	"time"

	"commerce-service/internal/config"
	"commerce-service/internal/domain"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models is every table the service owns, in migration order.
var Models = []any{
	&domain.Product{},
	&domain.ProductVariant{},
	&domain.Order{},
	&domain.OrderLine{},
	&domain.Payment{},
	&domain.Shipment{},
	&domain.Invoice{},
	&domain.InvoiceSequence{},
	&domain.HistoryEntry{},
}

func NewMySQL(cfg config.MySQLConfig, log *zap.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("mysql: pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLife)
	sqlDB.SetConnMaxIdleTime(time.Minute)

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("mysql: migrate: %w", err)
	}

	log.Info("mysql connected", zap.String("host", cfg.Host), zap.String("database", cfg.Database))
	return db, nil
}
