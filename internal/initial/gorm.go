package initial

import (
	"fmt"

	"MediVision/internal/config"
	"MediVision/internal/modules/medical/domain/repository"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewGormDB opens the MySQL connection backing the knowledge ingest outbox
// and migrates its table. Returns nil without error when MySQL is not
// configured: the async ingest path is optional.
func NewGormDB(conf *config.Config) (*gorm.DB, error) {
	mc := conf.MysqlConfig
	if mc.Host == "" {
		return nil, nil
	}
	if mc.Port <= 0 {
		mc.Port = 3306
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		mc.User, mc.Password, mc.Host, mc.Port, mc.DatabaseName)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	if err := db.AutoMigrate(&repository.IngestEvent{}); err != nil {
		return nil, fmt.Errorf("migrate ingest events: %w", err)
	}
	return db, nil
}
