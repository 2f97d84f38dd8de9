package database

import (
	"fmt"
	"interview_trainer_backend/internal/config"
	"interview_trainer_backend/internal/model"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	return db, nil
}

// Migrate 建表/补列。debug 模式或显式 --migrate 时执行。
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Interview{},
		&model.Question{},
		&model.BehaviorMetric{},
		&model.TranscriptEntry{},
		&model.Document{},
		&model.InterviewDataset{},
	)
	if err != nil {
		return err
	}

	log.Println("Database migration completed")
	return nil
}
