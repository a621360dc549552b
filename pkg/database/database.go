package database

import (
	"evalmate_backend/internal/config"
	"evalmate_backend/internal/model"
	"fmt"
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
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")
	return db, nil
}

// Migrate runs the schema migration for every model. Forms own their
// responses and answers; profiles own their forms, pending evaluations and
// drafts (cascade deletes follow the foreign keys).
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.FormTemplate{},
		&model.FormResponse{},
		&model.ResponseAnswer{},
		&model.PendingEvaluation{},
		&model.DraftResponse{},
	)
	if err != nil {
		return err
	}

	log.Println("Database migration completed")
	return nil
}
