package config

import (
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	model "workforce-tracker.com/workforce-tracker/internal/models"
)

func New(dsn string) *gorm.DB {
	db, err := Open(dsn)
	if err != nil {
		logrus.Fatalf("db open failed: %v", err)
	}
	return db
}

// Open connects and migrates the tables this service reads and writes.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&model.User{}, &model.Task{}, &model.Comment{}, &model.Attachment{}); err != nil {
		return nil, err
	}

	return db, nil
}
