package main

import (
	"os"
	"strings"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"taskflow/models"
)

var db *gorm.DB

func initDB() {
	var err error
	db, err = openDatabase()
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true).
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		migrateSchema(db)
	}
	seedDB()
}

// openDatabase connects to Postgres when DB_DSN is set and falls back to a
// local sqlite file otherwise so the service runs without external infra.
func openDatabase() (*gorm.DB, error) {
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "taskflow.db"
	}
	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}

// migrateSchema migrates models individually so a failure on one doesn't
// block the others. Parents go first so child FKs can be applied safely.
func migrateSchema(db *gorm.DB) {
	entities := []interface{}{
		&models.User{},
		&models.RefreshToken{},
		&models.Task{},
		&models.Profile{},
		&models.Experience{},
		&models.Course{},
		&models.WorkProduct{},
		&models.AcademicProduct{},
		&models.Reference{},
	}
	for _, e := range entities {
		if err := db.AutoMigrate(e); err != nil {
			logger.Warn("migration warning", zap.Error(err))
		}
	}
}

func seedDB() {
	// Seed the admin account once.
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin := models.User{Username: "admin", HashedPassword: hashedPassword}
		db.Create(&admin)
		logger.Info("seeded admin user", zap.String("username", "admin"))
	}
	// Ensure admin has a one-to-one profile.
	var admin models.User
	if err := db.Where("username = ?", "admin").First(&admin).Error; err != nil {
		logger.Warn("failed to find admin user after seeding", zap.Error(err))
		return
	}
	var pcount int64
	db.Model(&models.Profile{}).Where("user_id = ?", admin.ID).Count(&pcount)
	if pcount == 0 {
		profile := models.Profile{UserID: admin.ID, Email: "admin@example.com"}
		if err := db.Create(&profile).Error; err != nil {
			logger.Warn("failed to create profile for admin", zap.Error(err))
		}
	}
	ensureUploadBase()
}

// ensureUploadBase creates the base directory for stored attachments/photos.
func ensureUploadBase() {
	base := uploadBaseDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		logger.Warn("failed to create upload base dir", zap.String("dir", base), zap.Error(err))
	}
}

// uploadBaseDir returns the base directory for local uploads (configurable
// via UPLOAD_BASE env).
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return "uploads"
}
