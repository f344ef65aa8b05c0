package services

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupSQLiteTestDB creates an in-memory SQLite database for testing
func SetupSQLiteTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to SQLite test database: %v", err)
	}

	// Each connection to :memory: opens a separate database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// SetupMockDB creates a gorm handle over sqlmock using the postgres dialector
func SetupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	var db *sql.DB
	var mock sqlmock.Sqlmock
	var err error

	db, mock, err = sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		Conn:       db,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return gormDB, mock, cleanup
}

// SeedRequest inserts a membership request for tests
func SeedRequest(t *testing.T, db *gorm.DB, request models.MembershipRequest) models.MembershipRequest {
	if request.Status == "" {
		request.Status = models.StatusPending
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("Failed to seed request %s: %v", request.ID, err)
	}
	return request
}

// SeedMember inserts a member for tests
func SeedMember(t *testing.T, db *gorm.DB, member models.Member) models.Member {
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("Failed to seed member %s: %v", member.ID, err)
	}
	return member
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
