package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// Every new connection to :memory: is a fresh database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(AllModels()...))
	return db
}

func TestBaseModel_BeforeCreate(t *testing.T) {
	db := openTestDB(t)

	account := YoutubeAccount{ID: "acc_1", YoutubeEmail: "pool@example.com"}
	require.NoError(t, db.Create(&account).Error)

	assert.False(t, account.CreatedAt.IsZero())
	assert.False(t, account.UpdatedAt.IsZero())
	assert.WithinDuration(t, time.Now(), account.CreatedAt, 5*time.Second)
}

func TestBaseModel_BeforeUpdate(t *testing.T) {
	db := openTestDB(t)

	past := time.Now().Add(-time.Hour).UTC()
	account := YoutubeAccount{ID: "acc_1", YoutubeEmail: "pool@example.com", BaseModel: BaseModel{CreatedAt: past, UpdatedAt: past}}
	require.NoError(t, db.Create(&account).Error)

	account.Nickname = "family-1"
	require.NoError(t, db.Save(&account).Error)

	assert.True(t, account.UpdatedAt.After(past))
	assert.WithinDuration(t, past, account.CreatedAt, time.Second)
}

func TestModels_DateAndDecimalRoundTrip(t *testing.T) {
	db := openTestDB(t)

	paymentDate, err := ParseDate("2026-12-01")
	require.NoError(t, err)

	member := Member{ID: "mem_1", Nickname: "nick", Email: "user@example.com", PaymentDate: &paymentDate}
	require.NoError(t, db.Create(&member).Error)

	var loaded Member
	require.NoError(t, db.First(&loaded, "id = ?", "mem_1").Error)
	require.NotNil(t, loaded.PaymentDate)
	assert.Equal(t, "2026-12-01", loaded.PaymentDate.String())
	assert.Nil(t, loaded.LastPaymentDate)
	assert.Equal(t, DepositStatusPending, loaded.DepositStatus)

	record := RevenueRecord{ID: "rev_1", MemberID: "mem_1", Months: 3, Amount: decimal.NewFromInt(12000), RecordedAt: time.Now()}
	require.NoError(t, db.Create(&record).Error)

	var loadedRecord RevenueRecord
	require.NoError(t, db.First(&loadedRecord, "id = ?", "rev_1").Error)
	assert.True(t, decimal.NewFromInt(12000).Equal(loadedRecord.Amount))
}
