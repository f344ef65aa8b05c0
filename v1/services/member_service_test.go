package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	apierrors "github.com/WooyoungKwon/youtube-premium-sub001/pkg/errors"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, value string) *models.Date {
	d, err := models.ParseDate(value)
	require.NoError(t, err)
	return &d
}

func TestMemberService_GetAllMembersWithDetails(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.YoutubeAccount{ID: "acc_1", YoutubeEmail: "pool@example.com", Nickname: "family-1"}).Error)

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	SeedMember(t, db, models.Member{ID: "mem_1", Nickname: "one", Email: "one@example.com", YoutubeAccountID: strPtr("acc_1"),
		BaseModel: models.BaseModel{CreatedAt: older}})
	SeedMember(t, db, models.Member{ID: "mem_2", Nickname: "two", Email: "two@example.com",
		BaseModel: models.BaseModel{CreatedAt: older.Add(time.Hour)}})

	SeedRequest(t, db, models.MembershipRequest{ID: "req_old", Email: "ONE@example.com", PlanType: strPtr("basic"), Months: intPtr(1),
		Status: models.StatusApproved, BaseModel: models.BaseModel{CreatedAt: older}})
	SeedRequest(t, db, models.MembershipRequest{ID: "req_new", Email: "one@example.com", PlanType: strPtr("family"), Months: intPtr(6),
		Status: models.StatusApproved, BaseModel: models.BaseModel{CreatedAt: older.Add(time.Minute)}})

	details, err := service.GetAllMembersWithDetails(ctx)
	require.NoError(t, err)
	require.Len(t, details, 2)

	assert.Equal(t, "mem_2", details[0].ID)
	assert.Nil(t, details[0].YoutubeEmail)
	assert.Nil(t, details[0].PlanType)

	assert.Equal(t, "mem_1", details[1].ID)
	require.NotNil(t, details[1].YoutubeEmail)
	assert.Equal(t, "pool@example.com", *details[1].YoutubeEmail)
	assert.Equal(t, "family-1", *details[1].YoutubeNickname)
	assert.Equal(t, "family", *details[1].PlanType)
	assert.Equal(t, 6, *details[1].RequestedMonths)
	assert.Equal(t, "one", details[1].Nickname)
}

func TestMemberService_CreateMember(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)
	ctx := context.Background()

	member, err := service.CreateMember(ctx, &models.CreateMemberRequest{
		Nickname:    "nick",
		Email:       "user@example.com",
		PaymentDate: mustDate(t, "2026-12-01"),
	})
	require.NoError(t, err)
	assert.Contains(t, member.ID, models.MemberIDPrefix)
	assert.Equal(t, models.DepositStatusPending, member.DepositStatus)

	_, err = service.CreateMember(ctx, &models.CreateMemberRequest{Nickname: "dup", Email: " USER@example.com"})
	assert.True(t, apierrors.IsType(err, apierrors.ErrorTypeConflict))

	_, err = service.CreateMember(ctx, &models.CreateMemberRequest{Nickname: "", Email: "other@example.com"})
	assert.True(t, apierrors.IsType(err, apierrors.ErrorTypeValidation))

	_, err = service.CreateMember(ctx, &models.CreateMemberRequest{Nickname: "x", Email: "bad"})
	assert.True(t, apierrors.IsType(err, apierrors.ErrorTypeValidation))
}

func TestMemberService_UpdateMember(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)
	ctx := context.Background()
	SeedMember(t, db, models.Member{ID: "mem_1", Nickname: "nick", Email: "user@example.com", PaymentDate: mustDate(t, "2026-01-01")})

	err := service.UpdateMember(ctx, "mem_1", &models.UpdateMemberRequest{
		Nickname:        "renamed",
		Email:           "user@example.com",
		Name:            "Kim",
		LastPaymentDate: mustDate(t, "2026-02-01"),
		PaymentDate:     nil,
		DepositStatus:   "paid",
	})
	require.NoError(t, err)

	var member models.Member
	require.NoError(t, db.First(&member, "id = ?", "mem_1").Error)
	assert.Equal(t, "renamed", member.Nickname)
	assert.Equal(t, "Kim", member.Name)
	assert.Equal(t, "2026-02-01", member.LastPaymentDate.String())
	assert.Nil(t, member.PaymentDate)
	assert.Equal(t, "paid", member.DepositStatus)

	err = service.UpdateMember(ctx, "mem_missing", &models.UpdateMemberRequest{Nickname: "n", Email: "x@example.com"})
	assert.True(t, apierrors.IsType(err, apierrors.ErrorTypeNotFound))
}

func TestMemberService_DeleteMember(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)
	SeedMember(t, db, models.Member{ID: "mem_1", Nickname: "nick", Email: "user@example.com"})

	require.NoError(t, service.DeleteMember(context.Background(), "mem_1"))
	assert.Equal(t, int64(0), countRows(t, db, &models.Member{}))
}

func TestMemberService_BulkUpdateDepositStatus(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)
	ctx := context.Background()
	SeedMember(t, db, models.Member{ID: "a", Nickname: "a", Email: "a@example.com"})
	SeedMember(t, db, models.Member{ID: "b", Nickname: "b", Email: "b@example.com"})
	SeedMember(t, db, models.Member{ID: "c", Nickname: "c", Email: "c@example.com"})

	result, err := service.BulkUpdateDepositStatus(ctx, []string{"a", "b", "nonexistent"}, "paid")
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.UpdatedCount)
	require.Len(t, result.UpdatedMembers, 2)
	for _, m := range result.UpdatedMembers {
		assert.Equal(t, "paid", m.DepositStatus)
	}

	var untouched models.Member
	require.NoError(t, db.First(&untouched, "id = ?", "c").Error)
	assert.Equal(t, models.DepositStatusPending, untouched.DepositStatus)

	t.Run("EmptyIDs", func(t *testing.T) {
		_, err := service.BulkUpdateDepositStatus(ctx, []string{" "}, "paid")
		assert.True(t, apierrors.IsType(err, apierrors.ErrorTypeValidation))
	})

	t.Run("MissingStatus", func(t *testing.T) {
		_, err := service.BulkUpdateDepositStatus(ctx, []string{"a"}, "")
		assert.True(t, apierrors.IsType(err, apierrors.ErrorTypeValidation))
	})
}

func TestMemberService_BulkUpdateDepositStatus_SingleStatement(t *testing.T) {
	db, mock, cleanup := SetupMockDB(t)
	defer cleanup()
	service := NewMemberService(db)

	mock.ExpectExec(`UPDATE "members" SET "deposit_status"=\$1,"updated_at"=\$2 WHERE id IN \(\$3,\$4,\$5\)`).
		WithArgs("paid", sqlmock.AnyArg(), "a", "b", "nonexistent").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`SELECT \* FROM "members" WHERE id IN \(\$1,\$2,\$3\)`).
		WithArgs("a", "b", "nonexistent").
		WillReturnRows(sqlmock.NewRows([]string{"id", "nickname", "email", "deposit_status"}).
			AddRow("a", "a", "a@example.com", "paid").
			AddRow("b", "b", "b@example.com", "paid"))

	result, err := service.BulkUpdateDepositStatus(context.Background(), []string{"a", "b", "a", "nonexistent"}, "paid")
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.UpdatedCount)
	assert.Len(t, result.UpdatedMembers, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberService_CheckExpiry(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)
	ctx := context.Background()
	SeedMember(t, db, models.Member{ID: "mem_1", Nickname: "a", Email: "dated@example.com", PaymentDate: mustDate(t, "2026-08-31")})
	SeedMember(t, db, models.Member{ID: "mem_2", Nickname: "b", Email: "undated@example.com"})

	expiry, err := service.CheckExpiry(ctx, " Dated@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "dated@example.com", expiry.Email)
	assert.Equal(t, "2026-08-31", expiry.ExpiryDate.String())

	_, err = service.CheckExpiry(ctx, "nobody@example.com")
	apiErr := apierrors.GetAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, 404, apiErr.HTTPStatus)
	assert.Equal(t, "member not found", apiErr.Message)

	_, err = service.CheckExpiry(ctx, "undated@example.com")
	apiErr = apierrors.GetAPIError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, 404, apiErr.HTTPStatus)
	assert.Equal(t, apierrors.CodeNoExpiryData, apiErr.Code)
	assert.Equal(t, "no expiry data", apiErr.Message)

	_, err = service.CheckExpiry(ctx, "  ")
	assert.True(t, apierrors.IsType(err, apierrors.ErrorTypeValidation))
}

func TestMemberService_VerifyMemberExists(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	service := NewMemberService(db)
	ctx := context.Background()
	SeedMember(t, db, models.Member{ID: "mem_1", Nickname: "a", Email: "user@example.com"})

	assert.True(t, service.VerifyMemberExists(ctx, "  USER@Example.com "))
	assert.False(t, service.VerifyMemberExists(ctx, "other@example.com"))
	assert.False(t, service.VerifyMemberExists(ctx, ""))
}

func TestMemberService_VerifyMemberExists_LookupError(t *testing.T) {
	db, mock, cleanup := SetupMockDB(t)
	defer cleanup()
	service := NewMemberService(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "members"`).
		WillReturnError(errors.New("connection reset"))

	assert.False(t, service.VerifyMemberExists(context.Background(), "user@example.com"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
