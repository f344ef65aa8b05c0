package services

import (
	"context"

	apierrors "github.com/WooyoungKwon/youtube-premium-sub001/pkg/errors"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatsService computes dashboard revenue figures
type StatsService struct {
	db             *gorm.DB
	pricePerMember decimal.Decimal
}

// NewStatsService creates a new stats service
func NewStatsService(db *gorm.DB, pricePerMember decimal.Decimal) *StatsService {
	return &StatsService{db: db, pricePerMember: pricePerMember}
}

// GetAdminStats returns member count, the flat monthly revenue estimate and the ledger total
func (s *StatsService) GetAdminStats(ctx context.Context) (*models.AdminStats, error) {
	var totalMembers int64
	if err := s.db.WithContext(ctx).Model(&models.Member{}).Count(&totalMembers).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "count members")
	}

	var cumulative decimal.NullDecimal
	row := s.db.WithContext(ctx).Model(&models.RevenueRecord{}).Select("SUM(amount)").Row()
	if err := row.Scan(&cumulative); err != nil {
		return nil, apierrors.HandleDatabaseError(err, "sum revenue")
	}
	if !cumulative.Valid {
		cumulative.Decimal = decimal.Zero
	}

	return &models.AdminStats{
		TotalMembers:      totalMembers,
		MonthlyRevenue:    s.pricePerMember.Mul(decimal.NewFromInt(totalMembers)),
		CumulativeRevenue: cumulative.Decimal,
		PricePerMember:    s.pricePerMember,
	}, nil
}
