package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MembershipRequest is a user-submitted intent to subscribe, awaiting admin approval
type MembershipRequest struct {
	ID            string  `gorm:"primarykey;column:id" json:"id"`
	Email         string  `gorm:"column:email;not null;index" json:"email"`
	Phone         *string `gorm:"column:phone" json:"phone,omitempty"`
	KakaoID       *string `gorm:"column:kakao_id" json:"kakaoId,omitempty"`
	DepositorName *string `gorm:"column:depositor_name" json:"depositorName,omitempty"`
	Months        *int    `gorm:"column:months" json:"months,omitempty"`
	ReferralEmail *string `gorm:"column:referral_email" json:"referralEmail,omitempty"`
	PlanType      *string `gorm:"column:plan_type" json:"planType,omitempty"`
	Status        Status  `gorm:"column:status;not null;default:pending;index" json:"status"`
	BaseModel
}

// TableName sets the table name for GORM
func (MembershipRequest) TableName() string {
	return "membership_requests"
}

// MonthsOrDefault returns the requested months, defaulting to one
func (r *MembershipRequest) MonthsOrDefault() int {
	if r.Months == nil || *r.Months < 1 {
		return 1
	}
	return *r.Months
}

// Member is an approved subscriber with billing and renewal metadata
type Member struct {
	ID               string  `gorm:"primarykey;column:id" json:"id"`
	Nickname         string  `gorm:"column:nickname;not null" json:"nickname"`
	Email            string  `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Name             string  `gorm:"column:name" json:"name"`
	LastPaymentDate  *Date   `gorm:"column:last_payment_date" json:"lastPaymentDate"`
	PaymentDate      *Date   `gorm:"column:payment_date" json:"paymentDate"`
	DepositStatus    string  `gorm:"column:deposit_status;not null;default:pending" json:"depositStatus"`
	YoutubeAccountID *string `gorm:"column:youtube_account_id;index" json:"youtubeAccountId,omitempty"`
	BaseModel
}

// TableName sets the table name for GORM
func (Member) TableName() string {
	return "members"
}

// YoutubeAccount is a pooled shared-credential account members are assigned against
type YoutubeAccount struct {
	ID              string `gorm:"primarykey;column:id" json:"id"`
	YoutubeEmail    string `gorm:"column:youtube_email;not null;uniqueIndex" json:"youtubeEmail"`
	Nickname        string `gorm:"column:nickname" json:"nickname"`
	RenewalDate     *Date  `gorm:"column:renewal_date" json:"renewalDate"`
	RemainingCredit int    `gorm:"column:remaining_credit;not null;default:0" json:"remainingCredit"`
	BaseModel
}

// TableName sets the table name for GORM
func (YoutubeAccount) TableName() string {
	return "youtube_accounts"
}

// Vendor is a marketplace actor, looked up by email
type Vendor struct {
	ID                string          `gorm:"primarykey;column:id" json:"id"`
	Email             string          `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Name              string          `gorm:"column:name" json:"name"`
	IsActive          bool            `gorm:"column:is_active;not null" json:"isActive"`
	Rating            float64         `gorm:"column:rating;not null;default:0" json:"rating"`
	CompletedBookings int             `gorm:"column:completed_bookings;not null;default:0" json:"completedBookings"`
	TotalEarnings     decimal.Decimal `gorm:"column:total_earnings;type:decimal(14,2);not null;default:0" json:"totalEarnings"`
	BaseModel
}

// TableName sets the table name for GORM
func (Vendor) TableName() string {
	return "vendors"
}

// RevenueRecord is an append-only ledger entry for a confirmed payment
type RevenueRecord struct {
	ID         string          `gorm:"primarykey;column:id" json:"id"`
	MemberID   string          `gorm:"column:member_id;not null;index" json:"memberId"`
	RequestID  *string         `gorm:"column:request_id;uniqueIndex" json:"requestId,omitempty"`
	Months     int             `gorm:"column:months;not null" json:"months"`
	Amount     decimal.Decimal `gorm:"column:amount;type:decimal(14,2);not null" json:"amount"`
	RecordedAt time.Time       `gorm:"column:recorded_at;not null;index" json:"recordedAt"`
}

// TableName sets the table name for GORM
func (RevenueRecord) TableName() string {
	return "revenue_records"
}
