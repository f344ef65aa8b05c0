package models

import "github.com/shopspring/decimal"

// CreateMembershipRequest is the public intake body for POST /requests
type CreateMembershipRequest struct {
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	KakaoID       *string `json:"kakaoId,omitempty"`
	DepositorName *string `json:"depositorName,omitempty"`
	Months        *int    `json:"months,omitempty"`
	ReferralEmail *string `json:"referralEmail,omitempty"`
	PlanType      *string `json:"planType,omitempty"`
}

// UpdateRequestStatusRequest carries the admin's approval decision
type UpdateRequestStatusRequest struct {
	Status string `json:"status"`
}

// UpdateRequestMetadataRequest is a partial update of a request's payment metadata
type UpdateRequestMetadataRequest struct {
	Months        *int    `json:"months,omitempty"`
	DepositorName *string `json:"depositorName,omitempty"`
}

// RequestFilter selects a page of membership requests
type RequestFilter struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// RequestListResult is a page of requests together with the filtered total
type RequestListResult struct {
	Requests []MembershipRequest `json:"requests"`
	Total    int64               `json:"total"`
}

// RequestListResponse is the admin list body including pagination metadata
type RequestListResponse struct {
	Requests   []MembershipRequest `json:"requests"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	TotalPages int                 `json:"totalPages"`
}

// RequestStats counts requests per status
type RequestStats struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}

// CreateMemberRequest creates a member directly from the admin dashboard
type CreateMemberRequest struct {
	Nickname         string  `json:"nickname"`
	Email            string  `json:"email"`
	Name             string  `json:"name"`
	LastPaymentDate  *Date   `json:"lastPaymentDate"`
	PaymentDate      *Date   `json:"paymentDate"`
	DepositStatus    string  `json:"depositStatus"`
	YoutubeAccountID *string `json:"youtubeAccountId,omitempty"`
}

// UpdateMemberRequest overwrites every editable member field
type UpdateMemberRequest struct {
	Nickname         string  `json:"nickname"`
	Email            string  `json:"email"`
	Name             string  `json:"name"`
	LastPaymentDate  *Date   `json:"lastPaymentDate"`
	PaymentDate      *Date   `json:"paymentDate"`
	DepositStatus    string  `json:"depositStatus"`
	YoutubeAccountID *string `json:"youtubeAccountId,omitempty"`
}

// BulkUpdateDepositStatusRequest sets one deposit status on many members
type BulkUpdateDepositStatusRequest struct {
	MemberIDs     []string `json:"memberIds"`
	DepositStatus string   `json:"depositStatus"`
}

// BulkUpdateDepositStatusResult reports the rows that actually matched
type BulkUpdateDepositStatusResult struct {
	UpdatedCount   int64    `json:"updatedCount"`
	UpdatedMembers []Member `json:"updatedMembers"`
}

// MemberDetail is a member joined with its account and latest request for the dashboard
type MemberDetail struct {
	Member
	YoutubeEmail    *string `gorm:"column:youtube_email" json:"youtubeEmail,omitempty"`
	YoutubeNickname *string `gorm:"column:youtube_nickname" json:"youtubeNickname,omitempty"`
	PlanType        *string `gorm:"column:plan_type" json:"planType,omitempty"`
	RequestedMonths *int    `gorm:"column:requested_months" json:"requestedMonths,omitempty"`
}

// ExpiryResponse is the public expiry lookup body
type ExpiryResponse struct {
	Email      string `json:"email"`
	ExpiryDate Date   `json:"expiryDate"`
}

// EmailRequest is a body carrying only an email address
type EmailRequest struct {
	Email string `json:"email"`
}

// VerifyMemberResponse reports whether an email belongs to a member
type VerifyMemberResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// AdminAuthRequest carries the shared admin secret
type AdminAuthRequest struct {
	Password string `json:"password"`
}

// AdminAuthResponse is returned on a successful admin login
type AdminAuthResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

// AdminStats summarizes membership revenue for the dashboard
type AdminStats struct {
	TotalMembers      int64           `json:"totalMembers"`
	MonthlyRevenue    decimal.Decimal `json:"monthlyRevenue"`
	CumulativeRevenue decimal.Decimal `json:"cumulativeRevenue"`
	PricePerMember    decimal.Decimal `json:"pricePerMember"`
}

// YoutubeAccountRequest creates or overwrites a pooled account
type YoutubeAccountRequest struct {
	YoutubeEmail    string `json:"youtubeEmail"`
	Nickname        string `json:"nickname"`
	RenewalDate     *Date  `json:"renewalDate"`
	RemainingCredit int    `json:"remainingCredit"`
}
