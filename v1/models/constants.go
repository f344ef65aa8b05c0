package models

// Status represents the lifecycle state of a membership request
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsTerminal reports whether no further transition is allowed from s
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// StatusFilterAll lists requests regardless of status
const StatusFilterAll = "all"

// Deposit statuses written by the approval workflow. Admins may set other labels through
// the bulk update route.
const (
	DepositStatusPending = "pending"
	DepositStatusPaid    = "paid"
)

// ID prefixes per table
const (
	RequestIDPrefix = "req_"
	MemberIDPrefix  = "mem_"
	AccountIDPrefix = "acc_"
	RevenueIDPrefix = "rev_"
)

// Field length constraints
const (
	MaxEmailLength         = 320 // RFC 3696
	MaxPhoneLength         = 32
	MaxNameLength          = 255
	MaxDepositStatusLength = 32
	MaxMonths              = 36
)

// Pagination defaults for the admin request list
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	// MaxPage keeps (page-1)*limit far from integer overflow
	MaxPage          = 1_000_000
)

// ResourceType represents different resource types for auditing
type ResourceType string

const (
	ResourceTypeRequests        ResourceType = "REQUESTS"
	ResourceTypeMembers         ResourceType = "MEMBERS"
	ResourceTypeYoutubeAccounts ResourceType = "YOUTUBE-ACCOUNTS"
	ResourceTypeAdminSession    ResourceType = "ADMIN-SESSION"
)

// AuditStatus represents the outcome of an audited admin action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)
