package dto

import (
	"time"

	"rentflow/services/refundpolicy"

	"github.com/shopspring/decimal"
)

// CreateReservationRequest là DTO cho request tạo đặt chỗ
type CreateReservationRequest struct {
	ListingID     uint            `json:"listingId" validate:"required"`
	AdvertiserID  uint            `json:"advertiserId" validate:"required"`
	ScheduledDate string          `json:"scheduledDate" validate:"required"` // RFC3339, yyyy-mm-dd hoặc dd/mm/yyyy
	Amount        decimal.Decimal `json:"amount"`
	ServiceFee    decimal.Decimal `json:"serviceFee"`
	Currency      string          `json:"currency" validate:"omitempty,len=3,alpha"`
}

// TransitionNoteRequest ghi chú kèm thao tác của chủ nhà/quản trị viên
type TransitionNoteRequest struct {
	Note string `json:"note" validate:"max=500"`
}

// CancellationRequest là DTO cho yêu cầu hủy/hoàn tiền dạng JSON.
// Với multipart, tệp minh chứng gửi qua field "proofs".
type CancellationRequest struct {
	Reason    string   `json:"reason" form:"reason" validate:"required"`
	Details   string   `json:"details" form:"details" validate:"max=2000"`
	ProofURLs []string `json:"proofUrls" form:"proofUrls" validate:"omitempty,max=10,dive,url"`
}

// SettleRefundRequest kết quả hoàn tiền do quản trị viên ghi nhận
type SettleRefundRequest struct {
	Success *bool  `json:"success" validate:"required"`
	Note    string `json:"note" validate:"max=500"`
}

// ReservationResponse là DTO cho response của đặt chỗ, kèm các đồng hồ đếm ngược
type ReservationResponse struct {
	ID               uint            `json:"id"`
	ListingID        uint            `json:"listingId"`
	TenantID         uint            `json:"tenantId"`
	AdvertiserID     uint            `json:"advertiserId"`
	Status           string          `json:"status"`
	EffectiveStatus  string          `json:"effectiveStatus"`
	ScheduledDate    time.Time       `json:"scheduledDate"`
	MovedInAt        *time.Time      `json:"movedInAt,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	ServiceFee       decimal.Decimal `json:"serviceFee"`
	Currency         string          `json:"currency"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	PaymentDeadline  *time.Time      `json:"paymentDeadline,omitempty"`
	RefundDeadline   *time.Time      `json:"refundDeadline,omitempty"`
	RemainingSeconds int64           `json:"remainingSeconds"`
}

// ReasonOption lý do được phép chọn và những gì lý do bắt buộc
type ReasonOption struct {
	Reason      refundpolicy.Reason      `json:"reason"`
	Requirement refundpolicy.Requirement `json:"requirement"`
}

// RefundQuoteResponse số tiền hoàn dự kiến nếu gửi yêu cầu ngay bây giờ
type RefundQuoteResponse struct {
	ReservationID uint                     `json:"reservationId"`
	Phase         refundpolicy.Phase       `json:"phase"`
	Settlement    refundpolicy.Computation `json:"settlement"`
	Reasons       []ReasonOption           `json:"reasons"`
	QuotedAt      time.Time                `json:"quotedAt"`
}
