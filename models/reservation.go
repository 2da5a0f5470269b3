package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ActorRole vai trò thực hiện thao tác trên đặt chỗ
type ActorRole string

const (
	ActorTenant     ActorRole = "tenant"
	ActorAdvertiser ActorRole = "advertiser"
	ActorAdmin      ActorRole = "admin"
	ActorSystem     ActorRole = "system"
)

type Reservation struct {
	ID            uint              `json:"id" gorm:"primaryKey"`
	ListingID     uint              `json:"listingId" gorm:"not null;index"`
	TenantID      uint              `json:"tenantId" gorm:"not null;index"`
	AdvertiserID  uint              `json:"advertiserId" gorm:"not null;index"`
	Status        ReservationStatus `json:"status" gorm:"type:varchar(32);not null;default:pending;index"`
	ScheduledDate time.Time         `json:"scheduledDate" gorm:"not null"` // Ngày dọn vào đã thống nhất
	MovedInAt     *time.Time        `json:"movedInAt,omitempty"`           // Ngày người thuê xác nhận dọn vào
	Amount        decimal.Decimal   `json:"amount" gorm:"type:numeric(14,2);not null"`     // Tiền thuê
	ServiceFee    decimal.Decimal   `json:"serviceFee" gorm:"type:numeric(14,2);not null"` // Phí dịch vụ
	Currency      string            `json:"currency" gorm:"type:varchar(3);not null"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"` // Mốc của cửa sổ 24h khi ở trạng thái accepted
}

// Clone trả về bản sao độc lập của snapshot
func (r *Reservation) Clone() *Reservation {
	if r == nil {
		return nil
	}
	cp := *r
	if r.MovedInAt != nil {
		movedIn := *r.MovedInAt
		cp.MovedInAt = &movedIn
	}
	return &cp
}

// ReservationEvent bản ghi bất biến cho mỗi lần chuyển trạng thái
type ReservationEvent struct {
	ID              uint                `json:"id" gorm:"primaryKey"`
	ReservationID   uint                `json:"reservationId" gorm:"not null;index"`
	Type            Event               `json:"type" gorm:"type:varchar(48);not null"`
	FromStatus      ReservationStatus   `json:"fromStatus" gorm:"type:varchar(32)"`
	ToStatus        ReservationStatus   `json:"toStatus" gorm:"type:varchar(32);not null"`
	ActorRole       ActorRole           `json:"actorRole" gorm:"type:varchar(16);not null"`
	ActorID         uint                `json:"actorId"`
	Description     string              `json:"description" gorm:"type:text"`
	Reason          string              `json:"reason,omitempty" gorm:"type:varchar(32)"`
	Details         string              `json:"details,omitempty" gorm:"type:text"`
	ProofURLs       pq.StringArray      `json:"proofUrls,omitempty" gorm:"type:text[]"`
	RentRefund      decimal.NullDecimal `json:"rentRefund" gorm:"type:numeric(14,2)"`
	FeeRefund       decimal.NullDecimal `json:"feeRefund" gorm:"type:numeric(14,2)"`
	CancellationFee decimal.NullDecimal `json:"cancellationFee" gorm:"type:numeric(14,2)"`
	RefundAmount    decimal.NullDecimal `json:"refundAmount" gorm:"type:numeric(14,2)"`
	Timestamp       time.Time           `json:"timestamp" gorm:"not null;index"`
}

// TransitionRecord là yêu cầu ghi một lần chuyển trạng thái (compare-and-swap theo Expected)
type TransitionRecord struct {
	ReservationID uint
	Expected      ReservationStatus
	Next          ReservationStatus
	At            time.Time
	MovedInAt     *time.Time
	Event         ReservationEvent
}
