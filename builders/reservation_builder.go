package builders

import (
	"strings"
	"time"

	"rentflow/constants"
	"rentflow/models"

	"github.com/shopspring/decimal"
)

// ReservationBuilder giúp tạo đặt chỗ theo từng bước
type ReservationBuilder struct {
	reservation *models.Reservation
}

// NewReservationBuilder tạo instance mới, trạng thái ban đầu là pending
func NewReservationBuilder() *ReservationBuilder {
	return &ReservationBuilder{
		reservation: &models.Reservation{
			Status:   models.StatusPending,
			Currency: constants.DefaultCurrency,
		},
	}
}

// WithParties thêm người thuê và chủ nhà
func (b *ReservationBuilder) WithParties(tenantID, advertiserID uint) *ReservationBuilder {
	b.reservation.TenantID = tenantID
	b.reservation.AdvertiserID = advertiserID
	return b
}

// WithListing thêm tin đăng
func (b *ReservationBuilder) WithListing(listingID uint) *ReservationBuilder {
	b.reservation.ListingID = listingID
	return b
}

// WithScheduledDate thêm ngày dọn vào
func (b *ReservationBuilder) WithScheduledDate(date time.Time) *ReservationBuilder {
	b.reservation.ScheduledDate = date
	return b
}

// WithPrice thêm tiền thuê, phí dịch vụ và đơn vị tiền
func (b *ReservationBuilder) WithPrice(amount, serviceFee decimal.Decimal, currency string) *ReservationBuilder {
	b.reservation.Amount = amount
	b.reservation.ServiceFee = serviceFee
	if currency != "" {
		b.reservation.Currency = strings.ToUpper(currency)
	}
	return b
}

// WithStatus thêm trạng thái
func (b *ReservationBuilder) WithStatus(status models.ReservationStatus) *ReservationBuilder {
	b.reservation.Status = status
	return b
}

// WithMovedInAt thêm thời điểm dọn vào
func (b *ReservationBuilder) WithMovedInAt(at time.Time) *ReservationBuilder {
	b.reservation.MovedInAt = &at
	return b
}

// WithTimestamps thêm createdAt/updatedAt
func (b *ReservationBuilder) WithTimestamps(createdAt, updatedAt time.Time) *ReservationBuilder {
	b.reservation.CreatedAt = createdAt
	b.reservation.UpdatedAt = updatedAt
	return b
}

// Build tạo đặt chỗ hoàn chỉnh
func (b *ReservationBuilder) Build() *models.Reservation {
	return b.reservation
}
