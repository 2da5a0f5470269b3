package constants

import "time"

// User role (giá trị role trong JWT)
const (
	RoleTenant     = 0
	RoleAdvertiser = 1
	RoleAdmin      = 2
)

// Cửa sổ thời gian mặc định
const (
	// Chủ nhà chấp nhận xong, người thuê có 24h để thanh toán
	ResponseWindow = 24 * time.Hour
	// Sau khi dọn vào, người thuê có 24h để yêu cầu hoàn tiền
	RefundRequestWindow = 24 * time.Hour
	// Nhắc trước khi cửa sổ đóng
	ReminderLead = 6 * time.Hour
)

const (
	DefaultTimezone = "Asia/Ho_Chi_Minh"
	DefaultCurrency = "VND"
	DefaultPort     = "8083"
)

// Redis key prefix
const (
	ReservationCachePrefix = "reservations:snapshot:"
)
