package errors

import (
	"errors"
	"fmt"
)

// ErrorCode định nghĩa mã lỗi
type ErrorCode string

const (
	// Lifecycle errors
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeWindowExpired     ErrorCode = "WINDOW_EXPIRED"
	ErrCodeMissingProof      ErrorCode = "MISSING_PROOF"
	ErrCodeMissingDetails    ErrorCode = "MISSING_DETAILS"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeUnknownTiming     ErrorCode = "UNKNOWN_TIMING"
	ErrCodeInvalidReason     ErrorCode = "INVALID_REASON"
	ErrCodeForbiddenActor    ErrorCode = "FORBIDDEN_ACTOR"

	// Auth errors
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"

	// Database errors
	ErrCodeDBError    ErrorCode = "DB_ERROR"
	ErrCodeDBNotFound ErrorCode = "DB_NOT_FOUND"

	// Validation errors
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeRequiredField ErrorCode = "REQUIRED_FIELD"
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	ErrCodeInvalidAmount ErrorCode = "INVALID_AMOUNT"

	// Integration errors
	ErrCodeUploadFailed ErrorCode = "UPLOAD_FAILED"
)

// AppError định nghĩa lỗi của ứng dụng
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is so khớp hai AppError theo mã lỗi, để errors.Is(err, ErrConflict) hoạt động
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewAppError tạo một AppError mới
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsAppError kiểm tra xem error có phải là AppError không
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError lấy AppError từ error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// CodeOf trả về mã lỗi, rỗng nếu err không phải AppError
func CodeOf(err error) ErrorCode {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code
	}
	return ""
}

// Sentinel dùng cho errors.Is
var (
	ErrInvalidTransition = &AppError{Code: ErrCodeInvalidTransition, Message: "chuyển trạng thái không hợp lệ"}
	ErrWindowExpired     = &AppError{Code: ErrCodeWindowExpired, Message: "đã hết thời hạn thao tác"}
	ErrMissingProof      = &AppError{Code: ErrCodeMissingProof, Message: "lý do này cần tệp minh chứng"}
	ErrMissingDetails    = &AppError{Code: ErrCodeMissingDetails, Message: "lý do này cần mô tả chi tiết"}
	ErrConflict          = &AppError{Code: ErrCodeConflict, Message: "đặt chỗ đã bị thay đổi bởi thao tác khác"}
	ErrUnknownTiming     = &AppError{Code: ErrCodeUnknownTiming, Message: "không xác định được thời điểm"}
	ErrInvalidReason     = &AppError{Code: ErrCodeInvalidReason, Message: "lý do không hợp lệ"}
	ErrForbiddenActor    = &AppError{Code: ErrCodeForbiddenActor, Message: "vai trò không được phép thực hiện thao tác"}
	ErrNotFound          = &AppError{Code: ErrCodeDBNotFound, Message: "không tìm thấy đặt chỗ"}
)
