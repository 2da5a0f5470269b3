package validator

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"rentflow/dto"
	"rentflow/errors"
	"rentflow/services/timegate"

	playground "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = playground.New(playground.WithRequiredStructEnabled())

// ValidateStruct chạy các rule `validate` trên struct và trả về AppError đầu tiên
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.NewAppError(errors.ErrCodeValidation, "Dữ liệu không hợp lệ", err)
	}

	fe := fieldErrs[0]
	if fe.Tag() == "required" {
		return errors.NewAppError(errors.ErrCodeRequiredField, fmt.Sprintf("%s không được để trống", fe.Field()), err)
	}
	return errors.NewAppError(errors.ErrCodeInvalidFormat, fmt.Sprintf("%s không hợp lệ (%s)", fe.Field(), fe.Tag()), err)
}

// ValidateAmount validate số tiền
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errors.NewAppError(errors.ErrCodeInvalidAmount, "Số tiền không được âm", nil)
	}
	return nil
}

// ValidateCreateReservation kiểm tra request tạo đặt chỗ, trả về ngày dọn vào đã parse
func ValidateCreateReservation(req *dto.CreateReservationRequest) (time.Time, error) {
	if err := ValidateStruct(req); err != nil {
		return time.Time{}, err
	}
	if err := ValidateAmount(req.Amount); err != nil {
		return time.Time{}, err
	}
	if err := ValidateAmount(req.ServiceFee); err != nil {
		return time.Time{}, err
	}
	if !req.Amount.IsPositive() {
		return time.Time{}, errors.NewAppError(errors.ErrCodeInvalidAmount, "Tiền thuê phải lớn hơn 0", nil)
	}

	scheduled := timegate.ParseInstant(strings.TrimSpace(req.ScheduledDate))
	if !timegate.Known(scheduled) {
		return time.Time{}, errors.NewAppError(errors.ErrCodeInvalidFormat, "Ngày dọn vào không hợp lệ", nil)
	}
	return scheduled, nil
}
