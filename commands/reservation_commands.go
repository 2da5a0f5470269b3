package commands

import (
	"rentflow/errors"
	"rentflow/models"

	"gorm.io/gorm"
)

// ReservationCommand định nghĩa interface cho các command
type ReservationCommand interface {
	Execute() error
}

// CreateReservationCommand tạo đặt chỗ mới cùng event "created"
type CreateReservationCommand struct {
	reservation *models.Reservation
	event       models.ReservationEvent
	db          *gorm.DB
}

func NewCreateReservationCommand(reservation *models.Reservation, event models.ReservationEvent, db *gorm.DB) *CreateReservationCommand {
	return &CreateReservationCommand{
		reservation: reservation,
		event:       event,
		db:          db,
	}
}

func (c *CreateReservationCommand) Execute() error {
	return c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c.reservation).Error; err != nil {
			return errors.NewAppError(errors.ErrCodeDBError, "không thể tạo đặt chỗ", err)
		}
		event := c.event
		event.ReservationID = c.reservation.ID
		if err := tx.Create(&event).Error; err != nil {
			return errors.NewAppError(errors.ErrCodeDBError, "không thể ghi lịch sử đặt chỗ", err)
		}
		return nil
	})
}

// CommitTransitionCommand cập nhật trạng thái có điều kiện (status hiện tại phải bằng Expected)
// và ghi event trong cùng transaction
type CommitTransitionCommand struct {
	record models.TransitionRecord
	db     *gorm.DB
	result *models.Reservation
}

func NewCommitTransitionCommand(record models.TransitionRecord, db *gorm.DB) *CommitTransitionCommand {
	return &CommitTransitionCommand{
		record: record,
		db:     db,
	}
}

func (c *CommitTransitionCommand) Execute() error {
	return c.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":     string(c.record.Next),
			"updated_at": c.record.At,
		}
		if c.record.MovedInAt != nil {
			updates["moved_in_at"] = *c.record.MovedInAt
		}

		res := tx.Model(&models.Reservation{}).
			Where("id = ? AND status = ?", c.record.ReservationID, string(c.record.Expected)).
			Updates(updates)
		if res.Error != nil {
			return errors.NewAppError(errors.ErrCodeDBError, "không thể cập nhật trạng thái", res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Reservation{}).Where("id = ?", c.record.ReservationID).Count(&count).Error; err != nil {
				return errors.NewAppError(errors.ErrCodeDBError, "không thể kiểm tra đặt chỗ", err)
			}
			if count == 0 {
				return errors.ErrNotFound
			}
			return errors.ErrConflict
		}

		event := c.record.Event
		event.ReservationID = c.record.ReservationID
		if err := tx.Create(&event).Error; err != nil {
			return errors.NewAppError(errors.ErrCodeDBError, "không thể ghi lịch sử đặt chỗ", err)
		}

		var updated models.Reservation
		if err := tx.First(&updated, c.record.ReservationID).Error; err != nil {
			return errors.NewAppError(errors.ErrCodeDBError, "không thể đọc lại đặt chỗ", err)
		}
		c.result = &updated
		return nil
	})
}

// Result đặt chỗ sau khi commit thành công
func (c *CommitTransitionCommand) Result() *models.Reservation {
	return c.result
}
