package services

import (
	"context"
	"time"

	"rentflow/errors"
	"rentflow/models"
	"rentflow/services/logger"
	"rentflow/services/refundpolicy"
)

// CancellationRequest yêu cầu hủy/hoàn tiền của người thuê
type CancellationRequest struct {
	Reason     refundpolicy.Reason
	Details    string
	ProofFiles []ProofFile
}

// SettlementSummary kết quả trả về cho người thuê sau khi gửi yêu cầu
type SettlementSummary struct {
	ReservationID  uint                     `json:"reservationId"`
	PreviousStatus models.ReservationStatus `json:"previousStatus"`
	Status         models.ReservationStatus `json:"status"`
	Phase          refundpolicy.Phase       `json:"phase"`
	Reason         refundpolicy.Reason      `json:"reason"`
	RequiresReview bool                     `json:"requiresReview"`
	ProofURLs      []string                 `json:"proofUrls,omitempty"`
	Settlement     refundpolicy.Computation `json:"settlement"`
	SubmittedAt    time.Time                `json:"submittedAt"`
}

// CancellationWorkflow gom các bước hủy/hoàn tiền: kiểm tra, tính tiền, lưu minh chứng, chuyển trạng thái
type CancellationWorkflow struct {
	reservations *ReservationService
	uploader     ProofUploader
	logger       logger.Logger
}

func NewCancellationWorkflow(reservations *ReservationService, uploader ProofUploader, log logger.Logger) *CancellationWorkflow {
	if uploader == nil {
		uploader = URLOnlyUploader{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &CancellationWorkflow{
		reservations: reservations,
		uploader:     uploader,
		logger:       log,
	}
}

// Quote tính trước số tiền hoàn nếu người thuê hủy ngay bây giờ
func (w *CancellationWorkflow) Quote(reservation *models.Reservation) (*refundpolicy.Computation, error) {
	return w.reservations.ComputeRefund(reservation, w.reservations.Now())
}

// Submit xử lý yêu cầu trên snapshot vừa đọc từ store.
// Lỗi kiểm tra và thời gian trả về trước khi có bất kỳ thao tác ghi nào;
// chỉ có đúng một lần thử chuyển trạng thái.
func (w *CancellationWorkflow) Submit(ctx context.Context, reservation *models.Reservation, actor Actor, req CancellationRequest) (*SettlementSummary, error) {
	validation, err := w.reservations.ValidateCancellationRequest(reservation, req)
	if err != nil {
		return nil, err
	}

	tr, _ := models.Lookup(reservation.Status, validation.Target)
	if !tr.Allows(actor.Role) || !isParty(reservation, actor) {
		return nil, errors.ErrForbiddenActor
	}

	// Kiểm tra cửa sổ thời gian trước khi tải minh chứng
	if _, err := w.reservations.ComputeRefund(reservation, w.reservations.Now()); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(req.ProofFiles))
	for _, file := range req.ProofFiles {
		url, err := w.uploader.Upload(ctx, reservation.ID, file)
		if err != nil {
			w.logger.Error("lưu minh chứng %q cho đặt chỗ %d thất bại: %v", file.Filename, reservation.ID, err)
			return nil, err
		}
		urls = append(urls, url)
	}

	updated, settlement, err := w.reservations.attempt(ctx, reservation, validation.Target, TransitionRequest{
		Actor:     actor,
		Reason:    req.Reason,
		Details:   req.Details,
		ProofURLs: urls,
	})
	if err != nil {
		if len(urls) > 0 {
			w.logger.Warn("đặt chỗ %d: chuyển trạng thái thất bại, minh chứng đã tải lên không được dùng: %v (%v)", reservation.ID, urls, err)
		}
		return nil, err
	}

	return &SettlementSummary{
		ReservationID:  updated.ID,
		PreviousStatus: reservation.Status,
		Status:         updated.Status,
		Phase:          validation.Phase,
		Reason:         req.Reason,
		RequiresReview: validation.Requirement.Review,
		ProofURLs:      urls,
		Settlement:     *settlement,
		SubmittedAt:    updated.UpdatedAt,
	}, nil
}
