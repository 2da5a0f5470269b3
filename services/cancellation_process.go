package services

import (
	"strings"

	"rentflow/errors"
	"rentflow/models"
	"rentflow/services/refundpolicy"
)

// CancellationProcess định nghĩa interface cho quy trình hủy/hoàn tiền
type CancellationProcess interface {
	Validate() error
	Requirement() refundpolicy.Requirement
	Target() models.ReservationStatus
}

// BaseCancellationProcess định nghĩa cấu trúc cơ bản cho quy trình hủy
type BaseCancellationProcess struct {
	reason      refundpolicy.Reason
	details     string
	proofCount  int
	requirement refundpolicy.Requirement
}

func (b BaseCancellationProcess) Requirement() refundpolicy.Requirement {
	return b.requirement
}

// Validate kiểm tra mô tả rồi tới minh chứng theo yêu cầu của lý do
func (b BaseCancellationProcess) Validate() error {
	if b.requirement.Details && strings.TrimSpace(b.details) == "" {
		return errors.ErrMissingDetails
	}
	if b.requirement.Proof && b.proofCount == 0 {
		return errors.ErrMissingProof
	}
	return nil
}

// StandardCancellation hủy ngay, không cần xét duyệt
type StandardCancellation struct {
	BaseCancellationProcess
}

func (StandardCancellation) Target() models.ReservationStatus {
	return models.StatusCancelled
}

// ReviewedCancellation hủy trước khi dọn vào, chờ quản trị viên xét duyệt
type ReviewedCancellation struct {
	BaseCancellationProcess
}

func (ReviewedCancellation) Target() models.ReservationStatus {
	return models.StatusCancellationUnderReview
}

// PostMoveInRefund yêu cầu hoàn tiền sau khi dọn vào
type PostMoveInRefund struct {
	BaseCancellationProcess
}

func (PostMoveInRefund) Target() models.ReservationStatus {
	return models.StatusRefundProcessing
}

// NewCancellationProcess chọn quy trình theo giai đoạn và lý do
func NewCancellationProcess(phase refundpolicy.Phase, reason refundpolicy.Reason, details string, proofCount int) (CancellationProcess, error) {
	requirement, ok := refundpolicy.RequirementFor(phase, reason)
	if !ok {
		return nil, errors.ErrInvalidReason
	}
	base := BaseCancellationProcess{
		reason:      reason,
		details:     details,
		proofCount:  proofCount,
		requirement: requirement,
	}

	switch {
	case phase == refundpolicy.PhasePostMoveIn:
		return PostMoveInRefund{base}, nil
	case requirement.Review:
		return ReviewedCancellation{base}, nil
	default:
		return StandardCancellation{base}, nil
	}
}
