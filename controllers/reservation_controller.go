package controllers

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"rentflow/builders"
	"rentflow/dto"
	"rentflow/errors"
	"rentflow/middleware"
	"rentflow/models"
	"rentflow/response"
	"rentflow/services"
	"rentflow/services/logger"
	"rentflow/services/refundpolicy"
	"rentflow/validator"

	"github.com/gin-gonic/gin"
)

const maxProofFiles = 10

type ReservationController struct {
	reservations *services.ReservationService
	workflow     *services.CancellationWorkflow
	logger       logger.Logger
}

func NewReservationController(reservations *services.ReservationService, workflow *services.CancellationWorkflow, log logger.Logger) *ReservationController {
	if log == nil {
		log = logger.Nop{}
	}
	return &ReservationController{
		reservations: reservations,
		workflow:     workflow,
		logger:       log,
	}
}

func (ctrl *ReservationController) toResponse(r *models.Reservation) dto.ReservationResponse {
	timers := ctrl.reservations.Timers(r, ctrl.reservations.Now())
	return dto.ReservationResponse{
		ID:               r.ID,
		ListingID:        r.ListingID,
		TenantID:         r.TenantID,
		AdvertiserID:     r.AdvertiserID,
		Status:           string(r.Status),
		EffectiveStatus:  string(timers.EffectiveStatus),
		ScheduledDate:    r.ScheduledDate,
		MovedInAt:        r.MovedInAt,
		Amount:           r.Amount,
		ServiceFee:       r.ServiceFee,
		Currency:         r.Currency,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		PaymentDeadline:  timers.PaymentDeadline,
		RefundDeadline:   timers.RefundDeadline,
		RemainingSeconds: timers.RemainingSeconds,
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "ID không hợp lệ")
		return 0, false
	}
	return uint(id), true
}

func currentActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Unauthorized(c)
		return services.Actor{}, false
	}
	return actor, true
}

// CreateReservation godoc
// @Summary Người thuê gửi yêu cầu đặt chỗ
// @Tags reservations
// @Accept json
// @Produce json
// @Param body body dto.CreateReservationRequest true "Thông tin đặt chỗ"
// @Success 201 {object} response.Response
// @Router /reservations [post]
func (ctrl *ReservationController) CreateReservation(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu không hợp lệ")
		return
	}
	scheduled, err := validator.ValidateCreateReservation(&req)
	if err != nil {
		response.AppError(c, err)
		return
	}

	reservation := builders.NewReservationBuilder().
		WithParties(actor.ID, req.AdvertiserID).
		WithListing(req.ListingID).
		WithScheduledDate(scheduled).
		WithPrice(req.Amount, req.ServiceFee, req.Currency).
		Build()

	created, err := ctrl.reservations.Create(c.Request.Context(), actor, reservation)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Created(c, ctrl.toResponse(created))
}

// ListReservations godoc
// @Summary Danh sách đặt chỗ của người dùng hiện tại
// @Tags reservations
// @Produce json
// @Param status query string false "Lọc trạng thái, phân tách bởi dấu phẩy"
// @Success 200 {object} response.ResponseTotal
// @Router /reservations [get]
func (ctrl *ReservationController) ListReservations(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var statuses []models.ReservationStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, err := models.ParseStatus(strings.TrimSpace(part))
			if err != nil {
				response.BadRequest(c, "Trạng thái không hợp lệ: "+part)
				return
			}
			statuses = append(statuses, status)
		}
	}

	reservations, err := ctrl.reservations.List(c.Request.Context(), actor, statuses)
	if err != nil {
		response.AppError(c, err)
		return
	}
	out := make([]dto.ReservationResponse, 0, len(reservations))
	for i := range reservations {
		out = append(out, ctrl.toResponse(&reservations[i]))
	}
	response.SuccessWithTotal(c, out, len(out))
}

// GetReservation godoc
// @Summary Chi tiết đặt chỗ
// @Tags reservations
// @Produce json
// @Param id path int true "ID đặt chỗ"
// @Success 200 {object} response.Response
// @Router /reservations/{id} [get]
func (ctrl *ReservationController) GetReservation(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	reservation, err := ctrl.reservations.GetForActor(c.Request.Context(), id, actor)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, ctrl.toResponse(reservation))
}

// GetReservationEvents lịch sử chuyển trạng thái
func (ctrl *ReservationController) GetReservationEvents(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	events, err := ctrl.reservations.Events(c.Request.Context(), id, actor)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.SuccessWithTotal(c, events, len(events))
}

// GetRefundQuote godoc
// @Summary Số tiền hoàn dự kiến nếu hủy/yêu cầu hoàn tiền ngay bây giờ
// @Tags reservations
// @Produce json
// @Param id path int true "ID đặt chỗ"
// @Success 200 {object} response.Response
// @Router /reservations/{id}/refund-quote [get]
func (ctrl *ReservationController) GetRefundQuote(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	reservation, err := ctrl.reservations.GetForActor(c.Request.Context(), id, actor)
	if err != nil {
		response.AppError(c, err)
		return
	}
	quote, err := ctrl.workflow.Quote(reservation)
	if err != nil {
		response.AppError(c, err)
		return
	}

	phase, _ := services.PhaseOf(reservation.Status)
	reasons := refundpolicy.Reasons(phase)
	options := make([]dto.ReasonOption, 0, len(reasons))
	for _, reason := range reasons {
		requirement, _ := refundpolicy.RequirementFor(phase, reason)
		options = append(options, dto.ReasonOption{Reason: reason, Requirement: requirement})
	}

	response.Success(c, dto.RefundQuoteResponse{
		ReservationID: reservation.ID,
		Phase:         phase,
		Settlement:    *quote,
		Reasons:       options,
		QuotedAt:      ctrl.reservations.Now(),
	})
}

type transitionFunc func(c *gin.Context, id uint, actor services.Actor, note string) (*models.Reservation, error)

// handleTransition khung chung cho các thao tác chỉ cần id và ghi chú
func (ctrl *ReservationController) handleTransition(fn transitionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}

		var req dto.TransitionNoteRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				response.BadRequest(c, "Dữ liệu không hợp lệ")
				return
			}
			if err := validator.ValidateStruct(&req); err != nil {
				response.AppError(c, err)
				return
			}
		}

		updated, err := fn(c, id, actor, req.Note)
		if err != nil {
			response.AppError(c, err)
			return
		}
		response.Success(c, ctrl.toResponse(updated))
	}
}

// AcceptReservation chủ nhà chấp nhận
func (ctrl *ReservationController) AcceptReservation() gin.HandlerFunc {
	return ctrl.handleTransition(func(c *gin.Context, id uint, actor services.Actor, _ string) (*models.Reservation, error) {
		return ctrl.reservations.Accept(c.Request.Context(), id, actor)
	})
}

// RejectReservation chủ nhà từ chối
func (ctrl *ReservationController) RejectReservation() gin.HandlerFunc {
	return ctrl.handleTransition(func(c *gin.Context, id uint, actor services.Actor, note string) (*models.Reservation, error) {
		return ctrl.reservations.Reject(c.Request.Context(), id, actor, note)
	})
}

// ConfirmPayment người thuê thanh toán
func (ctrl *ReservationController) ConfirmPayment() gin.HandlerFunc {
	return ctrl.handleTransition(func(c *gin.Context, id uint, actor services.Actor, _ string) (*models.Reservation, error) {
		return ctrl.reservations.ConfirmPayment(c.Request.Context(), id, actor)
	})
}

// ConfirmMoveIn người thuê xác nhận dọn vào
func (ctrl *ReservationController) ConfirmMoveIn() gin.HandlerFunc {
	return ctrl.handleTransition(func(c *gin.Context, id uint, actor services.Actor, _ string) (*models.Reservation, error) {
		return ctrl.reservations.ConfirmMoveIn(c.Request.Context(), id, actor)
	})
}

// ExpireReservation quản trị viên ghi nhận quá hạn thanh toán
func (ctrl *ReservationController) ExpireReservation() gin.HandlerFunc {
	return ctrl.handleTransition(func(c *gin.Context, id uint, actor services.Actor, _ string) (*models.Reservation, error) {
		return ctrl.reservations.Expire(c.Request.Context(), id, actor)
	})
}

// ApproveCancellation quản trị viên chấp thuận yêu cầu hủy
func (ctrl *ReservationController) ApproveCancellation() gin.HandlerFunc {
	return ctrl.handleTransition(func(c *gin.Context, id uint, actor services.Actor, note string) (*models.Reservation, error) {
		return ctrl.reservations.ResolveCancellation(c.Request.Context(), id, actor, true, note)
	})
}

// DeclineCancellation quản trị viên từ chối yêu cầu hủy, đặt chỗ trở lại paid
func (ctrl *ReservationController) DeclineCancellation() gin.HandlerFunc {
	return ctrl.handleTransition(func(c *gin.Context, id uint, actor services.Actor, note string) (*models.Reservation, error) {
		return ctrl.reservations.ResolveCancellation(c.Request.Context(), id, actor, false, note)
	})
}

// SettleRefund godoc
// @Summary Quản trị viên ghi nhận kết quả hoàn tiền
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "ID đặt chỗ"
// @Param body body dto.SettleRefundRequest true "Kết quả"
// @Success 200 {object} response.Response
// @Router /admin/reservations/{id}/refund/settle [put]
func (ctrl *ReservationController) SettleRefund(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.SettleRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu không hợp lệ")
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		response.AppError(c, err)
		return
	}

	updated, err := ctrl.reservations.SettleRefund(c.Request.Context(), id, actor, *req.Success, req.Note)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, ctrl.toResponse(updated))
}

// SubmitCancellation godoc
// @Summary Người thuê hủy đặt chỗ trước khi dọn vào
// @Tags reservations
// @Accept json,mpfd
// @Produce json
// @Param id path int true "ID đặt chỗ"
// @Param body body dto.CancellationRequest true "Lý do, mô tả và minh chứng"
// @Success 200 {object} response.Response
// @Router /reservations/{id}/cancellation [post]
func (ctrl *ReservationController) SubmitCancellation(c *gin.Context) {
	ctrl.submit(c, models.StatusPaid)
}

// SubmitRefundRequest godoc
// @Summary Người thuê yêu cầu hoàn tiền trong 24h sau khi dọn vào
// @Tags reservations
// @Accept json,mpfd
// @Produce json
// @Param id path int true "ID đặt chỗ"
// @Param body body dto.CancellationRequest true "Lý do, mô tả và minh chứng"
// @Success 200 {object} response.Response
// @Router /reservations/{id}/refund-request [post]
func (ctrl *ReservationController) SubmitRefundRequest(c *gin.Context) {
	ctrl.submit(c, models.StatusMovedIn)
}

func (ctrl *ReservationController) submit(c *gin.Context, expected models.ReservationStatus) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	req, files, err := bindCancellation(c)
	if err != nil {
		response.AppError(c, err)
		return
	}

	reservation, err := ctrl.reservations.GetForActor(c.Request.Context(), id, actor)
	if err != nil {
		response.AppError(c, err)
		return
	}
	if reservation.Status != expected {
		response.AppError(c, errors.NewAppError(errors.ErrCodeInvalidTransition,
			"thao tác không áp dụng cho trạng thái "+string(reservation.Status), nil))
		return
	}

	summary, err := ctrl.workflow.Submit(c.Request.Context(), reservation, actor, services.CancellationRequest{
		Reason:     refundpolicy.Reason(strings.TrimSpace(req.Reason)),
		Details:    req.Details,
		ProofFiles: files,
	})
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, summary)
}

// bindCancellation đọc yêu cầu dạng JSON hoặc multipart (tệp ở field "proofs")
func bindCancellation(c *gin.Context) (*dto.CancellationRequest, []services.ProofFile, error) {
	var req dto.CancellationRequest
	var files []services.ProofFile

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, nil, errors.NewAppError(errors.ErrCodeValidation, "Không đọc được form", err)
		}
		req.Reason = firstValue(form.Value["reason"])
		req.Details = firstValue(form.Value["details"])
		req.ProofURLs = form.Value["proofUrls"]
		for _, fh := range form.File["proofs"] {
			files = append(files, multipartProof(fh))
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		return nil, nil, errors.NewAppError(errors.ErrCodeValidation, "Dữ liệu không hợp lệ", err)
	}

	if err := validator.ValidateStruct(&req); err != nil {
		return nil, nil, err
	}
	for _, url := range req.ProofURLs {
		files = append(files, services.ProofFile{Filename: url, URL: url})
	}
	if len(files) > maxProofFiles {
		return nil, nil, errors.NewAppError(errors.ErrCodeValidation, "Tối đa 10 tệp minh chứng", nil)
	}
	return &req, files, nil
}

func multipartProof(fh *multipart.FileHeader) services.ProofFile {
	return services.ProofFile{
		Filename: fh.Filename,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
