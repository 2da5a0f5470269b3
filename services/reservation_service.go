package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rentflow/constants"
	"rentflow/errors"
	"rentflow/models"
	"rentflow/services/logger"
	"rentflow/services/notification"
	"rentflow/services/refundpolicy"
	"rentflow/services/timegate"

	"github.com/shopspring/decimal"
)

// Actor người thực hiện thao tác
type Actor struct {
	ID   uint
	Role models.ActorRole
}

// TransitionRequest dữ liệu đi kèm một lần chuyển trạng thái
type TransitionRequest struct {
	Actor       Actor
	Description string
	Reason      refundpolicy.Reason
	Details     string
	ProofURLs   []string
}

// ReservationTimers các đồng hồ đếm ngược, luôn tính lại từ (mốc, now)
type ReservationTimers struct {
	EffectiveStatus  models.ReservationStatus `json:"effectiveStatus"`
	PaymentDeadline  *time.Time               `json:"paymentDeadline,omitempty"`
	RefundDeadline   *time.Time               `json:"refundDeadline,omitempty"`
	RemainingSeconds int64                    `json:"remainingSeconds"`
}

type ReservationServiceOptions struct {
	Store               ReservationStore
	Clock               timegate.Clock
	Logger              logger.Logger
	Notifier            notification.Service
	Location            *time.Location
	ResponseWindow      time.Duration
	RefundRequestWindow time.Duration
}

// ReservationService nguồn sự thật duy nhất cho vòng đời đặt chỗ
type ReservationService struct {
	store               ReservationStore
	clock               timegate.Clock
	logger              logger.Logger
	notifier            notification.Service
	location            *time.Location
	responseWindow      time.Duration
	refundRequestWindow time.Duration
}

func NewReservationService(opts ReservationServiceOptions) *ReservationService {
	s := &ReservationService{
		store:               opts.Store,
		clock:               opts.Clock,
		logger:              opts.Logger,
		notifier:            opts.Notifier,
		location:            opts.Location,
		responseWindow:      opts.ResponseWindow,
		refundRequestWindow: opts.RefundRequestWindow,
	}
	if s.clock == nil {
		s.clock = timegate.SystemClock{}
	}
	if s.logger == nil {
		s.logger = logger.Nop{}
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.responseWindow <= 0 {
		s.responseWindow = constants.ResponseWindow
	}
	if s.refundRequestWindow <= 0 {
		s.refundRequestWindow = constants.RefundRequestWindow
	}
	return s
}

func (s *ReservationService) Now() time.Time {
	return s.clock.Now()
}

// Create tạo đặt chỗ mới ở trạng thái pending
func (s *ReservationService) Create(ctx context.Context, actor Actor, reservation *models.Reservation) (*models.Reservation, error) {
	if actor.Role != models.ActorTenant {
		return nil, errors.ErrForbiddenActor
	}
	if !timegate.Known(reservation.ScheduledDate) {
		return nil, errors.NewAppError(errors.ErrCodeUnknownTiming, "ngày dọn vào không hợp lệ", nil)
	}
	if reservation.Amount.IsNegative() || reservation.ServiceFee.IsNegative() {
		return nil, errors.NewAppError(errors.ErrCodeInvalidAmount, "số tiền không được âm", nil)
	}

	now := s.clock.Now()
	reservation.TenantID = actor.ID
	reservation.Status = models.StatusPending
	reservation.Currency = strings.ToUpper(reservation.Currency)
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	event := models.ReservationEvent{
		Type:        models.EventCreated,
		ToStatus:    models.StatusPending,
		ActorRole:   actor.Role,
		ActorID:     actor.ID,
		Description: "người thuê gửi yêu cầu đặt chỗ",
		Timestamp:   now,
	}
	if err := s.store.CreateReservation(ctx, reservation, event); err != nil {
		return nil, err
	}
	s.logger.Info("tạo đặt chỗ %d cho người thuê %d", reservation.ID, actor.ID)
	s.notify(reservation, "Có yêu cầu đặt chỗ mới", nil, now)
	return reservation, nil
}

func (s *ReservationService) Get(ctx context.Context, id uint) (*models.Reservation, error) {
	return s.store.GetReservation(ctx, id)
}

// GetForActor chỉ trả về đặt chỗ khi actor là một bên của nó (hoặc admin)
func (s *ReservationService) GetForActor(ctx context.Context, id uint, actor Actor) (*models.Reservation, error) {
	reservation, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isParty(reservation, actor) {
		return nil, errors.ErrForbiddenActor
	}
	return reservation, nil
}

// List danh sách đặt chỗ của actor
func (s *ReservationService) List(ctx context.Context, actor Actor, statuses []models.ReservationStatus) ([]models.Reservation, error) {
	filter := ReservationFilter{Statuses: statuses}
	switch actor.Role {
	case models.ActorTenant:
		filter.TenantID = actor.ID
	case models.ActorAdvertiser:
		filter.AdvertiserID = actor.ID
	case models.ActorAdmin, models.ActorSystem:
	default:
		return nil, errors.ErrForbiddenActor
	}
	return s.store.ListReservations(ctx, filter)
}

func (s *ReservationService) Events(ctx context.Context, id uint, actor Actor) ([]models.ReservationEvent, error) {
	if _, err := s.GetForActor(ctx, id, actor); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, id)
}

// PhaseOf giai đoạn hủy/hoàn tiền tương ứng với trạng thái
func PhaseOf(status models.ReservationStatus) (refundpolicy.Phase, bool) {
	switch status {
	case models.StatusPaid:
		return refundpolicy.PhasePreMoveIn, true
	case models.StatusMovedIn:
		return refundpolicy.PhasePostMoveIn, true
	default:
		return "", false
	}
}

// ComputeRefund tính quyết toán từ snapshot và thời điểm now. Không ghi gì.
func (s *ReservationService) ComputeRefund(reservation *models.Reservation, now time.Time) (*refundpolicy.Computation, error) {
	rates, err := s.ratesFor(reservation, now)
	if err != nil {
		return nil, err
	}
	c := refundpolicy.Compute(reservation.Amount, reservation.ServiceFee, reservation.Currency, rates)
	return &c, nil
}

func (s *ReservationService) ratesFor(reservation *models.Reservation, now time.Time) (refundpolicy.Rates, error) {
	phase, ok := PhaseOf(reservation.Status)
	if !ok {
		return refundpolicy.Rates{}, errors.NewAppError(errors.ErrCodeInvalidTransition,
			fmt.Sprintf("không thể hủy/hoàn tiền ở trạng thái %s", reservation.Status), nil)
	}

	if phase == refundpolicy.PhasePreMoveIn {
		days, ok := timegate.DaysUntil(now, reservation.ScheduledDate)
		if !ok {
			return refundpolicy.Rates{}, errors.ErrUnknownTiming
		}
		return refundpolicy.PreMoveInRates(days), nil
	}

	if err := s.checkWindow(reservation.MovedInAt, now, s.refundRequestWindow); err != nil {
		return refundpolicy.Rates{}, err
	}
	return refundpolicy.PostMoveInRates(), nil
}

func (s *ReservationService) checkWindow(anchor *time.Time, now time.Time, window time.Duration) error {
	if anchor == nil {
		return errors.ErrUnknownTiming
	}
	switch timegate.Classify(*anchor, now, window) {
	case timegate.WindowOpen:
		return nil
	case timegate.WindowClosed:
		return errors.ErrWindowExpired
	default:
		return errors.ErrUnknownTiming
	}
}

// ValidationResult kết quả kiểm tra yêu cầu hủy/hoàn tiền
type ValidationResult struct {
	Phase       refundpolicy.Phase
	Reason      refundpolicy.Reason
	Requirement refundpolicy.Requirement
	Target      models.ReservationStatus
}

// ValidateCancellationRequest kiểm tra lý do, mô tả và minh chứng; không tính tiền, không ghi gì
func (s *ReservationService) ValidateCancellationRequest(reservation *models.Reservation, req CancellationRequest) (*ValidationResult, error) {
	phase, ok := PhaseOf(reservation.Status)
	if !ok {
		return nil, errors.NewAppError(errors.ErrCodeInvalidTransition,
			fmt.Sprintf("không thể hủy/hoàn tiền ở trạng thái %s", reservation.Status), nil)
	}
	process, err := NewCancellationProcess(phase, req.Reason, req.Details, len(req.ProofFiles))
	if err != nil {
		return nil, err
	}
	if err := process.Validate(); err != nil {
		return nil, err
	}
	return &ValidationResult{
		Phase:       phase,
		Reason:      req.Reason,
		Requirement: process.Requirement(),
		Target:      process.Target(),
	}, nil
}

// EffectiveStatus: accepted đã quá 24h được xem là expired dù chưa ghi trạng thái
func (s *ReservationService) EffectiveStatus(reservation *models.Reservation, now time.Time) models.ReservationStatus {
	if reservation.Status == models.StatusAccepted &&
		timegate.Classify(reservation.UpdatedAt, now, s.responseWindow) == timegate.WindowClosed {
		return models.StatusExpired
	}
	return reservation.Status
}

// Timers tính đồng hồ đếm ngược cho giao diện
func (s *ReservationService) Timers(reservation *models.Reservation, now time.Time) ReservationTimers {
	timers := ReservationTimers{EffectiveStatus: s.EffectiveStatus(reservation, now)}
	switch reservation.Status {
	case models.StatusAccepted:
		if deadline, ok := timegate.Deadline(reservation.UpdatedAt, s.responseWindow); ok {
			timers.PaymentDeadline = &deadline
			left, _ := timegate.Remaining(reservation.UpdatedAt, now, s.responseWindow)
			timers.RemainingSeconds = int64(left / time.Second)
		}
	case models.StatusMovedIn:
		if reservation.MovedInAt == nil {
			break
		}
		if deadline, ok := timegate.Deadline(*reservation.MovedInAt, s.refundRequestWindow); ok {
			timers.RefundDeadline = &deadline
			left, _ := timegate.Remaining(*reservation.MovedInAt, now, s.refundRequestWindow)
			timers.RemainingSeconds = int64(left / time.Second)
		}
	}
	return timers
}

// AttemptTransition chuyển snapshot sang target nếu hợp lệ. Mọi kiểm tra chạy trước khi ghi;
// lỗi luôn để nguyên trạng thái đặt chỗ.
func (s *ReservationService) AttemptTransition(ctx context.Context, reservation *models.Reservation, target models.ReservationStatus, req TransitionRequest) (*models.Reservation, error) {
	updated, _, err := s.attempt(ctx, reservation, target, req)
	return updated, err
}

func (s *ReservationService) attempt(ctx context.Context, reservation *models.Reservation, target models.ReservationStatus, req TransitionRequest) (*models.Reservation, *refundpolicy.Computation, error) {
	tr, ok := models.Lookup(reservation.Status, target)
	if !ok {
		return nil, nil, errors.NewAppError(errors.ErrCodeInvalidTransition,
			fmt.Sprintf("không thể chuyển từ %s sang %s", reservation.Status, target), nil)
	}
	if !tr.Allows(req.Actor.Role) || !isParty(reservation, req.Actor) {
		return nil, nil, errors.ErrForbiddenActor
	}

	now := s.clock.Now()
	settlement, err := s.guard(ctx, tr, reservation, req, now)
	if err != nil {
		return nil, nil, err
	}

	record := models.TransitionRecord{
		ReservationID: reservation.ID,
		Expected:      tr.From,
		Next:          tr.To,
		At:            now,
		Event:         s.eventFor(tr, req, settlement, now),
	}
	if tr.Event == models.EventConfirmMoveIn {
		movedIn := now
		record.MovedInAt = &movedIn
	}

	updated, err := s.store.CommitTransition(ctx, record)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrCodeConflict {
			s.logger.Warn("xung đột khi chuyển đặt chỗ %d từ %s sang %s", reservation.ID, tr.From, tr.To)
		}
		return nil, nil, err
	}

	s.logger.Info("đặt chỗ %d: %s -> %s (%s bởi %s %d)", updated.ID, tr.From, tr.To, tr.Event, req.Actor.Role, req.Actor.ID)
	s.notify(updated, record.Event.Description, settlement, now)
	return updated, settlement, nil
}

// guard kiểm tra điều kiện thời gian và dữ liệu của từng event; trả về quyết toán nếu event có tiền
func (s *ReservationService) guard(ctx context.Context, tr models.Transition, reservation *models.Reservation, req TransitionRequest, now time.Time) (*refundpolicy.Computation, error) {
	switch tr.Event {
	case models.EventConfirmPayment:
		return nil, s.checkWindow(&reservation.UpdatedAt, now, s.responseWindow)

	case models.EventExpire:
		switch timegate.Classify(reservation.UpdatedAt, now, s.responseWindow) {
		case timegate.WindowClosed:
			return nil, nil
		case timegate.WindowOpen:
			return nil, errors.NewAppError(errors.ErrCodeInvalidTransition, "cửa sổ thanh toán chưa đóng", nil)
		default:
			return nil, errors.ErrUnknownTiming
		}

	case models.EventConfirmMoveIn:
		reached, ok := timegate.DateReached(reservation.ScheduledDate, now, s.location)
		if !ok {
			return nil, errors.ErrUnknownTiming
		}
		if !reached {
			return nil, errors.NewAppError(errors.ErrCodeInvalidTransition, "chưa tới ngày dọn vào", nil)
		}
		return nil, nil

	case models.EventCancel, models.EventRequestCancellationReview, models.EventRequestRefund:
		phase, _ := PhaseOf(reservation.Status)
		process, err := NewCancellationProcess(phase, req.Reason, req.Details, len(req.ProofURLs))
		if err != nil {
			return nil, err
		}
		if err := process.Validate(); err != nil {
			return nil, err
		}
		if process.Target() != tr.To {
			return nil, errors.NewAppError(errors.ErrCodeInvalidTransition,
				fmt.Sprintf("lý do %s phải chuyển sang %s", req.Reason, process.Target()), nil)
		}
		return s.ComputeRefund(reservation, now)

	case models.EventApproveCancellation:
		return s.submittedSettlement(ctx, reservation.ID, models.EventRequestCancellationReview)

	case models.EventSettleRefund, models.EventFailRefund:
		return s.submittedSettlement(ctx, reservation.ID, models.EventRequestRefund)
	}
	return nil, nil
}

// submittedSettlement lấy quyết toán đã tính lúc người thuê gửi yêu cầu
func (s *ReservationService) submittedSettlement(ctx context.Context, id uint, submitted models.Event) (*refundpolicy.Computation, error) {
	events, err := s.store.ListEvents(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if e.Type != submitted || !e.RefundAmount.Valid {
			continue
		}
		return &refundpolicy.Computation{
			RentRefund:      e.RentRefund.Decimal,
			FeeRefund:       e.FeeRefund.Decimal,
			CancellationFee: e.CancellationFee.Decimal,
			RefundAmount:    e.RefundAmount.Decimal,
		}, nil
	}
	return nil, errors.NewAppError(errors.ErrCodeInvalidTransition, "không tìm thấy yêu cầu đã gửi", nil)
}

func (s *ReservationService) eventFor(tr models.Transition, req TransitionRequest, settlement *refundpolicy.Computation, now time.Time) models.ReservationEvent {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = defaultDescriptions[tr.Event]
	}
	event := models.ReservationEvent{
		Type:        tr.Event,
		FromStatus:  tr.From,
		ToStatus:    tr.To,
		ActorRole:   req.Actor.Role,
		ActorID:     req.Actor.ID,
		Description: description,
		Reason:      string(req.Reason),
		Details:     strings.TrimSpace(req.Details),
		Timestamp:   now,
	}
	if len(req.ProofURLs) > 0 {
		event.ProofURLs = append([]string(nil), req.ProofURLs...)
	}
	if settlement != nil {
		event.RentRefund = decimal.NewNullDecimal(settlement.RentRefund)
		event.FeeRefund = decimal.NewNullDecimal(settlement.FeeRefund)
		event.CancellationFee = decimal.NewNullDecimal(settlement.CancellationFee)
		event.RefundAmount = decimal.NewNullDecimal(settlement.RefundAmount)
	}
	return event
}

var defaultDescriptions = map[models.Event]string{
	models.EventAccept:                    "chủ nhà chấp nhận đặt chỗ",
	models.EventReject:                    "chủ nhà từ chối đặt chỗ",
	models.EventExpire:                    "quá hạn thanh toán sau khi được chấp nhận",
	models.EventConfirmPayment:            "người thuê đã thanh toán",
	models.EventCancel:                    "người thuê hủy đặt chỗ",
	models.EventRequestCancellationReview: "người thuê gửi yêu cầu hủy cần xét duyệt",
	models.EventApproveCancellation:       "quản trị viên chấp thuận yêu cầu hủy",
	models.EventDeclineCancellation:       "quản trị viên từ chối yêu cầu hủy",
	models.EventConfirmMoveIn:             "người thuê xác nhận đã dọn vào",
	models.EventRequestRefund:             "người thuê yêu cầu hoàn tiền sau khi dọn vào",
	models.EventSettleRefund:              "hoàn tiền thành công",
	models.EventFailRefund:                "hoàn tiền thất bại",
}

func isParty(reservation *models.Reservation, actor Actor) bool {
	switch actor.Role {
	case models.ActorTenant:
		return reservation.TenantID == actor.ID
	case models.ActorAdvertiser:
		return reservation.AdvertiserID == actor.ID
	case models.ActorAdmin, models.ActorSystem:
		return true
	}
	return false
}

// notify lỗi gửi thông báo chỉ được log, không làm hỏng thao tác
func (s *ReservationService) notify(reservation *models.Reservation, text string, settlement *refundpolicy.Computation, now time.Time) {
	if s.notifier == nil {
		return
	}
	builder := notification.NewMessageBuilder("reservation.status", reservation.ID).
		WithStatus(string(reservation.Status)).
		WithText(text).
		At(now)
	if settlement != nil {
		builder.WithRefund(settlement.RefundAmount.String())
	}
	if err := s.notifier.Notify([]uint{reservation.TenantID, reservation.AdvertiserID}, builder.Build()); err != nil {
		s.logger.Error("gửi thông báo cho đặt chỗ %d thất bại: %v", reservation.ID, err)
	}
}

func (s *ReservationService) transitionByID(ctx context.Context, id uint, target models.ReservationStatus, req TransitionRequest) (*models.Reservation, error) {
	reservation, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.AttemptTransition(ctx, reservation, target, req)
}

// Accept chủ nhà chấp nhận
func (s *ReservationService) Accept(ctx context.Context, id uint, actor Actor) (*models.Reservation, error) {
	return s.transitionByID(ctx, id, models.StatusAccepted, TransitionRequest{Actor: actor})
}

// Reject chủ nhà từ chối
func (s *ReservationService) Reject(ctx context.Context, id uint, actor Actor, note string) (*models.Reservation, error) {
	return s.transitionByID(ctx, id, models.StatusRejected, TransitionRequest{Actor: actor, Description: note})
}

// ConfirmPayment người thuê thanh toán trong 24h kể từ khi được chấp nhận
func (s *ReservationService) ConfirmPayment(ctx context.Context, id uint, actor Actor) (*models.Reservation, error) {
	return s.transitionByID(ctx, id, models.StatusPaid, TransitionRequest{Actor: actor})
}

// Expire ghi nhận trạng thái expired cho đặt chỗ accepted đã quá hạn
func (s *ReservationService) Expire(ctx context.Context, id uint, actor Actor) (*models.Reservation, error) {
	return s.transitionByID(ctx, id, models.StatusExpired, TransitionRequest{Actor: actor})
}

// ConfirmMoveIn người thuê xác nhận dọn vào
func (s *ReservationService) ConfirmMoveIn(ctx context.Context, id uint, actor Actor) (*models.Reservation, error) {
	return s.transitionByID(ctx, id, models.StatusMovedIn, TransitionRequest{Actor: actor})
}

// ResolveCancellation quản trị viên xử lý yêu cầu hủy đang xét duyệt
func (s *ReservationService) ResolveCancellation(ctx context.Context, id uint, actor Actor, approve bool, note string) (*models.Reservation, error) {
	target := models.StatusPaid
	if approve {
		target = models.StatusCancelled
	}
	return s.transitionByID(ctx, id, target, TransitionRequest{Actor: actor, Description: note})
}

// SettleRefund ghi nhận kết quả hoàn tiền sau khi dọn vào
func (s *ReservationService) SettleRefund(ctx context.Context, id uint, actor Actor, success bool, note string) (*models.Reservation, error) {
	target := models.StatusRefundFailed
	if success {
		target = models.StatusRefundComplete
	}
	return s.transitionByID(ctx, id, target, TransitionRequest{Actor: actor, Description: note})
}
