package models

import "fmt"

// ReservationStatus trạng thái của đặt chỗ
type ReservationStatus string

const (
	StatusPending                 ReservationStatus = "pending"
	StatusAccepted                ReservationStatus = "accepted"
	StatusRejected                ReservationStatus = "rejected"
	StatusExpired                 ReservationStatus = "expired"
	StatusPaid                    ReservationStatus = "paid"
	StatusMovedIn                 ReservationStatus = "movedIn"
	StatusCancelled               ReservationStatus = "cancelled"
	StatusCancellationUnderReview ReservationStatus = "cancellationUnderReview"
	StatusRefundProcessing        ReservationStatus = "refundProcessing"
	StatusRefundComplete          ReservationStatus = "refundComplete"
	StatusRefundFailed            ReservationStatus = "refundFailed"
)

var allStatuses = []ReservationStatus{
	StatusPending, StatusAccepted, StatusRejected, StatusExpired, StatusPaid, StatusMovedIn,
	StatusCancelled, StatusCancellationUnderReview, StatusRefundProcessing,
	StatusRefundComplete, StatusRefundFailed,
}

// ParseStatus chuyển chuỗi thành ReservationStatus
func ParseStatus(s string) (ReservationStatus, error) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown reservation status %q", s)
}

func (s ReservationStatus) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// IsTerminal không còn sự kiện nào đi ra từ trạng thái này
func (s ReservationStatus) IsTerminal() bool {
	for key := range transitions {
		if key.from == s {
			return false
		}
	}
	return true
}

// Event sự kiện kích hoạt chuyển trạng thái
type Event string

const (
	EventCreated                   Event = "created"
	EventAccept                    Event = "accept"
	EventReject                    Event = "reject"
	EventExpire                    Event = "expire"
	EventConfirmPayment            Event = "confirmPayment"
	EventCancel                    Event = "cancel"
	EventRequestCancellationReview Event = "requestCancellationReview"
	EventApproveCancellation       Event = "approveCancellation"
	EventDeclineCancellation       Event = "declineCancellation"
	EventConfirmMoveIn             Event = "confirmMoveIn"
	EventRequestRefund             Event = "requestRefund"
	EventSettleRefund              Event = "settleRefund"
	EventFailRefund                Event = "failRefund"
)

// Transition một dòng trong bảng chuyển trạng thái
type Transition struct {
	Event Event
	From  ReservationStatus
	To    ReservationStatus
	Roles []ActorRole
}

// Allows kiểm tra vai trò có được kích hoạt transition không
func (t Transition) Allows(role ActorRole) bool {
	for _, r := range t.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type transitionKey struct {
	from  ReservationStatus
	event Event
}

// (from, event) -> transition. Mỗi cặp (from, to) chỉ xuất hiện một lần.
var transitions = map[transitionKey]Transition{
	{StatusPending, EventAccept}: {
		Event: EventAccept, From: StatusPending, To: StatusAccepted,
		Roles: []ActorRole{ActorAdvertiser},
	},
	{StatusPending, EventReject}: {
		Event: EventReject, From: StatusPending, To: StatusRejected,
		Roles: []ActorRole{ActorAdvertiser},
	},
	{StatusAccepted, EventConfirmPayment}: {
		Event: EventConfirmPayment, From: StatusAccepted, To: StatusPaid,
		Roles: []ActorRole{ActorTenant},
	},
	{StatusAccepted, EventExpire}: {
		Event: EventExpire, From: StatusAccepted, To: StatusExpired,
		Roles: []ActorRole{ActorAdmin, ActorSystem},
	},
	{StatusPaid, EventCancel}: {
		Event: EventCancel, From: StatusPaid, To: StatusCancelled,
		Roles: []ActorRole{ActorTenant},
	},
	{StatusPaid, EventRequestCancellationReview}: {
		Event: EventRequestCancellationReview, From: StatusPaid, To: StatusCancellationUnderReview,
		Roles: []ActorRole{ActorTenant},
	},
	{StatusCancellationUnderReview, EventApproveCancellation}: {
		Event: EventApproveCancellation, From: StatusCancellationUnderReview, To: StatusCancelled,
		Roles: []ActorRole{ActorAdmin},
	},
	{StatusCancellationUnderReview, EventDeclineCancellation}: {
		Event: EventDeclineCancellation, From: StatusCancellationUnderReview, To: StatusPaid,
		Roles: []ActorRole{ActorAdmin},
	},
	{StatusPaid, EventConfirmMoveIn}: {
		Event: EventConfirmMoveIn, From: StatusPaid, To: StatusMovedIn,
		Roles: []ActorRole{ActorTenant},
	},
	{StatusMovedIn, EventRequestRefund}: {
		Event: EventRequestRefund, From: StatusMovedIn, To: StatusRefundProcessing,
		Roles: []ActorRole{ActorTenant},
	},
	{StatusRefundProcessing, EventSettleRefund}: {
		Event: EventSettleRefund, From: StatusRefundProcessing, To: StatusRefundComplete,
		Roles: []ActorRole{ActorAdmin, ActorSystem},
	},
	{StatusRefundProcessing, EventFailRefund}: {
		Event: EventFailRefund, From: StatusRefundProcessing, To: StatusRefundFailed,
		Roles: []ActorRole{ActorAdmin, ActorSystem},
	},
}

// Next trả về transition của event từ trạng thái hiện tại
func Next(from ReservationStatus, event Event) (Transition, bool) {
	t, ok := transitions[transitionKey{from: from, event: event}]
	return t, ok
}

// Lookup tìm transition đi từ from tới to
func Lookup(from, to ReservationStatus) (Transition, bool) {
	for key, t := range transitions {
		if key.from == from && t.To == to {
			return t, true
		}
	}
	return Transition{}, false
}

// CanTransition trả về true nếu from -> to nằm trong bảng
func CanTransition(from, to ReservationStatus) bool {
	_, ok := Lookup(from, to)
	return ok
}
