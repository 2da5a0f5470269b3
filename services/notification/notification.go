package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/olahol/melody"
)

// SessionUserKey key lưu userID trong melody session
const SessionUserKey = "userID"

type Service interface {
	Notify(userIDs []uint, message string) error
}

type MelodyService struct {
	m *melody.Melody
}

func NewMelodyService(m *melody.Melody) *MelodyService {
	return &MelodyService{m: m}
}

// Notify chỉ gửi tới các session thuộc userIDs
func (s *MelodyService) Notify(userIDs []uint, message string) error {
	if s.m == nil {
		return fmt.Errorf("melody instance is nil")
	}
	targets := make(map[uint]bool, len(userIDs))
	for _, id := range userIDs {
		targets[id] = true
	}
	return s.m.BroadcastFilter([]byte(message), func(sess *melody.Session) bool {
		v, ok := sess.Get(SessionUserKey)
		if !ok {
			return false
		}
		id, ok := v.(uint)
		return ok && targets[id]
	})
}

// Message payload đẩy xuống client
type Message struct {
	Type          string     `json:"type"`
	ReservationID uint       `json:"reservationId"`
	Status        string     `json:"status"`
	Text          string     `json:"text"`
	RefundAmount  string     `json:"refundAmount,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	SentAt        time.Time  `json:"sentAt"`
}

type MessageBuilder struct {
	msg Message
}

func NewMessageBuilder(kind string, reservationID uint) *MessageBuilder {
	return &MessageBuilder{msg: Message{Type: kind, ReservationID: reservationID}}
}

func (b *MessageBuilder) WithStatus(status string) *MessageBuilder {
	b.msg.Status = status
	return b
}

func (b *MessageBuilder) WithText(text string) *MessageBuilder {
	b.msg.Text = text
	return b
}

func (b *MessageBuilder) WithRefund(amount string) *MessageBuilder {
	b.msg.RefundAmount = amount
	return b
}

func (b *MessageBuilder) WithDeadline(deadline time.Time) *MessageBuilder {
	b.msg.Deadline = &deadline
	return b
}

func (b *MessageBuilder) At(t time.Time) *MessageBuilder {
	b.msg.SentAt = t
	return b
}

func (b *MessageBuilder) Build() string {
	data, err := json.Marshal(b.msg)
	if err != nil {
		return fmt.Sprintf("🔔 Đặt chỗ %d: %s", b.msg.ReservationID, b.msg.Text)
	}
	return string(data)
}
