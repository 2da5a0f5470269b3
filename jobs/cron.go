package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"rentflow/models"
	"rentflow/services"
	"rentflow/services/logger"
	"rentflow/services/notification"

	"github.com/robfig/cron/v3"
)

// WindowReminder nhắc người thuê khi cửa sổ thanh toán/hoàn tiền sắp đóng. Chỉ đọc, không đổi trạng thái.
type WindowReminder struct {
	reservations *services.ReservationService
	notifier     notification.Service
	lead         time.Duration
	logger       logger.Logger

	mu sync.Mutex
	// khóa nhắc nhở -> hạn chót; khóa quá hạn bị xóa ở đầu mỗi lần chạy
	sent map[string]time.Time
}

func NewWindowReminder(reservations *services.ReservationService, notifier notification.Service, lead time.Duration, log logger.Logger) *WindowReminder {
	if log == nil {
		log = logger.Nop{}
	}
	return &WindowReminder{
		reservations: reservations,
		notifier:     notifier,
		lead:         lead,
		logger:       log,
		sent:         make(map[string]time.Time),
	}
}

// Run gửi nhắc nhở cho các đặt chỗ có cửa sổ đóng trong khoảng lead; trả về số nhắc nhở đã gửi
func (r *WindowReminder) Run(ctx context.Context) (int, error) {
	system := services.Actor{Role: models.ActorSystem}
	list, err := r.reservations.List(ctx, system, []models.ReservationStatus{models.StatusAccepted, models.StatusMovedIn})
	if err != nil {
		return 0, err
	}

	now := r.reservations.Now()
	r.pruneSent(now)
	count := 0
	for i := range list {
		reservation := &list[i]
		timers := r.reservations.Timers(reservation, now)
		deadline, text := reminderFor(reservation, timers)
		if deadline == nil || timers.RemainingSeconds <= 0 {
			continue
		}
		if time.Duration(timers.RemainingSeconds)*time.Second > r.lead {
			continue
		}

		key := fmt.Sprintf("%d:%s:%d", reservation.ID, reservation.Status, deadline.Unix())
		if r.alreadySent(key) {
			continue
		}

		message := notification.NewMessageBuilder("reservation.reminder", reservation.ID).
			WithStatus(string(reservation.Status)).
			WithText(text).
			WithDeadline(*deadline).
			At(now).
			Build()
		if err := r.notifier.Notify([]uint{reservation.TenantID}, message); err != nil {
			r.logger.Error("gửi nhắc nhở cho đặt chỗ %d thất bại: %v", reservation.ID, err)
			continue
		}
		r.markSent(key, *deadline)
		count++
	}
	return count, nil
}

func reminderFor(reservation *models.Reservation, timers services.ReservationTimers) (*time.Time, string) {
	switch reservation.Status {
	case models.StatusAccepted:
		return timers.PaymentDeadline, "Sắp hết hạn thanh toán cho đặt chỗ"
	case models.StatusMovedIn:
		return timers.RefundDeadline, "Sắp hết hạn yêu cầu hoàn tiền sau khi dọn vào"
	}
	return nil, ""
}

func (r *WindowReminder) alreadySent(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sent[key]
	return ok
}

func (r *WindowReminder) markSent(key string, deadline time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[key] = deadline
}

// pruneSent bỏ các khóa có hạn chót đã qua, chúng không thể được nhắc lại
func (r *WindowReminder) pruneSent(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, deadline := range r.sent {
		if !deadline.After(now) {
			delete(r.sent, key)
		}
	}
}

// InitCronJobs khởi tạo các cron jobs
func InitCronJobs(c *cron.Cron, spec string, reminder *WindowReminder) error {
	_, err := c.AddFunc(spec, func() {
		now := time.Now()
		log.Printf("Đang chạy nhắc nhở cửa sổ đặt chỗ lúc: %v", now)
		sent, err := reminder.Run(context.Background())
		if err != nil {
			log.Printf("Lỗi khi chạy nhắc nhở: %v", err)
			return
		}
		log.Printf("Đã gửi %d nhắc nhở", sent)
	})
	if err != nil {
		return err
	}

	c.Start()
	log.Println("Cron jobs initialized successfully")
	return nil
}
