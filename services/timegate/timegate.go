// Package timegate tính khoảng thời gian giữa hai mốc và phân loại theo cửa sổ.
// Mốc thời gian zero được coi là "không xác định"; mọi hàm trả về ok=false
// hoặc WindowUnknown thay vì panic, và bên gọi phải từ chối thao tác (fail closed).
package timegate

import (
	"strings"
	"time"
)

const Day = 24 * time.Hour

// Clock nguồn thời gian hiện tại
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock luôn trả về cùng một thời điểm
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// WindowState kết quả so sánh một thời điểm với cửa sổ
type WindowState int

const (
	WindowUnknown WindowState = iota
	WindowOpen
	WindowClosed
)

func (w WindowState) String() string {
	switch w {
	case WindowOpen:
		return "open"
	case WindowClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// ParseInstant đọc chuỗi thời gian; trả về zero time nếu không parse được
func ParseInstant(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Known kiểm tra mốc thời gian hợp lệ
func Known(t time.Time) bool {
	return !t.IsZero()
}

// DaysUntil = ceil((target - reference) / 1 ngày). Giá trị <= 0 nghĩa là đã qua mốc.
func DaysUntil(reference, target time.Time) (int, bool) {
	if !Known(reference) || !Known(target) {
		return 0, false
	}
	d := target.Sub(reference)
	days := d / Day
	if d%Day > 0 {
		days++
	}
	return int(days), true
}

// HoursSince số giờ đã trôi qua kể từ reference, không âm
func HoursSince(reference, now time.Time) (float64, bool) {
	if !Known(reference) || !Known(now) {
		return 0, false
	}
	h := now.Sub(reference).Hours()
	if h < 0 {
		h = 0
	}
	return h, true
}

// Classify: now <= anchor + window là còn trong cửa sổ
func Classify(anchor, now time.Time, window time.Duration) WindowState {
	if !Known(anchor) || !Known(now) {
		return WindowUnknown
	}
	if now.After(anchor.Add(window)) {
		return WindowClosed
	}
	return WindowOpen
}

// IsWithinWindow trả về false cả khi mốc không xác định
func IsWithinWindow(anchor, now time.Time, window time.Duration) bool {
	return Classify(anchor, now, window) == WindowOpen
}

// Deadline thời điểm cửa sổ đóng
func Deadline(anchor time.Time, window time.Duration) (time.Time, bool) {
	if !Known(anchor) {
		return time.Time{}, false
	}
	return anchor.Add(window), true
}

// Remaining thời gian còn lại của cửa sổ, không âm
func Remaining(anchor, now time.Time, window time.Duration) (time.Duration, bool) {
	if !Known(anchor) || !Known(now) {
		return 0, false
	}
	left := anchor.Add(window).Sub(now)
	if left < 0 {
		left = 0
	}
	return left, true
}

// DateReached true khi ngày của target (theo loc) bằng hoặc sớm hơn ngày của now
func DateReached(target, now time.Time, loc *time.Location) (bool, bool) {
	if !Known(target) || !Known(now) {
		return false, false
	}
	if loc == nil {
		loc = time.UTC
	}
	ty, tm, td := target.In(loc).Date()
	ny, nm, nd := now.In(loc).Date()
	targetDay := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	nowDay := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return !targetDay.After(nowDay), true
}
