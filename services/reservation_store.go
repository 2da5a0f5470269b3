package services

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"

	"rentflow/commands"
	"rentflow/errors"
	"rentflow/models"

	"gorm.io/gorm"
)

// ReservationStore lớp lưu trữ đặt chỗ. CommitTransition phải là compare-and-swap theo
// record.Expected: nếu trạng thái hiện tại khác thì trả về errors.ErrConflict.
type ReservationStore interface {
	GetReservation(ctx context.Context, id uint) (*models.Reservation, error)
	CommitTransition(ctx context.Context, record models.TransitionRecord) (*models.Reservation, error)
	CreateReservation(ctx context.Context, reservation *models.Reservation, event models.ReservationEvent) error
	ListReservations(ctx context.Context, filter ReservationFilter) ([]models.Reservation, error)
	ListEvents(ctx context.Context, reservationID uint) ([]models.ReservationEvent, error)
}

// ReservationFilter điều kiện lọc danh sách; giá trị 0/rỗng là không lọc
type ReservationFilter struct {
	TenantID     uint
	AdvertiserID uint
	Statuses     []models.ReservationStatus
}

func (f ReservationFilter) match(r *models.Reservation) bool {
	if f.TenantID != 0 && r.TenantID != f.TenantID {
		return false
	}
	if f.AdvertiserID != 0 && r.AdvertiserID != f.AdvertiserID {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if r.Status == s {
			return true
		}
	}
	return false
}

// GormReservationStore lưu trữ trên Postgres qua gorm
type GormReservationStore struct {
	db *gorm.DB
}

func NewGormReservationStore(db *gorm.DB) *GormReservationStore {
	return &GormReservationStore{db: db}
}

// AutoMigrate tạo bảng reservations và reservation_events
func (s *GormReservationStore) AutoMigrate() error {
	return s.db.AutoMigrate(&models.Reservation{}, &models.ReservationEvent{})
}

func (s *GormReservationStore) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := s.db.WithContext(ctx).First(&reservation, id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.NewAppError(errors.ErrCodeDBError, "không thể đọc đặt chỗ", err)
	}
	return &reservation, nil
}

func (s *GormReservationStore) CommitTransition(ctx context.Context, record models.TransitionRecord) (*models.Reservation, error) {
	cmd := commands.NewCommitTransitionCommand(record, s.db.WithContext(ctx))
	if err := cmd.Execute(); err != nil {
		return nil, err
	}
	return cmd.Result(), nil
}

func (s *GormReservationStore) CreateReservation(ctx context.Context, reservation *models.Reservation, event models.ReservationEvent) error {
	return commands.NewCreateReservationCommand(reservation, event, s.db.WithContext(ctx)).Execute()
}

func (s *GormReservationStore) ListReservations(ctx context.Context, filter ReservationFilter) ([]models.Reservation, error) {
	tx := s.db.WithContext(ctx).Model(&models.Reservation{})
	if filter.TenantID != 0 {
		tx = tx.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.AdvertiserID != 0 {
		tx = tx.Where("advertiser_id = ?", filter.AdvertiserID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		tx = tx.Where("status IN ?", statuses)
	}

	var reservations []models.Reservation
	if err := tx.Order("updated_at DESC").Find(&reservations).Error; err != nil {
		return nil, errors.NewAppError(errors.ErrCodeDBError, "không thể lấy danh sách đặt chỗ", err)
	}
	return reservations, nil
}

func (s *GormReservationStore) ListEvents(ctx context.Context, reservationID uint) ([]models.ReservationEvent, error) {
	var events []models.ReservationEvent
	if err := s.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("timestamp ASC, id ASC").
		Find(&events).Error; err != nil {
		return nil, errors.NewAppError(errors.ErrCodeDBError, "không thể lấy lịch sử đặt chỗ", err)
	}
	return events, nil
}

// MemoryReservationStore lưu trữ trong bộ nhớ, dùng cho môi trường local và test
type MemoryReservationStore struct {
	mu           sync.Mutex
	nextID       uint
	nextEventID  uint
	reservations map[uint]*models.Reservation
	events       map[uint][]models.ReservationEvent
}

func NewMemoryReservationStore() *MemoryReservationStore {
	return &MemoryReservationStore{
		reservations: make(map[uint]*models.Reservation),
		events:       make(map[uint][]models.ReservationEvent),
	}
}

func (s *MemoryReservationStore) GetReservation(_ context.Context, id uint) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryReservationStore) CommitTransition(_ context.Context, record models.TransitionRecord) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[record.ReservationID]
	if !ok {
		return nil, errors.ErrNotFound
	}
	if r.Status != record.Expected {
		return nil, errors.ErrConflict
	}

	r.Status = record.Next
	r.UpdatedAt = record.At
	if record.MovedInAt != nil {
		movedIn := *record.MovedInAt
		r.MovedInAt = &movedIn
	}
	s.appendEventLocked(record.ReservationID, record.Event)
	return r.Clone(), nil
}

func (s *MemoryReservationStore) CreateReservation(_ context.Context, reservation *models.Reservation, event models.ReservationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	reservation.ID = s.nextID
	s.reservations[reservation.ID] = reservation.Clone()
	s.appendEventLocked(reservation.ID, event)
	return nil
}

// Seed ghi thẳng một snapshot, bỏ qua event
func (s *MemoryReservationStore) Seed(reservation *models.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reservation.ID == 0 {
		s.nextID++
		reservation.ID = s.nextID
	} else if reservation.ID > s.nextID {
		s.nextID = reservation.ID
	}
	s.reservations[reservation.ID] = reservation.Clone()
}

func (s *MemoryReservationStore) appendEventLocked(reservationID uint, event models.ReservationEvent) {
	s.nextEventID++
	event.ID = s.nextEventID
	event.ReservationID = reservationID
	if event.ProofURLs != nil {
		event.ProofURLs = append([]string(nil), event.ProofURLs...)
	}
	s.events[reservationID] = append(s.events[reservationID], event)
}

func (s *MemoryReservationStore) ListReservations(_ context.Context, filter ReservationFilter) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		if filter.match(r) {
			out = append(out, *r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryReservationStore) ListEvents(_ context.Context, reservationID uint) ([]models.ReservationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.events[reservationID]
	out := make([]models.ReservationEvent, len(events))
	copy(out, events)
	return out, nil
}
