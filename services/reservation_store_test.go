package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"rentflow/errors"
	"rentflow/models"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockGormStore(t *testing.T) (*GormReservationStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return NewGormReservationStore(db), mock
}

var (
	updateReservationSQL = regexp.QuoteMeta(`UPDATE "reservations" SET`)
	countReservationSQL  = regexp.QuoteMeta(`SELECT count(*) FROM "reservations" WHERE id = $1`)
	insertEventSQL       = regexp.QuoteMeta(`INSERT INTO "reservation_events"`)
	selectReservationSQL = regexp.QuoteMeta(`SELECT * FROM "reservations" WHERE "reservations"."id" = $1`)
)

func reservationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "listing_id", "tenant_id", "advertiser_id", "status", "scheduled_date",
		"moved_in_at", "amount", "service_fee", "currency", "created_at", "updated_at",
	})
}

func TestGormCommitTransitionPersistsMoveInAndEvent(t *testing.T) {
	store, mock := newMockGormStore(t)
	at := baseTime.Add(2 * time.Hour)
	movedIn := baseTime.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(updateReservationSQL+regexp.QuoteMeta(`"moved_in_at"=$1,"status"=$2,"updated_at"=$3 WHERE id = $4 AND status = $5`)).
		WithArgs(movedIn, "movedIn", at, 12, "paid").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(insertEventSQL).
		WithArgs(12, "confirmMoveIn", "paid", "movedIn", "tenant", tenantID,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(31))
	mock.ExpectQuery(selectReservationSQL).
		WillReturnRows(reservationRows().AddRow(
			12, 3, tenantID, advertiserID, "movedIn", baseTime.Add(72*time.Hour),
			movedIn, "1000.00", "100.00", "USD", baseTime, at,
		))
	mock.ExpectCommit()

	updated, err := store.CommitTransition(context.Background(), models.TransitionRecord{
		ReservationID: 12,
		Expected:      models.StatusPaid,
		Next:          models.StatusMovedIn,
		At:            at,
		MovedInAt:     &movedIn,
		Event: models.ReservationEvent{
			Type:       models.EventConfirmMoveIn,
			FromStatus: models.StatusPaid,
			ToStatus:   models.StatusMovedIn,
			ActorRole:  models.ActorTenant,
			ActorID:    tenantID,
			Timestamp:  at,
		},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if updated.Status != models.StatusMovedIn || updated.MovedInAt == nil || !updated.MovedInAt.Equal(movedIn) {
		t.Fatalf("unexpected reservation: %+v", updated)
	}
	if !updated.Amount.Equal(money("1000")) || !updated.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected reservation: %+v", updated)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGormCommitTransitionStaleStatus(t *testing.T) {
	tests := []struct {
		name  string
		count int
		code  errors.ErrorCode
	}{
		{"stale expected status", 1, errors.ErrCodeConflict},
		{"missing reservation", 0, errors.ErrCodeDBNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockGormStore(t)
			at := baseTime.Add(time.Hour)

			mock.ExpectBegin()
			mock.ExpectExec(updateReservationSQL+regexp.QuoteMeta(`"status"=$1,"updated_at"=$2 WHERE id = $3 AND status = $4`)).
				WithArgs("refundProcessing", at, 12, "movedIn").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(countReservationSQL).
				WithArgs(12).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.count))
			mock.ExpectRollback()

			_, err := store.CommitTransition(context.Background(), models.TransitionRecord{
				ReservationID: 12,
				Expected:      models.StatusMovedIn,
				Next:          models.StatusRefundProcessing,
				At:            at,
				Event:         models.ReservationEvent{Type: models.EventRequestRefund, ToStatus: models.StatusRefundProcessing},
			})
			assertCode(t, err, tt.code)
			// Không có INSERT event nào được mong đợi
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("expectations: %v", err)
			}
		})
	}
}

func TestGormGetReservationNotFound(t *testing.T) {
	store, mock := newMockGormStore(t)
	mock.ExpectQuery(selectReservationSQL).
		WillReturnRows(reservationRows())

	_, err := store.GetReservation(context.Background(), 404)
	assertCode(t, err, "DB_NOT_FOUND")
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
