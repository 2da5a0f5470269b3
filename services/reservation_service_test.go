package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"rentflow/builders"
	"rentflow/errors"
	"rentflow/models"
	"rentflow/services/logger"
	"rentflow/services/refundpolicy"

	"github.com/shopspring/decimal"
)

const (
	tenantID     uint = 7
	advertiserID uint = 9
)

var (
	tenant     = Actor{ID: tenantID, Role: models.ActorTenant}
	advertiser = Actor{ID: advertiserID, Role: models.ActorAdvertiser}
	admin      = Actor{ID: 1, Role: models.ActorAdmin}
)

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (n *recordingNotifier) Notify(_ []uint, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

type fixture struct {
	store    *MemoryReservationStore
	clock    *stepClock
	notifier *recordingNotifier
	svc      *ReservationService
	workflow *CancellationWorkflow
}

var baseTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    NewMemoryReservationStore(),
		clock:    &stepClock{t: baseTime},
		notifier: &recordingNotifier{},
	}
	f.svc = NewReservationService(ReservationServiceOptions{
		Store:    f.store,
		Clock:    f.clock,
		Notifier: f.notifier,
		Location: time.UTC,
	})
	f.workflow = NewCancellationWorkflow(f.svc, nil, nil)
	return f
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) seed(status models.ReservationStatus, scheduled time.Time, updatedAt time.Time) *models.Reservation {
	r := builders.NewReservationBuilder().
		WithParties(tenantID, advertiserID).
		WithListing(3).
		WithScheduledDate(scheduled).
		WithPrice(money("1000"), money("100"), "usd").
		WithStatus(status).
		WithTimestamps(updatedAt, updatedAt).
		Build()
	f.store.Seed(r)
	return r
}

func assertCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	if got := errors.CodeOf(err); got != code {
		t.Fatalf("expected %s, got %s (%v)", code, got, err)
	}
}

func (f *fixture) assertStatus(t *testing.T, id uint, want models.ReservationStatus) {
	t.Helper()
	r, err := f.store.GetReservation(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r.Status != want {
		t.Fatalf("status = %s, want %s", r.Status, want)
	}
}

func (f *fixture) eventCount(t *testing.T, id uint) int {
	t.Helper()
	events, err := f.store.ListEvents(context.Background(), id)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	return len(events)
}

func TestCreateAcceptPayMoveIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, tenant, builders.NewReservationBuilder().
		WithParties(0, advertiserID).
		WithScheduledDate(baseTime.Add(48*time.Hour)).
		WithPrice(money("1000"), money("100"), "vnd").
		Build())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != models.StatusPending || created.TenantID != tenantID || created.Currency != "VND" {
		t.Fatalf("unexpected created reservation: %+v", created)
	}

	if _, err := f.svc.Accept(ctx, created.ID, advertiser); err != nil {
		t.Fatalf("accept: %v", err)
	}
	f.clock.Advance(23 * time.Hour)
	if _, err := f.svc.ConfirmPayment(ctx, created.ID, tenant); err != nil {
		t.Fatalf("pay: %v", err)
	}

	// Trước ngày dọn vào
	_, err = f.svc.ConfirmMoveIn(ctx, created.ID, tenant)
	assertCode(t, err, errors.ErrCodeInvalidTransition)

	f.clock.Advance(25 * time.Hour)
	moved, err := f.svc.ConfirmMoveIn(ctx, created.ID, tenant)
	if err != nil {
		t.Fatalf("move in: %v", err)
	}
	if moved.MovedInAt == nil || !moved.MovedInAt.Equal(f.clock.Now()) {
		t.Fatalf("movedInAt = %v, want %v", moved.MovedInAt, f.clock.Now())
	}

	events, _ := f.store.ListEvents(ctx, created.ID)
	wantTypes := []models.Event{models.EventCreated, models.EventAccept, models.EventConfirmPayment, models.EventConfirmMoveIn}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d", len(events), len(wantTypes))
	}
	for i, e := range events {
		if e.Type != wantTypes[i] {
			t.Fatalf("event %d = %s, want %s", i, e.Type, wantTypes[i])
		}
	}
	if f.notifier.count() != 4 {
		t.Fatalf("notifications = %d, want 4", f.notifier.count())
	}
}

func TestPaymentAfterWindowIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.seed(models.StatusAccepted, baseTime.Add(30*24*time.Hour), baseTime)

	f.clock.Advance(25 * time.Hour)
	_, err := f.svc.ConfirmPayment(ctx, r.ID, tenant)
	assertCode(t, err, errors.ErrCodeWindowExpired)
	f.assertStatus(t, r.ID, models.StatusAccepted)
	if n := f.eventCount(t, r.ID); n != 0 {
		t.Fatalf("failed transition wrote %d events", n)
	}

	snapshot, _ := f.store.GetReservation(ctx, r.ID)
	if got := f.svc.EffectiveStatus(snapshot, f.clock.Now()); got != models.StatusExpired {
		t.Fatalf("effective status = %s, want expired", got)
	}
}

func TestPaymentAtWindowBoundary(t *testing.T) {
	f := newFixture(t)
	r := f.seed(models.StatusAccepted, baseTime.Add(30*24*time.Hour), baseTime)

	f.clock.Advance(24 * time.Hour)
	if _, err := f.svc.ConfirmPayment(context.Background(), r.ID, tenant); err != nil {
		t.Fatalf("payment at exactly 24h should be allowed: %v", err)
	}
}

func TestExpire(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.seed(models.StatusAccepted, baseTime.Add(30*24*time.Hour), baseTime)

	f.clock.Advance(2 * time.Hour)
	_, err := f.svc.Expire(ctx, r.ID, admin)
	assertCode(t, err, errors.ErrCodeInvalidTransition)

	_, err = f.svc.Expire(ctx, r.ID, tenant)
	assertCode(t, err, errors.ErrCodeForbiddenActor)

	f.clock.Advance(23 * time.Hour)
	expired, err := f.svc.Expire(ctx, r.ID, admin)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if expired.Status != models.StatusExpired || !expired.Status.IsTerminal() {
		t.Fatalf("status = %s, want terminal expired", expired.Status)
	}
}

func TestForbiddenActors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending := f.seed(models.StatusPending, baseTime.Add(30*24*time.Hour), baseTime)

	tests := []struct {
		name  string
		actor Actor
	}{
		{"tenant cannot accept", tenant},
		{"other advertiser cannot accept", Actor{ID: 99, Role: models.ActorAdvertiser}},
		{"admin cannot accept", admin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Accept(ctx, pending.ID, tt.actor)
			assertCode(t, err, errors.ErrCodeForbiddenActor)
		})
	}
	f.assertStatus(t, pending.ID, models.StatusPending)
}

func TestInvalidTransition(t *testing.T) {
	f := newFixture(t)
	r := f.seed(models.StatusRejected, baseTime.Add(30*24*time.Hour), baseTime)

	_, err := f.svc.Accept(context.Background(), r.ID, advertiser)
	assertCode(t, err, errors.ErrCodeInvalidTransition)

	_, err = f.svc.Accept(context.Background(), 404, advertiser)
	if !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPreMoveInCancellationWithoutReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.seed(models.StatusPaid, baseTime.Add(20*24*time.Hour), baseTime)

	summary, err := f.workflow.Submit(ctx, r, tenant, CancellationRequest{Reason: refundpolicy.ReasonPlans})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if summary.Status != models.StatusCancelled || summary.RequiresReview {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	s := summary.Settlement
	if !s.RentRefund.Equal(money("1000")) || !s.FeeRefund.Equal(money("50")) ||
		!s.CancellationFee.Equal(money("50")) || !s.RefundAmount.Equal(money("1050")) {
		t.Fatalf("unexpected settlement: %+v", s)
	}

	events, _ := f.store.ListEvents(ctx, r.ID)
	last := events[len(events)-1]
	if last.Type != models.EventCancel || !last.RefundAmount.Valid || !last.RefundAmount.Decimal.Equal(money("1050")) {
		t.Fatalf("unexpected event: %+v", last)
	}
}

func TestPreMoveInWithinSevenDays(t *testing.T) {
	f := newFixture(t)
	r := f.seed(models.StatusPaid, baseTime.Add(3*24*time.Hour), baseTime)

	summary, err := f.workflow.Submit(context.Background(), r, tenant, CancellationRequest{Reason: refundpolicy.ReasonPayment})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !summary.Settlement.RefundAmount.Equal(money("50")) || summary.Settlement.Tier != refundpolicy.TierWithin7Days {
		t.Fatalf("unexpected settlement: %+v", summary.Settlement)
	}
}

func TestCancellationValidationRunsBeforeMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.seed(models.StatusPaid, baseTime.Add(20*24*time.Hour), baseTime)

	tests := []struct {
		name string
		req  CancellationRequest
		code errors.ErrorCode
	}{
		{"extenuating without proof", CancellationRequest{Reason: refundpolicy.ReasonExtenuating, Details: "ốm"}, errors.ErrCodeMissingProof},
		{"extenuating without details", CancellationRequest{Reason: refundpolicy.ReasonExtenuating, ProofFiles: []ProofFile{{URL: "https://x/p.png"}}}, errors.ErrCodeMissingDetails},
		{"other without details", CancellationRequest{Reason: refundpolicy.ReasonOther, Details: "   "}, errors.ErrCodeMissingDetails},
		{"post move-in reason before move-in", CancellationRequest{Reason: refundpolicy.ReasonUnclean}, errors.ErrCodeInvalidReason},
		{"unknown reason", CancellationRequest{Reason: "bored"}, errors.ErrCodeInvalidReason},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.workflow.Submit(ctx, r, tenant, tt.req)
			assertCode(t, err, tt.code)
		})
	}
	f.assertStatus(t, r.ID, models.StatusPaid)
	if n := f.eventCount(t, r.ID); n != 0 {
		t.Fatalf("validation failures wrote %d events", n)
	}
	if f.notifier.count() != 0 {
		t.Fatalf("validation failures sent %d notifications", f.notifier.count())
	}
}

func TestReviewedCancellationApproveAndDecline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.seed(models.StatusPaid, baseTime.Add(20*24*time.Hour), baseTime)

	req := CancellationRequest{
		Reason:     refundpolicy.ReasonExtenuating,
		Details:    "nhập viện",
		ProofFiles: []ProofFile{{Filename: "giay-vien.pdf", URL: "https://cdn/giay-vien.pdf"}},
	}
	summary, err := f.workflow.Submit(ctx, r, tenant, req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if summary.Status != models.StatusCancellationUnderReview || !summary.RequiresReview {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(summary.ProofURLs) != 1 || summary.ProofURLs[0] != "https://cdn/giay-vien.pdf" {
		t.Fatalf("proof urls = %v", summary.ProofURLs)
	}

	// Tới gần ngày dọn vào, quyết toán vẫn theo lúc gửi yêu cầu
	f.clock.Advance(18 * 24 * time.Hour)
	_, err = f.svc.ResolveCancellation(ctx, r.ID, tenant, true, "")
	assertCode(t, err, errors.ErrCodeForbiddenActor)

	approved, err := f.svc.ResolveCancellation(ctx, r.ID, admin, true, "đã xác minh")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != models.StatusCancelled {
		t.Fatalf("status = %s", approved.Status)
	}
	events, _ := f.store.ListEvents(ctx, r.ID)
	last := events[len(events)-1]
	if last.Type != models.EventApproveCancellation || !last.RefundAmount.Decimal.Equal(money("1050")) {
		t.Fatalf("approval event = %+v", last)
	}

	g := newFixture(t)
	r2 := g.seed(models.StatusPaid, baseTime.Add(20*24*time.Hour), baseTime)
	if _, err := g.workflow.Submit(ctx, r2, tenant, req); err != nil {
		t.Fatalf("submit: %v", err)
	}
	declined, err := g.svc.ResolveCancellation(ctx, r2.ID, admin, false, "không đủ căn cứ")
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if declined.Status != models.StatusPaid {
		t.Fatalf("status = %s, want paid", declined.Status)
	}
}

func TestPostMoveInRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.seed(models.StatusMovedIn, baseTime, baseTime)
	r.MovedInAt = &baseTime
	f.store.Seed(r)

	req := CancellationRequest{
		Reason:     refundpolicy.ReasonUnclean,
		Details:    "phòng bẩn",
		ProofFiles: []ProofFile{{URL: "https://cdn/a.jpg"}, {URL: "https://cdn/b.jpg"}},
	}

	f.clock.Advance(10 * time.Hour)
	quote, err := f.workflow.Quote(r)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !quote.RefundAmount.Equal(money("500")) {
		t.Fatalf("quote = %s", quote.RefundAmount)
	}

	summary, err := f.workflow.Submit(ctx, r, tenant, req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	s := summary.Settlement
	if summary.Status != models.StatusRefundProcessing ||
		!s.RentRefund.Equal(money("500")) || !s.FeeRefund.IsZero() ||
		!s.CancellationFee.Equal(money("100")) || !s.RefundAmount.Equal(money("500")) {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	settled, err := f.svc.SettleRefund(ctx, r.ID, admin, true, "")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled.Status != models.StatusRefundComplete {
		t.Fatalf("status = %s", settled.Status)
	}
}

func TestPostMoveInRefundWindow(t *testing.T) {
	req := CancellationRequest{
		Reason:     refundpolicy.ReasonSafetyConcern,
		Details:    "khóa cửa hỏng",
		ProofFiles: []ProofFile{{URL: "https://cdn/lock.jpg"}},
	}

	t.Run("expired after 24 hours", func(t *testing.T) {
		f := newFixture(t)
		r := f.seed(models.StatusMovedIn, baseTime, baseTime)
		r.MovedInAt = &baseTime
		f.store.Seed(r)

		f.clock.Advance(30 * time.Hour)
		_, err := f.workflow.Submit(context.Background(), r, tenant, req)
		assertCode(t, err, errors.ErrCodeWindowExpired)
		f.assertStatus(t, r.ID, models.StatusMovedIn)
	})

	t.Run("unknown move-in time", func(t *testing.T) {
		f := newFixture(t)
		r := f.seed(models.StatusMovedIn, baseTime, baseTime)

		_, err := f.workflow.Submit(context.Background(), r, tenant, req)
		assertCode(t, err, errors.ErrCodeUnknownTiming)
	})
}

func TestConcurrentRefundRequestsConflict(t *testing.T) {
	f := newFixture(t)
	r := f.seed(models.StatusMovedIn, baseTime, baseTime)
	r.MovedInAt = &baseTime
	f.store.Seed(r)
	f.clock.Advance(time.Hour)

	snapshot, _ := f.store.GetReservation(context.Background(), r.ID)
	req := TransitionRequest{
		Actor:     tenant,
		Reason:    refundpolicy.ReasonMisleading,
		Details:   "ảnh không đúng thực tế",
		ProofURLs: []string{"https://cdn/x.jpg"},
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.svc.AttemptTransition(context.Background(), snapshot.Clone(), models.StatusRefundProcessing, req)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case stderrors.Is(err, errors.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != 1 {
		t.Fatalf("ok=%d conflicts=%d, want 1 and 1", ok, conflicts)
	}
	if n := f.eventCount(t, r.ID); n != 1 {
		t.Fatalf("events = %d, want 1", n)
	}
}

func TestDirectTransitionRequiresMatchingReason(t *testing.T) {
	f := newFixture(t)
	r := f.seed(models.StatusPaid, baseTime.Add(20*24*time.Hour), baseTime)

	// "plans" không cần xét duyệt nên không được đưa vào hàng chờ
	_, err := f.svc.AttemptTransition(context.Background(), r, models.StatusCancellationUnderReview,
		TransitionRequest{Actor: tenant, Reason: refundpolicy.ReasonPlans})
	assertCode(t, err, errors.ErrCodeInvalidTransition)
	f.assertStatus(t, r.ID, models.StatusPaid)
}

func TestNotificationFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = stderrors.New("ws down")
	r := f.seed(models.StatusPending, baseTime.Add(30*24*time.Hour), baseTime)

	if _, err := f.svc.Accept(context.Background(), r.ID, advertiser); err != nil {
		t.Fatalf("accept: %v", err)
	}
	f.assertStatus(t, r.ID, models.StatusAccepted)
}

func TestComputeRefundRejectsOtherStatuses(t *testing.T) {
	f := newFixture(t)
	for _, status := range []models.ReservationStatus{models.StatusPending, models.StatusAccepted, models.StatusCancelled} {
		r := f.seed(status, baseTime.Add(20*24*time.Hour), baseTime)
		_, err := f.svc.ComputeRefund(r, baseTime)
		assertCode(t, err, errors.ErrCodeInvalidTransition)
	}
}

func TestTimers(t *testing.T) {
	f := newFixture(t)
	accepted := f.seed(models.StatusAccepted, baseTime.Add(30*24*time.Hour), baseTime)

	timers := f.svc.Timers(accepted, baseTime.Add(20*time.Hour))
	if timers.PaymentDeadline == nil || !timers.PaymentDeadline.Equal(baseTime.Add(24*time.Hour)) {
		t.Fatalf("payment deadline = %v", timers.PaymentDeadline)
	}
	if timers.RemainingSeconds != 4*3600 || timers.EffectiveStatus != models.StatusAccepted {
		t.Fatalf("unexpected timers: %+v", timers)
	}

	late := f.svc.Timers(accepted, baseTime.Add(30*time.Hour))
	if late.RemainingSeconds != 0 || late.EffectiveStatus != models.StatusExpired {
		t.Fatalf("unexpected timers after window: %+v", late)
	}
}

func TestListScopesByActor(t *testing.T) {
	f := newFixture(t)
	f.seed(models.StatusPending, baseTime.Add(30*24*time.Hour), baseTime)
	other := builders.NewReservationBuilder().WithParties(55, 56).WithScheduledDate(baseTime).Build()
	f.store.Seed(other)

	mine, err := f.svc.List(context.Background(), tenant, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 || mine[0].TenantID != tenantID {
		t.Fatalf("tenant list = %+v", mine)
	}
	all, _ := f.svc.List(context.Background(), admin, nil)
	if len(all) != 2 {
		t.Fatalf("admin list = %d, want 2", len(all))
	}
	_, err = f.svc.GetForActor(context.Background(), other.ID, tenant)
	assertCode(t, err, errors.ErrCodeForbiddenActor)
}

type fakeUploader struct {
	mu       sync.Mutex
	uploaded []string
}

func (u *fakeUploader) Upload(_ context.Context, reservationID uint, file ProofFile) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	url := fmt.Sprintf("https://cdn/%d/%s", reservationID, file.Filename)
	u.uploaded = append(u.uploaded, url)
	return url, nil
}

type captureLogger struct {
	logger.Nop
	mu    sync.Mutex
	warns []string
}

func (l *captureLogger) Warn(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(format, v...))
}

func TestSubmitConflictLogsUnusedProofURLs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.seed(models.StatusMovedIn, baseTime, baseTime)
	r.MovedInAt = &baseTime
	f.store.Seed(r)
	f.clock.Advance(time.Hour)

	uploader := &fakeUploader{}
	log := &captureLogger{}
	workflow := NewCancellationWorkflow(f.svc, uploader, log)

	stale, _ := f.store.GetReservation(ctx, r.ID)
	req := func(name string) CancellationRequest {
		return CancellationRequest{
			Reason:     refundpolicy.ReasonUnclean,
			Details:    "phòng bẩn",
			ProofFiles: []ProofFile{{Filename: name}},
		}
	}

	if _, err := workflow.Submit(ctx, stale.Clone(), tenant, req("first.jpg")); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := workflow.Submit(ctx, stale.Clone(), tenant, req("second.jpg"))
	assertCode(t, err, errors.ErrCodeConflict)

	orphan := fmt.Sprintf("https://cdn/%d/second.jpg", r.ID)
	if len(uploader.uploaded) != 2 || uploader.uploaded[1] != orphan {
		t.Fatalf("uploaded = %v", uploader.uploaded)
	}
	found := false
	for _, w := range log.warns {
		if strings.Contains(w, orphan) {
			found = true
		}
		if strings.Contains(w, "first.jpg") {
			t.Fatalf("committed proof logged as unused: %q", w)
		}
	}
	if !found {
		t.Fatalf("unused proof url not logged: %v", log.warns)
	}
	if n := f.eventCount(t, r.ID); n != 1 {
		t.Fatalf("events = %d, want 1", n)
	}
}
