package usecase

import (
	"context"
	"testing"
	"time"

	"lesson-booking/internal/clock"
	"lesson-booking/internal/data/entity"
	"lesson-booking/internal/data/repository"
	"lesson-booking/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type reservationEnv struct {
	schedules *fakeScheduleRepo
	practices *fakePracticeSessionRepo
	sessRes   *fakeReservationRepo
	pracRes   *fakeReservationRepo
	tickets   *fakeTicketRepo
	orders    *fakeOrderRepo
	productID uuid.UUID
	clk       *clock.Fixed
	svc       ReservationService
}

func newReservationEnv() *reservationEnv {
	log := zap.NewNop()
	db := &fakeDB{}
	repo := repository.NewRepository(db, log)

	e := &reservationEnv{
		schedules: &fakeScheduleRepo{newFakeSlotRepo()},
		practices: &fakePracticeSessionRepo{newFakeSlotRepo()},
		sessRes:   newFakeReservationRepo(),
		pracRes:   newFakeReservationRepo(),
		tickets:   newFakeTicketRepo(),
		orders:    newFakeOrderRepo(),
		productID: uuid.New(),
		clk:       clock.NewFixed(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)),
	}
	db.snapshot = e.snapshotStores

	repo.Schedule = e.schedules
	repo.PracticeSession = e.practices
	repo.SessionReservation = e.sessRes
	repo.PracticeReservation = e.pracRes
	repo.Ticket = e.tickets
	repo.Order = e.orders

	e.svc = NewReservationService(repo, nil, nil, e.clk, 2, log)
	return e
}

func (e *reservationEnv) snapshotStores() func() {
	schedules := snapshotMap(e.schedules.slots)
	practices := snapshotMap(e.practices.slots)
	sessRes := snapshotMap(e.sessRes.byID)
	pracRes := snapshotMap(e.pracRes.byID)
	tickets := snapshotMap(e.tickets.byID)
	orders := snapshotMap(e.orders.byID)
	return func() {
		e.schedules.slots = schedules
		e.practices.slots = practices
		e.sessRes.byID = sessRes
		e.pracRes.byID = pracRes
		e.tickets.byID = tickets
		e.orders.byID = orders
	}
}

// addLessonSlot creates a schedule slot for the env's lesson product, the
// one the env's tickets are bought for.
func (e *reservationEnv) addLessonSlot(capacity, booked int, status entity.SlotStatus) uuid.UUID {
	id := e.schedules.addSlot(capacity, booked, status)
	e.schedules.slots[id].LessonProductID = e.productID
	return id
}

func (e *reservationEnv) addTicket(userID uuid.UUID, total, used int) *entity.Ticket {
	return e.addTicketForProduct(userID, e.productID, total, used)
}

func (e *reservationEnv) addTicketForProduct(userID, productID uuid.UUID, total, used int) *entity.Ticket {
	t := &entity.Ticket{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: e.clk.Now(),
			UpdatedAt: e.clk.Now(),
		},
		UserID:          userID,
		LessonProductID: productID,
		SessionsTotal:   total,
		SessionsUsed:    used,
		IsActive:        true,
		Status:          entity.TicketStatusUnused,
	}
	e.tickets.add(t)
	return t
}

func dayOrder(d int) *request.ApplySessionRequest {
	return &request.ApplySessionRequest{DayOrder: &d}
}

func TestApplySessionSeatsWhenRoom(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	userID := uuid.New()
	ticket := e.addTicket(userID, 5, 0)
	slotID := e.addLessonSlot(10, 0, entity.SlotStatusOpen)

	res, err := e.svc.ApplySession(ctx, userID, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)

	assert.False(t, res.IsWaiting)
	assert.Nil(t, res.WaitingPosition)
	assert.Equal(t, entity.ReservationStatusReserved, res.Status)
	require.NotNil(t, res.TicketID)
	assert.Equal(t, ticket.ID.String(), *res.TicketID)

	assert.Equal(t, 1, e.schedules.slots[slotID].CurrentBookings)
	charged := e.tickets.get(ticket.ID)
	assert.Equal(t, 1, charged.SessionsUsed)
	assert.Equal(t, entity.TicketStatusPartiallyUsed, charged.Status)
}

func TestApplySessionFullSlotJoinsWaitlist(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	slotID := e.addLessonSlot(1, 1, entity.SlotStatusOpen)

	userA := uuid.New()
	ticketA := e.addTicket(userA, 3, 0)
	resA, err := e.svc.ApplySession(ctx, userA, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)
	assert.True(t, resA.IsWaiting)
	require.NotNil(t, resA.WaitingPosition)
	assert.Equal(t, 1, *resA.WaitingPosition)

	userB := uuid.New()
	e.addTicket(userB, 3, 0)
	resB, err := e.svc.ApplySession(ctx, userB, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)
	require.NotNil(t, resB.WaitingPosition)
	assert.Equal(t, 2, *resB.WaitingPosition)

	// Enqueueing reserves no session and never touches the ledger.
	assert.Equal(t, 0, e.tickets.get(ticketA.ID).SessionsUsed)
	assert.Equal(t, 1, e.schedules.slots[slotID].CurrentBookings)
}

func TestApplySessionWithoutTicket(t *testing.T) {
	e := newReservationEnv()
	slotID := e.addLessonSlot(10, 0, entity.SlotStatusOpen)

	_, err := e.svc.ApplySession(context.Background(), uuid.New(), slotID.String(), false, dayOrder(1))
	assert.ErrorIs(t, err, entity.ErrNoActiveTicket)
}

func TestApplySessionDuplicate(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	userID := uuid.New()
	e.addTicket(userID, 5, 0)
	slotID := e.addLessonSlot(10, 0, entity.SlotStatusOpen)

	_, err := e.svc.ApplySession(ctx, userID, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)

	_, err = e.svc.ApplySession(ctx, userID, slotID.String(), false, dayOrder(1))
	assert.ErrorIs(t, err, entity.ErrDuplicateReservation)
}

func TestApplySessionSlotNotOpen(t *testing.T) {
	e := newReservationEnv()
	userID := uuid.New()
	e.addTicket(userID, 5, 0)
	slotID := e.addLessonSlot(10, 0, entity.SlotStatusClosed)

	_, err := e.svc.ApplySession(context.Background(), userID, slotID.String(), false, dayOrder(1))
	assert.ErrorIs(t, err, entity.ErrSlotNotOpen)
}

func TestApplySessionDayOrder(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	userID := uuid.New()
	e.addTicket(userID, 10, 0)

	slot1 := e.addLessonSlot(10, 0, entity.SlotStatusOpen)
	slot2 := e.addLessonSlot(10, 0, entity.SlotStatusOpen)
	slot3 := e.addLessonSlot(10, 0, entity.SlotStatusOpen)

	// Day 2 before day 1 is rejected.
	_, err := e.svc.ApplySession(ctx, userID, slot2.String(), false, dayOrder(2))
	assert.ErrorIs(t, err, entity.ErrDayOrderViolation)

	// A lesson session must state its day.
	_, err = e.svc.ApplySession(ctx, userID, slot2.String(), false, &request.ApplySessionRequest{})
	assert.ErrorIs(t, err, entity.ErrMissingDayOrder)

	// Theory sessions bypass the sequence.
	_, err = e.svc.ApplySession(ctx, userID, slot3.String(), false, &request.ApplySessionRequest{IsTheory: true})
	assert.NoError(t, err)

	// Day 1 then day 2 in order.
	_, err = e.svc.ApplySession(ctx, userID, slot1.String(), false, dayOrder(1))
	require.NoError(t, err)
	_, err = e.svc.ApplySession(ctx, userID, slot2.String(), false, dayOrder(2))
	assert.NoError(t, err)
}

func TestApplySessionSkipsStaleTicket(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	userID := uuid.New()

	expired := e.addTicket(userID, 5, 0)
	yesterday := e.clk.Now().AddDate(0, 0, -1)
	e.tickets.get(expired.ID).ValidUntil = &yesterday

	nextMonth := e.clk.Now().AddDate(0, 1, 0)
	valid := e.addTicket(userID, 5, 0)
	e.tickets.get(valid.ID).ValidUntil = &nextMonth

	slotID := e.addLessonSlot(10, 0, entity.SlotStatusOpen)
	res, err := e.svc.ApplySession(ctx, userID, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)

	require.NotNil(t, res.TicketID)
	assert.Equal(t, valid.ID.String(), *res.TicketID)

	// The stale candidate was corrected in place, not just skipped.
	assert.Equal(t, entity.TicketStatusExpired, e.tickets.get(expired.ID).Status)
	assert.Equal(t, 1, e.tickets.get(valid.ID).SessionsUsed)
}

func TestApplySessionTicketForOtherProduct(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	userID := uuid.New()

	// The user's only ticket was bought for a different lesson product.
	other := e.addTicketForProduct(userID, uuid.New(), 5, 0)
	slotID := e.addLessonSlot(10, 0, entity.SlotStatusOpen)

	_, err := e.svc.ApplySession(ctx, userID, slotID.String(), false, dayOrder(1))
	assert.ErrorIs(t, err, entity.ErrNoActiveTicket)
	assert.Equal(t, 0, e.tickets.get(other.ID).SessionsUsed)
	assert.Equal(t, 0, e.schedules.slots[slotID].CurrentBookings)
}

func TestApplySessionIncrementRefusedRollsBack(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	userID := uuid.New()
	ticket := e.addTicket(userID, 5, 0)
	slotID := e.addLessonSlot(5, 0, entity.SlotStatusOpen)

	// The room check passes, then a concurrent booking takes the last seat
	// before the conditional counter update lands.
	e.schedules.refuseIncrement = true

	_, err := e.svc.ApplySession(ctx, userID, slotID.String(), false, dayOrder(1))
	assert.ErrorIs(t, err, entity.ErrCapacityExceeded)

	// Nothing of the failed apply survives: no reservation row, no charge.
	assert.Empty(t, e.sessRes.byID)
	assert.Equal(t, 0, e.tickets.get(ticket.ID).SessionsUsed)
	assert.Equal(t, 0, e.schedules.slots[slotID].CurrentBookings)
}

func TestCancelSeatedPromotesWaiter(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	slotID := e.addLessonSlot(1, 0, entity.SlotStatusOpen)

	userA := uuid.New()
	e.addTicket(userA, 3, 0)
	seated, err := e.svc.ApplySession(ctx, userA, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)
	require.False(t, seated.IsWaiting)

	userB := uuid.New()
	ticketB := e.addTicket(userB, 3, 0)
	waiterB, err := e.svc.ApplySession(ctx, userB, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)
	require.True(t, waiterB.IsWaiting)

	userC := uuid.New()
	e.addTicket(userC, 3, 0)
	waiterC, err := e.svc.ApplySession(ctx, userC, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)
	require.Equal(t, 2, *waiterC.WaitingPosition)

	out, err := e.svc.CancelSession(ctx, userA, seated.ID, false)
	require.NoError(t, err)
	assert.True(t, out.Promoted)
	assert.Equal(t, waiterB.ID, out.PromotedID)

	// B now holds the seat and was charged at promotion time.
	promoted := e.sessRes.get(uuid.MustParse(waiterB.ID))
	assert.False(t, promoted.IsWaiting)
	assert.Nil(t, promoted.QueuePosition)
	assert.Equal(t, 1, e.tickets.get(ticketB.ID).SessionsUsed)

	// C moved up into the vacated queue position.
	remaining := e.sessRes.get(uuid.MustParse(waiterC.ID))
	require.NotNil(t, remaining.QueuePosition)
	assert.Equal(t, 1, *remaining.QueuePosition)

	// Ledger: one seat freed, one filled.
	assert.Equal(t, 1, e.schedules.slots[slotID].CurrentBookings)
}

func TestCancelWaitingClosesGap(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	slotID := e.addLessonSlot(1, 1, entity.SlotStatusOpen)

	var ids [3]string
	for i := range ids {
		userID := uuid.New()
		e.addTicket(userID, 3, 0)
		res, err := e.svc.ApplySession(ctx, userID, slotID.String(), false, dayOrder(1))
		require.NoError(t, err)
		ids[i] = res.ID
	}

	// Cancel the middle waiter; positions behind it shift up.
	middle := e.sessRes.get(uuid.MustParse(ids[1]))
	out, err := e.svc.CancelSession(ctx, middle.UserID, ids[1], false)
	require.NoError(t, err)
	assert.False(t, out.Promoted)

	first := e.sessRes.get(uuid.MustParse(ids[0]))
	last := e.sessRes.get(uuid.MustParse(ids[2]))
	assert.Equal(t, 1, *first.QueuePosition)
	assert.Equal(t, 2, *last.QueuePosition)

	// No seat was freed, so the ledger is untouched.
	assert.Equal(t, 1, e.schedules.slots[slotID].CurrentBookings)
}

func TestCancelSeatedRefundsSession(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	userID := uuid.New()
	ticket := e.addTicket(userID, 2, 0)
	slotID := e.addLessonSlot(5, 0, entity.SlotStatusOpen)

	res, err := e.svc.ApplySession(ctx, userID, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)
	require.Equal(t, 1, e.tickets.get(ticket.ID).SessionsUsed)

	_, err = e.svc.CancelSession(ctx, userID, res.ID, false)
	require.NoError(t, err)

	refunded := e.tickets.get(ticket.ID)
	assert.Equal(t, 0, refunded.SessionsUsed)
	assert.Equal(t, entity.TicketStatusUnused, refunded.Status)
	assert.True(t, refunded.IsActive)
	assert.Equal(t, 0, e.schedules.slots[slotID].CurrentBookings)
}

func TestCancelRefundPastExpiryLeavesTicketExpired(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	userID := uuid.New()

	ticket := e.addTicket(userID, 1, 0)
	today := e.clk.Now()
	e.tickets.get(ticket.ID).ValidUntil = &today

	slotID := e.addLessonSlot(5, 0, entity.SlotStatusOpen)
	res, err := e.svc.ApplySession(ctx, userID, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)
	require.Equal(t, 1, e.tickets.get(ticket.ID).SessionsUsed)

	// Cancel after valid_until has passed: the session comes back but the
	// ticket is expired now, not unused again.
	e.clk.Advance(48 * time.Hour)
	_, err = e.svc.CancelSession(ctx, userID, res.ID, false)
	require.NoError(t, err)

	refunded := e.tickets.get(ticket.ID)
	assert.Equal(t, 0, refunded.SessionsUsed)
	assert.Equal(t, entity.TicketStatusExpired, refunded.Status)
	assert.False(t, refunded.IsActive)
}

func TestCancelAfterCapacityShrink(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	slotID := e.addLessonSlot(2, 0, entity.SlotStatusOpen)

	userA := uuid.New()
	e.addTicket(userA, 3, 0)
	seatedA, err := e.svc.ApplySession(ctx, userA, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)

	userB := uuid.New()
	e.addTicket(userB, 3, 0)
	seatedB, err := e.svc.ApplySession(ctx, userB, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)
	require.False(t, seatedB.IsWaiting)

	userC := uuid.New()
	ticketC := e.addTicket(userC, 3, 0)
	waiterC, err := e.svc.ApplySession(ctx, userC, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)
	require.True(t, waiterC.IsWaiting)

	// Admin shrinks the slot below the current booking count.
	e.schedules.slots[slotID].Capacity = 1

	// The cancel itself must succeed; the freed seat still leaves the slot
	// at capacity, so the waiter stays queued.
	out, err := e.svc.CancelSession(ctx, userA, seatedA.ID, false)
	require.NoError(t, err)
	assert.False(t, out.Promoted)
	assert.Equal(t, 1, e.schedules.slots[slotID].CurrentBookings)

	stillWaiting := e.sessRes.get(uuid.MustParse(waiterC.ID))
	assert.True(t, stillWaiting.IsWaiting)
	require.NotNil(t, stillWaiting.QueuePosition)
	assert.Equal(t, 1, *stillWaiting.QueuePosition)

	// Attrition catches up: the next cancel opens a seat and promotes.
	out, err = e.svc.CancelSession(ctx, userB, seatedB.ID, false)
	require.NoError(t, err)
	assert.True(t, out.Promoted)
	assert.Equal(t, waiterC.ID, out.PromotedID)
	assert.Equal(t, 1, e.schedules.slots[slotID].CurrentBookings)
	assert.Equal(t, 1, e.tickets.get(ticketC.ID).SessionsUsed)
}

func TestPromotionSkipsUnchargeableWaiter(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	slotID := e.addLessonSlot(1, 0, entity.SlotStatusOpen)

	userA := uuid.New()
	e.addTicket(userA, 3, 0)
	seated, err := e.svc.ApplySession(ctx, userA, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)

	userB := uuid.New()
	ticketB := e.addTicket(userB, 1, 0)
	waiterB, err := e.svc.ApplySession(ctx, userB, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)

	userC := uuid.New()
	ticketC := e.addTicket(userC, 3, 0)
	waiterC, err := e.svc.ApplySession(ctx, userC, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)

	// B's ticket runs out while they wait.
	e.tickets.get(ticketB.ID).SessionsUsed = 1

	out, err := e.svc.CancelSession(ctx, userA, seated.ID, false)
	require.NoError(t, err)
	assert.True(t, out.Promoted)
	assert.Equal(t, waiterC.ID, out.PromotedID)

	// The unchargeable waiter was dropped from the queue, not left in limbo.
	dropped := e.sessRes.get(uuid.MustParse(waiterB.ID))
	assert.Equal(t, entity.ReservationStatusCancelled, dropped.Status)

	assert.Equal(t, 1, e.tickets.get(ticketC.ID).SessionsUsed)
	assert.Equal(t, 1, e.schedules.slots[slotID].CurrentBookings)
}

func TestCancelSomeoneElsesReservation(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	userID := uuid.New()
	e.addTicket(userID, 3, 0)
	slotID := e.addLessonSlot(5, 0, entity.SlotStatusOpen)

	res, err := e.svc.ApplySession(ctx, userID, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)

	_, err = e.svc.CancelSession(ctx, uuid.New(), res.ID, false)
	assert.ErrorIs(t, err, entity.ErrReservationNotFound)
}

func TestCancelTwice(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	userID := uuid.New()
	e.addTicket(userID, 3, 0)
	slotID := e.addLessonSlot(5, 0, entity.SlotStatusOpen)

	res, err := e.svc.ApplySession(ctx, userID, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)

	_, err = e.svc.CancelSession(ctx, userID, res.ID, false)
	require.NoError(t, err)

	_, err = e.svc.CancelSession(ctx, userID, res.ID, false)
	assert.ErrorIs(t, err, entity.ErrReservationNotFound)
}

func TestFreePracticeNeedsNoTicket(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	userID := uuid.New()
	slotID := e.practices.addSlot(2, 0, entity.SlotStatusOpen)

	res, err := e.svc.ApplySession(ctx, userID, slotID.String(), true, nil)
	require.NoError(t, err)
	assert.False(t, res.IsWaiting)
	assert.Nil(t, res.TicketID)
	assert.True(t, res.IsFreePractice)
	assert.Equal(t, 1, e.practices.slots[slotID].CurrentBookings)

	_, err = e.svc.CancelSession(ctx, userID, res.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 0, e.practices.slots[slotID].CurrentBookings)
}

func TestWaitingPosition(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	slotID := e.addLessonSlot(1, 1, entity.SlotStatusOpen)

	userA := uuid.New()
	e.addTicket(userA, 3, 0)
	_, err := e.svc.ApplySession(ctx, userA, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)

	userB := uuid.New()
	e.addTicket(userB, 3, 0)
	_, err = e.svc.ApplySession(ctx, userB, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)

	pos, err := e.svc.WaitingPosition(ctx, userB, slotID.String(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, pos.Position)
	assert.Equal(t, 2, pos.TotalWaiting)
}

func TestWaitingPositionNotWaiting(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	userID := uuid.New()
	e.addTicket(userID, 3, 0)
	slotID := e.addLessonSlot(5, 0, entity.SlotStatusOpen)

	_, err := e.svc.ApplySession(ctx, userID, slotID.String(), false, dayOrder(1))
	require.NoError(t, err)

	_, err = e.svc.WaitingPosition(ctx, userID, slotID.String(), false)
	assert.ErrorIs(t, err, entity.ErrNotWaiting)
}

func TestMyReservations(t *testing.T) {
	e := newReservationEnv()
	ctx := context.Background()
	userID := uuid.New()
	e.addTicket(userID, 5, 0)

	lessonSlot := e.addLessonSlot(5, 0, entity.SlotStatusOpen)
	practiceSlot := e.practices.addSlot(5, 0, entity.SlotStatusOpen)

	_, err := e.svc.ApplySession(ctx, userID, lessonSlot.String(), false, dayOrder(1))
	require.NoError(t, err)
	_, err = e.svc.ApplySession(ctx, userID, practiceSlot.String(), true, nil)
	require.NoError(t, err)

	out, err := e.svc.MyReservations(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, out.Sessions, 1)
	assert.Len(t, out.Practices, 1)
	assert.False(t, out.Sessions[0].IsFreePractice)
	assert.True(t, out.Practices[0].IsFreePractice)
}
