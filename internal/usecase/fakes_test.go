package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"lesson-booking/internal/data/entity"
	"lesson-booking/internal/data/repository"
	"lesson-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// fakeDB satisfies database.PgxIface far enough for withTx. The
// repositories used in these tests are in-memory fakes, so nothing beyond
// Begin/Commit/Rollback is ever called. When a snapshot hook is set, Begin
// captures the fake stores and Rollback restores them, so a failing closure
// leaves no partial writes behind, same as a real transaction.
type fakeDB struct {
	database.PgxIface
	snapshot func() (restore func())
}

func (f *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	tx := &fakeTx{}
	if f.snapshot != nil {
		tx.restore = f.snapshot()
	}
	return tx, nil
}

type fakeTx struct {
	pgx.Tx
	restore func()
}

func (t *fakeTx) Commit(ctx context.Context) error { return nil }

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.restore != nil {
		t.restore()
		t.restore = nil
	}
	return nil
}

func snapshotMap[K comparable, V any](m map[K]*V) map[K]*V {
	out := make(map[K]*V, len(m))
	for k, v := range m {
		copied := *v
		out[k] = &copied
	}
	return out
}

// fakeSlotRepo is the in-memory capacity ledger shared by the schedule and
// practice session fakes. refuseIncrement simulates a concurrent booking
// landing between the room check and the counter update, so the conditional
// increment fails even though the earlier read showed room.
type fakeSlotRepo struct {
	slots           map[uuid.UUID]*entity.SlotView
	refuseIncrement bool
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: make(map[uuid.UUID]*entity.SlotView)}
}

func (f *fakeSlotRepo) addSlot(capacity, booked int, status entity.SlotStatus) uuid.UUID {
	id := uuid.New()
	f.slots[id] = &entity.SlotView{
		ID: id,
		Slot: entity.Slot{
			Capacity:        capacity,
			CurrentBookings: booked,
			Status:          status,
			Version:         1,
		},
	}
	return id
}

func (f *fakeSlotRepo) FindSlotForUpdate(ctx context.Context, id uuid.UUID) (*entity.SlotView, error) {
	slot, ok := f.slots[id]
	if !ok {
		return nil, fmt.Errorf("slot %s: %w", id.String(), entity.ErrSlotNotFound)
	}
	copied := *slot
	return &copied, nil
}

func (f *fakeSlotRepo) IncrementBookings(ctx context.Context, id uuid.UUID) error {
	slot, ok := f.slots[id]
	if !ok {
		return fmt.Errorf("slot %s: %w", id.String(), entity.ErrSlotNotFound)
	}
	if f.refuseIncrement || slot.Status != entity.SlotStatusOpen || slot.CurrentBookings >= slot.Capacity {
		return fmt.Errorf("slot %s: %w", id.String(), entity.ErrCapacityExceeded)
	}
	slot.CurrentBookings++
	slot.Version++
	return nil
}

func (f *fakeSlotRepo) DecrementBookings(ctx context.Context, id uuid.UUID) error {
	slot, ok := f.slots[id]
	if !ok {
		return fmt.Errorf("slot %s: %w", id.String(), entity.ErrSlotNotFound)
	}
	if slot.CurrentBookings > 0 {
		slot.CurrentBookings--
	}
	slot.Version++
	return nil
}

type fakeScheduleRepo struct {
	*fakeSlotRepo
}

func (f *fakeScheduleRepo) Create(ctx context.Context, s *entity.InstructorSchedule) error { return nil }
func (f *fakeScheduleRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.InstructorSchedule, error) {
	return nil, nil
}
func (f *fakeScheduleRepo) Update(ctx context.Context, s *entity.InstructorSchedule) error { return nil }
func (f *fakeScheduleRepo) Delete(ctx context.Context, id uuid.UUID) error                 { return nil }
func (f *fakeScheduleRepo) List(ctx context.Context, filters repository.SlotFilters, limit, offset int) ([]*entity.InstructorSchedule, error) {
	return nil, nil
}
func (f *fakeScheduleRepo) Count(ctx context.Context, filters repository.SlotFilters) (int64, error) {
	return 0, nil
}

type fakePracticeSessionRepo struct {
	*fakeSlotRepo
}

func (f *fakePracticeSessionRepo) Create(ctx context.Context, s *entity.PracticeSession) error {
	return nil
}
func (f *fakePracticeSessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.PracticeSession, error) {
	return nil, nil
}
func (f *fakePracticeSessionRepo) Update(ctx context.Context, s *entity.PracticeSession) error {
	return nil
}
func (f *fakePracticeSessionRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakePracticeSessionRepo) List(ctx context.Context, filters repository.SlotFilters, limit, offset int) ([]*entity.PracticeSession, error) {
	return nil, nil
}
func (f *fakePracticeSessionRepo) Count(ctx context.Context, filters repository.SlotFilters) (int64, error) {
	return 0, nil
}

// fakeReservationRepo mirrors the waitlist semantics of the SQL
// repositories: positions are 1-based and gapless among waiting RESERVED
// entries of a slot.
type fakeReservationRepo struct {
	byID map[uuid.UUID]*entity.Reservation
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{byID: make(map[uuid.UUID]*entity.Reservation)}
}

func (f *fakeReservationRepo) get(id uuid.UUID) *entity.Reservation {
	return f.byID[id]
}

func (f *fakeReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	copied := *res
	f.byID[res.ID] = &copied
	return nil
}

func (f *fakeReservationRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	res, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *res
	return &copied, nil
}

func (f *fakeReservationRepo) FindActiveByUser(ctx context.Context, userID, slotID uuid.UUID) (*entity.Reservation, error) {
	for _, res := range f.byID {
		if res.UserID == userID && res.SlotID == slotID && res.Status == entity.ReservationStatusReserved {
			copied := *res
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeReservationRepo) FindReservedByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Reservation, error) {
	var out []*entity.Reservation
	for _, res := range f.byID {
		if res.UserID == userID && res.Status == entity.ReservationStatusReserved {
			copied := *res
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeReservationRepo) FindBySchedule(ctx context.Context, slotID uuid.UUID) ([]*entity.Reservation, error) {
	return f.findBySlot(slotID), nil
}

func (f *fakeReservationRepo) FindBySession(ctx context.Context, slotID uuid.UUID) ([]*entity.Reservation, error) {
	return f.findBySlot(slotID), nil
}

func (f *fakeReservationRepo) findBySlot(slotID uuid.UUID) []*entity.Reservation {
	var out []*entity.Reservation
	for _, res := range f.byID {
		if res.SlotID == slotID {
			copied := *res
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (f *fakeReservationRepo) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, ok := f.byID[id]
	if !ok || res.Status != entity.ReservationStatusReserved {
		return fmt.Errorf("reservation %s: %w", id.String(), entity.ErrReservationNotFound)
	}
	res.Status = entity.ReservationStatusCancelled
	res.CancelledAt = &at
	return nil
}

func (f *fakeReservationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReservationStatus) error {
	res, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("reservation %s: %w", id.String(), entity.ErrReservationNotFound)
	}
	res.Status = status
	return nil
}

func (f *fakeReservationRepo) waiting(slotID uuid.UUID) []*entity.Reservation {
	var out []*entity.Reservation
	for _, res := range f.byID {
		if res.SlotID == slotID && res.IsWaiting && res.Status == entity.ReservationStatusReserved {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].QueuePosition < *out[j].QueuePosition })
	return out
}

func (f *fakeReservationRepo) MaxQueuePosition(ctx context.Context, slotID uuid.UUID) (int, error) {
	max := 0
	for _, res := range f.waiting(slotID) {
		if *res.QueuePosition > max {
			max = *res.QueuePosition
		}
	}
	return max, nil
}

func (f *fakeReservationRepo) FirstWaiting(ctx context.Context, slotID uuid.UUID) (*entity.Reservation, error) {
	waiting := f.waiting(slotID)
	if len(waiting) == 0 {
		return nil, nil
	}
	copied := *waiting[0]
	return &copied, nil
}

func (f *fakeReservationRepo) Promote(ctx context.Context, id uuid.UUID) error {
	res, ok := f.byID[id]
	if !ok || !res.IsWaiting || res.Status != entity.ReservationStatusReserved {
		return fmt.Errorf("reservation %s: %w", id.String(), entity.ErrReservationNotFound)
	}
	res.IsWaiting = false
	res.QueuePosition = nil
	return nil
}

func (f *fakeReservationRepo) CloseQueueGap(ctx context.Context, slotID uuid.UUID, abovePosition int) error {
	for _, res := range f.waiting(slotID) {
		if *res.QueuePosition > abovePosition {
			*res.QueuePosition--
		}
	}
	return nil
}

func (f *fakeReservationRepo) CountWaiting(ctx context.Context, slotID uuid.UUID) (int, error) {
	return len(f.waiting(slotID)), nil
}

func (f *fakeReservationRepo) HasReservedDay(ctx context.Context, userID uuid.UUID, dayOrder int) (bool, error) {
	for _, res := range f.byID {
		if res.UserID == userID && res.Status == entity.ReservationStatusReserved &&
			!res.IsTheory && res.DayOrder != nil && *res.DayOrder == dayOrder {
			return true, nil
		}
	}
	return false, nil
}

type fakeTicketRepo struct {
	byID map[uuid.UUID]*entity.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{byID: make(map[uuid.UUID]*entity.Ticket)}
}

func (f *fakeTicketRepo) add(t *entity.Ticket) {
	copied := *t
	f.byID[t.ID] = &copied
}

func (f *fakeTicketRepo) get(id uuid.UUID) *entity.Ticket {
	return f.byID[id]
}

func (f *fakeTicketRepo) Create(ctx context.Context, t *entity.Ticket) error {
	f.add(t)
	return nil
}

func (f *fakeTicketRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Ticket, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTicketRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Ticket, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeTicketRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Ticket, error) {
	var out []*entity.Ticket
	for _, t := range f.byID {
		if t.UserID == userID {
			copied := *t
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeTicketRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Ticket, error) {
	for _, t := range f.byID {
		if t.OrderID != nil && *t.OrderID == orderID {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeTicketRepo) FindQualifying(ctx context.Context, userID, lessonProductID uuid.UUID) (*entity.Ticket, error) {
	var candidates []*entity.Ticket
	for _, t := range f.byID {
		if t.UserID != userID || t.LessonProductID != lessonProductID {
			continue
		}
		if !t.IsActive || t.SessionsUsed >= t.SessionsTotal {
			continue
		}
		switch t.Status {
		case entity.TicketStatusExpired, entity.TicketStatusCancelled, entity.TicketStatusFullyUsed:
			continue
		}
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		switch {
		case a.ValidUntil == nil && b.ValidUntil == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.ValidUntil == nil:
			return false
		case b.ValidUntil == nil:
			return true
		case a.ValidUntil.Equal(*b.ValidUntil):
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.ValidUntil.Before(*b.ValidUntil)
		}
	})
	copied := *candidates[0]
	return &copied, nil
}

func (f *fakeTicketRepo) Update(ctx context.Context, t *entity.Ticket) error {
	if _, ok := f.byID[t.ID]; !ok {
		return fmt.Errorf("ticket %s not found", t.ID.String())
	}
	copied := *t
	f.byID[t.ID] = &copied
	return nil
}

type fakeLessonProductRepo struct {
	byID map[uuid.UUID]*entity.LessonProduct
}

func newFakeLessonProductRepo() *fakeLessonProductRepo {
	return &fakeLessonProductRepo{byID: make(map[uuid.UUID]*entity.LessonProduct)}
}

func (f *fakeLessonProductRepo) Create(ctx context.Context, p *entity.LessonProduct) error {
	copied := *p
	f.byID[p.ID] = &copied
	return nil
}

func (f *fakeLessonProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.LessonProduct, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (f *fakeLessonProductRepo) FindAll(ctx context.Context, sportID *uuid.UUID) ([]*entity.LessonProduct, error) {
	var out []*entity.LessonProduct
	for _, p := range f.byID {
		if sportID == nil || p.SportID == *sportID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeLessonProductRepo) Update(ctx context.Context, p *entity.LessonProduct) error {
	copied := *p
	f.byID[p.ID] = &copied
	return nil
}

func (f *fakeLessonProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

type fakePaymentRepo struct {
	byOrder map[uuid.UUID][]*entity.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{byOrder: make(map[uuid.UUID][]*entity.Payment)}
}

func (f *fakePaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	copied := *p
	f.byOrder[p.OrderID] = append(f.byOrder[p.OrderID], &copied)
	return nil
}

func (f *fakePaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	for _, payments := range f.byOrder {
		for _, p := range payments {
			if p.ID == id {
				copied := *p
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func (f *fakePaymentRepo) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*entity.Payment, error) {
	var out []*entity.Payment
	for _, p := range f.byOrder[orderID] {
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakePaymentRepo) NextAttemptNumber(ctx context.Context, orderID uuid.UUID) (int, error) {
	return len(f.byOrder[orderID]) + 1, nil
}

func (f *fakePaymentRepo) UpdateResult(ctx context.Context, payment *entity.Payment) error {
	for i, p := range f.byOrder[payment.OrderID] {
		if p.ID == payment.ID {
			copied := *payment
			f.byOrder[payment.OrderID][i] = &copied
			return nil
		}
	}
	return fmt.Errorf("payment %s not found", payment.ID.String())
}

type fakeOrderRepo struct {
	byID map[uuid.UUID]*entity.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{byID: make(map[uuid.UUID]*entity.Order)}
}

func (f *fakeOrderRepo) add(o *entity.Order) {
	copied := *o
	f.byID[o.ID] = &copied
}

func (f *fakeOrderRepo) Create(ctx context.Context, o *entity.Order) error {
	f.add(o)
	return nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	o, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *o
	return &copied, nil
}

func (f *fakeOrderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeOrderRepo) FindByOrderID(ctx context.Context, orderID string) (*entity.Order, error) {
	for _, o := range f.byID {
		if o.OrderID == orderID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Order, error) {
	var out []*entity.Order
	for _, o := range f.byID {
		if o.UserID == userID {
			copied := *o
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.OrderStatus) error {
	o, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id.String(), entity.ErrOrderNotFound)
	}
	o.Status = status
	return nil
}
