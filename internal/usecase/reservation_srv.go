package usecase

import (
	"context"
	"fmt"
	"time"

	"lesson-booking/internal/cache"
	"lesson-booking/internal/clock"
	"lesson-booking/internal/data/entity"
	"lesson-booking/internal/data/repository"
	"lesson-booking/internal/dto/request"
	"lesson-booking/internal/dto/response"
	"lesson-booking/internal/events"
	"lesson-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReservationService interface {
	// ApplySession books a slot for the user, or enqueues them at the tail
	// of the waitlist when the slot is full. Lesson sessions consume one
	// ticket session at seating time; free practice never touches tickets.
	ApplySession(ctx context.Context, userID uuid.UUID, slotID string, isFreePractice bool, req *request.ApplySessionRequest) (*response.ReservationResponse, error)

	// CancelSession cancels the user's reservation. A seated cancellation
	// frees the spot and promotes the head of the waitlist; a waiting
	// cancellation closes the queue gap behind it.
	CancelSession(ctx context.Context, userID uuid.UUID, reservationID string, isFreePractice bool) (*response.CancelResponse, error)

	WaitingPosition(ctx context.Context, userID uuid.UUID, slotID string, isFreePractice bool) (*response.WaitingPositionResponse, error)
	MyReservations(ctx context.Context, userID uuid.UUID) (*response.MyReservationsResponse, error)
}

// slotStore is the capacity ledger half of a booking path. Both the
// instructor schedule and practice session repositories satisfy it.
type slotStore interface {
	FindSlotForUpdate(ctx context.Context, id uuid.UUID) (*entity.SlotView, error)
	IncrementBookings(ctx context.Context, id uuid.UUID) error
	DecrementBookings(ctx context.Context, id uuid.UUID) error
}

// reservationStore is the reservation and waitlist half of a booking path.
type reservationStore interface {
	Create(ctx context.Context, res *entity.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	FindActiveByUser(ctx context.Context, userID, slotID uuid.UUID) (*entity.Reservation, error)
	MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error
	MaxQueuePosition(ctx context.Context, slotID uuid.UUID) (int, error)
	FirstWaiting(ctx context.Context, slotID uuid.UUID) (*entity.Reservation, error)
	Promote(ctx context.Context, id uuid.UUID) error
	CloseQueueGap(ctx context.Context, slotID uuid.UUID, abovePosition int) error
	CountWaiting(ctx context.Context, slotID uuid.UUID) (int, error)
}

// bookingPath bundles the two stores for one variant. The lesson path is
// ticket backed; the practice path is not.
type bookingPath struct {
	slots        slotStore
	reservations reservationStore
	ticketBacked bool
	cachePrefix  string
}

type reservationService struct {
	repo    *repository.Repository
	cache   *cache.Cache
	events  *events.Publisher
	clock   clock.Clock
	retries int
	log     *zap.Logger
}

func NewReservationService(repo *repository.Repository, c *cache.Cache, pub *events.Publisher, clk clock.Clock, retries int, log *zap.Logger) ReservationService {
	return &reservationService{
		repo:    repo,
		cache:   c,
		events:  pub,
		clock:   clk,
		retries: retries,
		log:     log.With(zap.String("service", "reservation")),
	}
}

func (s *reservationService) path(isFreePractice bool) bookingPath {
	if isFreePractice {
		return bookingPath{
			slots:        s.repo.PracticeSession,
			reservations: s.repo.PracticeReservation,
			cachePrefix:  cache.PrefixPractices,
		}
	}
	return bookingPath{
		slots:        s.repo.Schedule,
		reservations: s.repo.SessionReservation,
		ticketBacked: true,
		cachePrefix:  cache.PrefixSchedules,
	}
}

// runTx executes fn in a transaction, retrying a bounded number of times
// when Postgres reports a serialization or deadlock failure.
func (s *reservationService) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = s.repo.WithTx(ctx, fn)
		if err == nil || !repository.IsSerializationFailure(err) || attempt >= s.retries {
			return err
		}
		s.log.Warn("Retrying booking transaction after conflict", zap.Int("attempt", attempt+1))
	}
}

func (s *reservationService) ApplySession(ctx context.Context, userID uuid.UUID, slotID string, isFreePractice bool, req *request.ApplySessionRequest) (*response.ReservationResponse, error) {
	if req == nil {
		req = &request.ApplySessionRequest{}
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Apply session validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	slotUUID, err := uuid.Parse(slotID)
	if err != nil {
		return nil, fmt.Errorf("invalid slot ID format %s: %w", slotID, err)
	}

	path := s.path(isFreePractice)

	var reservation *entity.Reservation
	var pending []events.Event

	err = s.runTx(ctx, func(ctx context.Context) error {
		reservation = nil
		pending = pending[:0]
		now := s.clock.Now()

		// The row lock serializes all booking work for this slot.
		slot, err := path.slots.FindSlotForUpdate(ctx, slotUUID)
		if err != nil {
			return err
		}
		if slot.Status != entity.SlotStatusOpen {
			return fmt.Errorf("slot %s: %w", slotID, entity.ErrSlotNotOpen)
		}

		existing, err := path.reservations.FindActiveByUser(ctx, userID, slotUUID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("user %s on slot %s: %w", userID.String(), slotID, entity.ErrDuplicateReservation)
		}

		res := &entity.Reservation{
			ID:        uuid.New(),
			UserID:    userID,
			SlotID:    slotUUID,
			Status:    entity.ReservationStatusReserved,
			CreatedAt: now,
		}

		var ticket *entity.Ticket
		if path.ticketBacked {
			ticket, err = s.resolveTicket(ctx, userID, slot.LessonProductID, now)
			if err != nil {
				return err
			}
			res.TicketID = &ticket.ID
			res.IsTheory = req.IsTheory
			res.DayOrder = req.DayOrder

			if err := s.checkDayOrder(ctx, userID, req); err != nil {
				return err
			}
		}

		if slot.HasRoom() {
			if err := path.reservations.Create(ctx, res); err != nil {
				return err
			}
			if err := path.slots.IncrementBookings(ctx, slot.ID); err != nil {
				return err
			}
			if path.ticketBacked {
				if err := s.chargeTicket(ctx, ticket, now); err != nil {
					return err
				}
			}
			pending = append(pending, events.Event{
				Type:          events.ReservationConfirmed,
				ReservationID: res.ID,
				UserID:        userID,
				SlotID:        slot.ID,
				OccurredAt:    now,
			})
		} else {
			maxPos, err := path.reservations.MaxQueuePosition(ctx, slot.ID)
			if err != nil {
				return err
			}
			pos := maxPos + 1
			res.IsWaiting = true
			res.QueuePosition = &pos
			if err := path.reservations.Create(ctx, res); err != nil {
				return err
			}
			pending = append(pending, events.Event{
				Type:          events.WaitlistJoined,
				ReservationID: res.ID,
				UserID:        userID,
				SlotID:        slot.ID,
				Position:      pos,
				OccurredAt:    now,
			})
		}

		reservation = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	s.cache.Invalidate(ctx, path.cachePrefix)

	out := response.NewReservationResponse(reservation, isFreePractice)
	return &out, nil
}

// resolveTicket picks and row-locks the ticket to charge: bought for the
// booked lesson product, active, with sessions left, expiring soonest.
// Tickets whose derived status turned stale since the last write are
// corrected and skipped, so the loop shrinks the candidate set every pass.
func (s *reservationService) resolveTicket(ctx context.Context, userID, lessonProductID uuid.UUID, now time.Time) (*entity.Ticket, error) {
	for {
		ticket, err := s.repo.Ticket.FindQualifying(ctx, userID, lessonProductID)
		if err != nil {
			return nil, err
		}
		if ticket == nil {
			return nil, fmt.Errorf("user %s: %w", userID.String(), entity.ErrNoActiveTicket)
		}

		orderStatus, err := s.ticketOrderStatus(ctx, ticket)
		if err != nil {
			return nil, err
		}

		ticket.Recompute(now, orderStatus)
		if ticket.IsActive && ticket.Remaining() > 0 {
			return ticket, nil
		}

		ticket.UpdatedAt = now
		if err := s.repo.Ticket.Update(ctx, ticket); err != nil {
			return nil, err
		}
	}
}

func (s *reservationService) ticketOrderStatus(ctx context.Context, ticket *entity.Ticket) (entity.OrderStatus, error) {
	if ticket.OrderID == nil {
		return "", nil
	}
	order, err := s.repo.Order.FindByID(ctx, *ticket.OrderID)
	if err != nil {
		return "", err
	}
	if order == nil {
		return "", nil
	}
	return order.Status, nil
}

// checkDayOrder enforces that lesson days are booked in sequence: day d
// needs an active day d-1 reservation first. Theory sessions bypass the
// sequence entirely.
func (s *reservationService) checkDayOrder(ctx context.Context, userID uuid.UUID, req *request.ApplySessionRequest) error {
	if req.IsTheory {
		return nil
	}
	if req.DayOrder == nil {
		return entity.ErrMissingDayOrder
	}
	if *req.DayOrder <= 1 {
		return nil
	}

	has, err := s.repo.SessionReservation.HasReservedDay(ctx, userID, *req.DayOrder-1)
	if err != nil {
		return err
	}
	if !has {
		return fmt.Errorf("day %d requires day %d first: %w", *req.DayOrder, *req.DayOrder-1, entity.ErrDayOrderViolation)
	}
	return nil
}

func (s *reservationService) chargeTicket(ctx context.Context, ticket *entity.Ticket, now time.Time) error {
	if ticket.Remaining() == 0 {
		return fmt.Errorf("ticket %s: %w", ticket.ID.String(), entity.ErrTicketExhausted)
	}

	orderStatus, err := s.ticketOrderStatus(ctx, ticket)
	if err != nil {
		return err
	}

	ticket.SessionsUsed++
	ticket.Recompute(now, orderStatus)
	ticket.UpdatedAt = now
	return s.repo.Ticket.Update(ctx, ticket)
}

// refundTicket gives one session back on cancellation of a seated lesson
// reservation. Recompute may re-activate a ticket that FULLY_USED had
// deactivated.
func (s *reservationService) refundTicket(ctx context.Context, ticketID uuid.UUID, now time.Time) error {
	ticket, err := s.repo.Ticket.FindByIDForUpdate(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket == nil || ticket.SessionsUsed == 0 {
		return nil
	}

	orderStatus, err := s.ticketOrderStatus(ctx, ticket)
	if err != nil {
		return err
	}

	ticket.SessionsUsed--
	ticket.Recompute(now, orderStatus)
	ticket.UpdatedAt = now
	return s.repo.Ticket.Update(ctx, ticket)
}

func (s *reservationService) CancelSession(ctx context.Context, userID uuid.UUID, reservationID string, isFreePractice bool) (*response.CancelResponse, error) {
	resUUID, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, fmt.Errorf("invalid reservation ID format %s: %w", reservationID, err)
	}

	path := s.path(isFreePractice)

	var promoted *entity.Reservation
	var pending []events.Event

	err = s.runTx(ctx, func(ctx context.Context) error {
		promoted = nil
		pending = pending[:0]
		now := s.clock.Now()

		// Peek at the reservation to learn its slot, then lock the slot
		// and re-read under the lock.
		peek, err := path.reservations.FindByID(ctx, resUUID)
		if err != nil {
			return err
		}
		if peek == nil || peek.UserID != userID {
			return fmt.Errorf("reservation %s: %w", reservationID, entity.ErrReservationNotFound)
		}

		slot, err := path.slots.FindSlotForUpdate(ctx, peek.SlotID)
		if err != nil {
			return err
		}

		res, err := path.reservations.FindByID(ctx, resUUID)
		if err != nil {
			return err
		}
		if res == nil || res.Status != entity.ReservationStatusReserved {
			return fmt.Errorf("reservation %s: %w", reservationID, entity.ErrReservationNotFound)
		}

		if err := path.reservations.MarkCancelled(ctx, res.ID, now); err != nil {
			return err
		}
		pending = append(pending, events.Event{
			Type:          events.ReservationCancelled,
			ReservationID: res.ID,
			UserID:        userID,
			SlotID:        slot.ID,
			OccurredAt:    now,
		})

		if res.IsWaiting {
			// Waiting cancellations never touch the ledger or tickets;
			// just close the gap behind the vacated position.
			return path.reservations.CloseQueueGap(ctx, slot.ID, *res.QueuePosition)
		}

		if path.ticketBacked && res.TicketID != nil {
			if err := s.refundTicket(ctx, *res.TicketID, now); err != nil {
				return err
			}
		}

		if err := path.slots.DecrementBookings(ctx, slot.ID); err != nil {
			return err
		}

		// Re-read under the same lock: after a capacity shrink the slot may
		// still be over capacity even with this seat freed, and promotion
		// must wait for attrition instead of failing the cancel.
		freed, err := path.slots.FindSlotForUpdate(ctx, slot.ID)
		if err != nil {
			return err
		}
		if freed.HasRoom() {
			promoted, err = s.promoteNext(ctx, path, slot.ID, now, &pending)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	s.cache.Invalidate(ctx, path.cachePrefix)

	out := &response.CancelResponse{ReservationID: reservationID}
	if promoted != nil {
		out.Promoted = true
		out.PromotedID = promoted.ID.String()
	}
	return out, nil
}

// promoteNext seats the head of the waitlist into the freed spot. A waiter
// whose ticket can no longer be charged is cancelled and the next one is
// tried, so a freed spot never goes to someone who cannot pay for it.
func (s *reservationService) promoteNext(ctx context.Context, path bookingPath, slotID uuid.UUID, now time.Time, pending *[]events.Event) (*entity.Reservation, error) {
	for {
		waiter, err := path.reservations.FirstWaiting(ctx, slotID)
		if err != nil {
			return nil, err
		}
		if waiter == nil {
			return nil, nil
		}
		pos := *waiter.QueuePosition

		if path.ticketBacked && waiter.TicketID != nil {
			chargeable, err := s.tryChargeWaiter(ctx, waiter, now)
			if err != nil {
				return nil, err
			}
			if !chargeable {
				s.log.Info("Skipping waiter with unchargeable ticket",
					zap.String("reservation_id", waiter.ID.String()),
				)
				if err := path.reservations.MarkCancelled(ctx, waiter.ID, now); err != nil {
					return nil, err
				}
				if err := path.reservations.CloseQueueGap(ctx, slotID, pos); err != nil {
					return nil, err
				}
				*pending = append(*pending, events.Event{
					Type:          events.ReservationCancelled,
					ReservationID: waiter.ID,
					UserID:        waiter.UserID,
					SlotID:        slotID,
					OccurredAt:    now,
				})
				continue
			}
		}

		if err := path.reservations.Promote(ctx, waiter.ID); err != nil {
			return nil, err
		}
		if err := path.reservations.CloseQueueGap(ctx, slotID, pos); err != nil {
			return nil, err
		}
		if err := path.slots.IncrementBookings(ctx, slotID); err != nil {
			return nil, err
		}

		*pending = append(*pending, events.Event{
			Type:          events.WaitlistPromoted,
			ReservationID: waiter.ID,
			UserID:        waiter.UserID,
			SlotID:        slotID,
			OccurredAt:    now,
		})

		waiter.IsWaiting = false
		waiter.QueuePosition = nil
		return waiter, nil
	}
}

// tryChargeWaiter consumes one session from the waiter's ticket if it is
// still chargeable. Waitlist entries reserve no session up front; the
// charge happens here, at promotion.
func (s *reservationService) tryChargeWaiter(ctx context.Context, waiter *entity.Reservation, now time.Time) (bool, error) {
	ticket, err := s.repo.Ticket.FindByIDForUpdate(ctx, *waiter.TicketID)
	if err != nil {
		return false, err
	}
	if ticket == nil {
		return false, nil
	}

	orderStatus, err := s.ticketOrderStatus(ctx, ticket)
	if err != nil {
		return false, err
	}

	ticket.Recompute(now, orderStatus)
	if !ticket.IsActive || ticket.Remaining() == 0 {
		ticket.UpdatedAt = now
		if err := s.repo.Ticket.Update(ctx, ticket); err != nil {
			return false, err
		}
		return false, nil
	}

	ticket.SessionsUsed++
	ticket.Recompute(now, orderStatus)
	ticket.UpdatedAt = now
	if err := s.repo.Ticket.Update(ctx, ticket); err != nil {
		return false, err
	}
	return true, nil
}

func (s *reservationService) WaitingPosition(ctx context.Context, userID uuid.UUID, slotID string, isFreePractice bool) (*response.WaitingPositionResponse, error) {
	slotUUID, err := uuid.Parse(slotID)
	if err != nil {
		return nil, fmt.Errorf("invalid slot ID format %s: %w", slotID, err)
	}

	path := s.path(isFreePractice)

	res, err := path.reservations.FindActiveByUser(ctx, userID, slotUUID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("user %s on slot %s: %w", userID.String(), slotID, entity.ErrReservationNotFound)
	}
	if !res.IsWaiting || res.QueuePosition == nil {
		return nil, fmt.Errorf("user %s on slot %s: %w", userID.String(), slotID, entity.ErrNotWaiting)
	}

	total, err := path.reservations.CountWaiting(ctx, slotUUID)
	if err != nil {
		return nil, err
	}

	return &response.WaitingPositionResponse{
		SlotID:       slotID,
		Position:     *res.QueuePosition,
		TotalWaiting: total,
	}, nil
}

func (s *reservationService) MyReservations(ctx context.Context, userID uuid.UUID) (*response.MyReservationsResponse, error) {
	sessions, err := s.repo.SessionReservation.FindReservedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	practices, err := s.repo.PracticeReservation.FindReservedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &response.MyReservationsResponse{
		Sessions:  make([]response.ReservationResponse, 0, len(sessions)),
		Practices: make([]response.ReservationResponse, 0, len(practices)),
	}
	for _, res := range sessions {
		out.Sessions = append(out.Sessions, response.NewReservationResponse(res, false))
	}
	for _, res := range practices {
		out.Practices = append(out.Practices, response.NewReservationResponse(res, true))
	}
	return out, nil
}

func (s *reservationService) publish(ctx context.Context, pending []events.Event) {
	for _, ev := range pending {
		s.events.Publish(ctx, ev)
	}
}
