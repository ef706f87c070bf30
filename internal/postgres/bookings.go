package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"trainerbook/internal/database"
	"trainerbook/internal/domain"
	"trainerbook/internal/models"
	"trainerbook/internal/schedule"
)

const bookingColumns = `id, trainer_id, client_id, client_name, date, start_minute, end_minute,
	                 status, note, created_at, updated_at, version`

func (s *Store) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	if err := booking.Validate(); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var taken int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE trainer_id = $1 AND date = $2 AND status = $3
		   AND start_minute < $4 AND $5 < end_minute`,
		booking.TrainerID, booking.Date, models.StatusConfirmed,
		int(booking.EndMinute), int(booking.StartMinute),
	).Scan(&taken)
	if err != nil {
		return fmt.Errorf("failed to check confirmed overlap in tx: %w", err)
	}
	if taken > 0 {
		return database.ErrSlotTaken
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO bookings (trainer_id, client_id, client_name, date, start_minute, end_minute, status, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at, version`,
		booking.TrainerID, booking.ClientID, booking.ClientName, booking.Date,
		int(booking.StartMinute), int(booking.EndMinute), booking.Status, booking.Note,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt, &booking.Version)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *Store) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := scanBooking(s.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, database.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (s *Store) ListBookings(ctx context.Context, trainerID int64, date time.Time, statuses ...string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE trainer_id = $1 AND date = $2`
	args := []interface{}{trainerID, date}
	if len(statuses) > 0 {
		query += ` AND status = ANY($3)`
		args = append(args, statuses)
	}
	query += ` ORDER BY start_minute, created_at`
	return s.queryBookings(ctx, query, args...)
}

func (s *Store) ListBookingsByDateRange(ctx context.Context, trainerID int64, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE trainer_id = $1 AND date >= $2 AND date <= $3
	          ORDER BY date, start_minute`
	return s.queryBookings(ctx, query, trainerID, start, end)
}

func (s *Store) GetClientBookings(ctx context.Context, clientID int64) ([]*models.Booking, error) {
	cutoff := time.Now().AddDate(0, 0, -14)
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE client_id = $1 AND date >= $2 ORDER BY date DESC, start_minute`
	return s.queryBookings(ctx, query, clientID, cutoff)
}

// ConfirmBookingCascade runs the confirmation state machine in one
// transaction, locking the trainer's rows for the date with FOR UPDATE so
// racing confirmations serialize.
func (s *Store) ConfirmBookingCascade(ctx context.Context, bookingID, version int64) (*domain.ConfirmResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	target, err := scanBooking(tx.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, bookingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, database.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking in tx: %w", err)
	}

	if target.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: status is %q, want %q", database.ErrInvalidStatus, target.Status, models.StatusPending)
	}
	if version == 0 {
		version = target.Version
	}

	now := time.Now()
	tag, err := tx.Exec(ctx,
		`UPDATE bookings SET status = $1, version = version + 1, updated_at = $2 WHERE id = $3 AND version = $4`,
		models.StatusConfirmed, now, bookingID, version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, database.ErrConcurrentModification
	}
	target.Status = models.StatusConfirmed
	target.Version = version + 1
	target.UpdatedAt = now

	rows, err := tx.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE trainer_id = $1 AND date = $2 AND status = $3 AND id != $4
		 FOR UPDATE`,
		target.TrainerID, target.Date, models.StatusPending, target.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load sibling bookings in tx: %w", err)
	}
	siblings, err := collectBookings(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sibling bookings: %w", err)
	}

	confirmedIv := schedule.Interval{Start: target.StartMinute, End: target.EndMinute}
	var cancelled []*models.Booking
	for _, sibling := range siblings {
		siblingIv := schedule.Interval{Start: sibling.StartMinute, End: sibling.EndMinute}
		if !confirmedIv.Overlaps(siblingIv) {
			continue
		}

		tag, err := tx.Exec(ctx,
			`UPDATE bookings SET status = $1, version = version + 1, updated_at = $2 WHERE id = $3 AND version = $4`,
			models.StatusCancelled, now, sibling.ID, sibling.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to cancel overlapping booking %d: %w", sibling.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return nil, database.ErrConcurrentModification
		}

		sibling.Status = models.StatusCancelled
		sibling.Version++
		sibling.UpdatedAt = now
		cancelled = append(cancelled, sibling)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit confirmation: %w", err)
	}
	return &domain.ConfirmResult{Confirmed: target, Cancelled: cancelled}, nil
}

func (s *Store) UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, fromStatus, toStatus string) error {
	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if booking.Status != fromStatus {
		return fmt.Errorf("%w: status is %q, want %q", database.ErrInvalidStatus, booking.Status, fromStatus)
	}
	if version == 0 {
		version = booking.Version
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE bookings SET status = $1, version = version + 1, updated_at = $2
		 WHERE id = $3 AND version = $4 AND status = $5`,
		toStatus, time.Now(), id, version, fromStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrConcurrentModification
	}
	return nil
}

func (s *Store) CompletePastBookings(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE bookings SET status = $1, version = version + 1, updated_at = $2
		 WHERE status = $3 AND date < $4`,
		models.StatusCompleted, time.Now(), models.StatusConfirmed, before,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to complete past bookings: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]*models.Booking, error) {
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var (
		b        models.Booking
		startMin int
		endMin   int
	)
	err := row.Scan(
		&b.ID, &b.TrainerID, &b.ClientID, &b.ClientName, &b.Date,
		&startMin, &endMin, &b.Status, &b.Note,
		&b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	b.StartMinute = models.TimeOfDay(startMin)
	b.EndMinute = models.TimeOfDay(endMin)
	return &b, nil
}
