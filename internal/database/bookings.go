package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"trainerbook/internal/domain"
	"trainerbook/internal/models"
	"trainerbook/internal/schedule"
)

const bookingColumns = `id, trainer_id, client_id, client_name, date, start_minute, end_minute,
	                 status, note, created_at, updated_at, version`

// CreateBookingWithLock inserts a pending booking inside a transaction,
// rejecting it when the interval overlaps a confirmed booking for the same
// trainer and date. Multiple pending bookings may overlap freely.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	if err := booking.Validate(); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 1. Check for a confirmed booking occupying the interval.
	var taken int
	queryTaken := `SELECT COUNT(*) FROM bookings
	               WHERE trainer_id = ? AND date = ? AND status = ?
	                 AND start_minute < ? AND ? < end_minute`
	err = tx.QueryRowContext(ctx, queryTaken,
		booking.TrainerID,
		booking.Date.Format(dateLayout),
		models.StatusConfirmed,
		int(booking.EndMinute),
		int(booking.StartMinute),
	).Scan(&taken)
	if err != nil {
		return fmt.Errorf("failed to check confirmed overlap in tx: %w", err)
	}
	if taken > 0 {
		return ErrSlotTaken
	}

	// 2. Insert the request.
	queryInsert := `INSERT INTO bookings (
				trainer_id, client_id, client_name, date, start_minute, end_minute,
				status, note, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, queryInsert,
		booking.TrainerID,
		booking.ClientID,
		booking.ClientName,
		booking.Date.Format(dateLayout),
		int(booking.StartMinute),
		int(booking.EndMinute),
		booking.Status,
		booking.Note,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1

	return tx.Commit()
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// ListBookings returns a trainer's bookings for one date, optionally
// filtered by status, ordered by start time then creation time.
func (db *DB) ListBookings(ctx context.Context, trainerID int64, date time.Time, statuses ...string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE trainer_id = ? AND date = ?`
	args := []interface{}{trainerID, date.Format(dateLayout)}

	if len(statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(", ?", len(statuses)-1) + `)`
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	query += ` ORDER BY start_minute, created_at`

	return db.queryBookings(ctx, query, args...)
}

func (db *DB) ListBookingsByDateRange(ctx context.Context, trainerID int64, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE trainer_id = ? AND date >= ? AND date <= ?
              ORDER BY date, start_minute`
	return db.queryBookings(ctx, query, trainerID, start.Format(dateLayout), end.Format(dateLayout))
}

func (db *DB) GetClientBookings(ctx context.Context, clientID int64) ([]*models.Booking, error) {
	// Last two weeks and everything upcoming.
	cutoff := time.Now().AddDate(0, 0, -14).Format(dateLayout)
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE client_id = ? AND date >= ? ORDER BY date DESC, start_minute`
	return db.queryBookings(ctx, query, clientID, cutoff)
}

// ConfirmBookingCascade flips one pending booking to confirmed and cancels
// every other pending booking for the same trainer/date whose interval
// overlaps it, in a single transaction. Either the whole cascade commits or
// nothing changes.
//
// A zero version skips the optimistic check and confirms whatever version
// is current.
func (db *DB) ConfirmBookingCascade(ctx context.Context, bookingID, version int64) (*domain.ConfirmResult, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	target, err := scanBooking(tx.QueryRowContext(ctx, query, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking in tx: %w", err)
	}

	if target.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: status is %q, want %q", ErrInvalidStatus, target.Status, models.StatusPending)
	}
	if version == 0 {
		version = target.Version
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		models.StatusConfirmed, now, bookingID, version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, ErrConcurrentModification
	}
	target.Status = models.StatusConfirmed
	target.Version = version + 1
	target.UpdatedAt = now

	// Sibling pending requests for the same trainer and date; the ones that
	// overlap the confirmed interval lose.
	siblings, err := db.queryBookingsTx(ctx, tx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE trainer_id = ? AND date = ? AND status = ? AND id != ?`,
		target.TrainerID, target.Date.Format(dateLayout), models.StatusPending, target.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load sibling bookings in tx: %w", err)
	}

	confirmedIv := schedule.Interval{Start: target.StartMinute, End: target.EndMinute}
	var cancelled []*models.Booking
	for _, sibling := range siblings {
		siblingIv := schedule.Interval{Start: sibling.StartMinute, End: sibling.EndMinute}
		if !confirmedIv.Overlaps(siblingIv) {
			continue
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
			models.StatusCancelled, now, sibling.ID, sibling.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to cancel overlapping booking %d: %w", sibling.ID, err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return nil, ErrConcurrentModification
		}

		sibling.Status = models.StatusCancelled
		sibling.Version++
		sibling.UpdatedAt = now
		cancelled = append(cancelled, sibling)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit confirmation: %w", err)
	}
	return &domain.ConfirmResult{Confirmed: target, Cancelled: cancelled}, nil
}

// UpdateBookingStatusWithVersion applies a single status transition with an
// optimistic version check. fromStatus guards the state machine: the update
// only applies when the booking is still in that status.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, fromStatus, toStatus string) error {
	booking, err := db.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if booking.Status != fromStatus {
		return fmt.Errorf("%w: status is %q, want %q", ErrInvalidStatus, booking.Status, fromStatus)
	}
	if version == 0 {
		version = booking.Version
	}

	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
	          WHERE id = ? AND version = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, toStatus, time.Now(), id, version, fromStatus)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// CompletePastBookings marks confirmed sessions on dates before the cutoff
// as completed. Returns the number of rows changed.
func (db *DB) CompletePastBookings(ctx context.Context, before time.Time) (int64, error) {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
	          WHERE status = ? AND date < ?`
	result, err := db.ExecContext(ctx, query,
		models.StatusCompleted, time.Now(), models.StatusConfirmed, before.Format(dateLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to complete past bookings: %w", err)
	}
	return result.RowsAffected()
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (db *DB) queryBookingsTx(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func collectBookings(rows *sql.Rows) ([]*models.Booking, error) {
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

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b        models.Booking
		dateStr  string
		startMin int
		endMin   int
	)
	err := row.Scan(
		&b.ID, &b.TrainerID, &b.ClientID, &b.ClientName, &dateStr,
		&startMin, &endMin, &b.Status, &b.Note,
		&b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}

	b.StartMinute = models.TimeOfDay(startMin)
	b.EndMinute = models.TimeOfDay(endMin)
	b.Date, err = time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
	}
	return &b, nil
}
