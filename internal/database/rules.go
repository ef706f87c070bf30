package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trainerbook/internal/models"
)

func (db *DB) CreateRule(ctx context.Context, rule *models.AvailabilityRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	var dateStr *string
	if rule.SpecificDate != nil {
		s := rule.SpecificDate.Format(dateLayout)
		dateStr = &s
	}

	query := `INSERT INTO availability_rules (
				trainer_id, day_of_week, specific_date, start_minute, end_minute,
				is_recurring, is_blocked, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		rule.TrainerID,
		rule.DayOfWeek,
		dateStr,
		int(rule.StartMinute),
		int(rule.EndMinute),
		rule.IsRecurring,
		rule.IsBlocked,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create availability rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rule.ID = id
	rule.CreatedAt = now
	return nil
}

func (db *DB) GetRule(ctx context.Context, id int64) (*models.AvailabilityRule, error) {
	query := `SELECT id, trainer_id, day_of_week, specific_date, start_minute, end_minute,
	                 is_recurring, is_blocked, created_at
              FROM availability_rules WHERE id = ?`
	rule, err := scanRule(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get availability rule: %w", err)
	}
	return rule, nil
}

func (db *DB) DeleteRule(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM availability_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete availability rule: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func (db *DB) ListRules(ctx context.Context, trainerID int64) ([]*models.AvailabilityRule, error) {
	query := `SELECT id, trainer_id, day_of_week, specific_date, start_minute, end_minute,
	                 is_recurring, is_blocked, created_at
              FROM availability_rules WHERE trainer_id = ?
              ORDER BY is_recurring DESC, day_of_week, specific_date, start_minute`
	return db.queryRules(ctx, query, trainerID)
}

// ListRulesForDate returns only the rules that can contribute to the given
// date: recurring rules on its weekday plus one-off rules on the exact date.
func (db *DB) ListRulesForDate(ctx context.Context, trainerID int64, date time.Time) ([]*models.AvailabilityRule, error) {
	query := `SELECT id, trainer_id, day_of_week, specific_date, start_minute, end_minute,
	                 is_recurring, is_blocked, created_at
              FROM availability_rules
              WHERE trainer_id = ?
                AND ((is_recurring = 1 AND day_of_week = ?) OR (is_recurring = 0 AND specific_date = ?))
              ORDER BY start_minute`
	return db.queryRules(ctx, query, trainerID, int(date.Weekday()), date.Format(dateLayout))
}

func (db *DB) queryRules(ctx context.Context, query string, args ...interface{}) ([]*models.AvailabilityRule, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.AvailabilityRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan availability rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner) (*models.AvailabilityRule, error) {
	var (
		rule     models.AvailabilityRule
		dateStr  sql.NullString
		startMin int
		endMin   int
	)
	err := row.Scan(
		&rule.ID, &rule.TrainerID, &rule.DayOfWeek, &dateStr,
		&startMin, &endMin, &rule.IsRecurring, &rule.IsBlocked, &rule.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.StartMinute = models.TimeOfDay(startMin)
	rule.EndMinute = models.TimeOfDay(endMin)
	if dateStr.Valid {
		date, err := time.Parse(dateLayout, dateStr.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rule date %s: %w", dateStr.String, err)
		}
		rule.SpecificDate = &date
	}
	return &rule, nil
}
