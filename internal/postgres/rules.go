package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"trainerbook/internal/database"
	"trainerbook/internal/models"
)

const ruleColumns = `id, trainer_id, day_of_week, specific_date, start_minute, end_minute,
	                 is_recurring, is_blocked, created_at`

func (s *Store) CreateRule(ctx context.Context, rule *models.AvailabilityRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	query := `INSERT INTO availability_rules
	          (trainer_id, day_of_week, specific_date, start_minute, end_minute, is_recurring, is_blocked)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at`
	err := s.pool.QueryRow(ctx, query,
		rule.TrainerID,
		rule.DayOfWeek,
		rule.SpecificDate,
		int(rule.StartMinute),
		int(rule.EndMinute),
		rule.IsRecurring,
		rule.IsBlocked,
	).Scan(&rule.ID, &rule.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create availability rule: %w", err)
	}
	return nil
}

func (s *Store) GetRule(ctx context.Context, id int64) (*models.AvailabilityRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM availability_rules WHERE id = $1`
	rule, err := scanRule(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, database.ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get availability rule: %w", err)
	}
	return rule, nil
}

func (s *Store) DeleteRule(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM availability_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete availability rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrRuleNotFound
	}
	return nil
}

func (s *Store) ListRules(ctx context.Context, trainerID int64) ([]*models.AvailabilityRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM availability_rules WHERE trainer_id = $1
	          ORDER BY is_recurring DESC, day_of_week, specific_date, start_minute`
	return s.queryRules(ctx, query, trainerID)
}

func (s *Store) ListRulesForDate(ctx context.Context, trainerID int64, date time.Time) ([]*models.AvailabilityRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM availability_rules
	          WHERE trainer_id = $1
	            AND ((is_recurring AND day_of_week = $2) OR (NOT is_recurring AND specific_date = $3))
	          ORDER BY start_minute`
	return s.queryRules(ctx, query, trainerID, int(date.Weekday()), date)
}

func (s *Store) queryRules(ctx context.Context, query string, args ...interface{}) ([]*models.AvailabilityRule, error) {
	rows, err := s.pool.Query(ctx, query, args...)
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

func scanRule(row pgx.Row) (*models.AvailabilityRule, error) {
	var (
		rule     models.AvailabilityRule
		startMin int
		endMin   int
	)
	err := row.Scan(
		&rule.ID, &rule.TrainerID, &rule.DayOfWeek, &rule.SpecificDate,
		&startMin, &endMin, &rule.IsRecurring, &rule.IsBlocked, &rule.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rule.StartMinute = models.TimeOfDay(startMin)
	rule.EndMinute = models.TimeOfDay(endMin)
	return &rule, nil
}
