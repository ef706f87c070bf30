package google

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trainerbook/internal/models"
)

func TestBookingRowValues(t *testing.T) {
	booking := &models.Booking{
		ID:          7,
		TrainerID:   1,
		ClientID:    100,
		ClientName:  "Anna",
		Date:        time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		StartMinute: 600,
		EndMinute:   690,
		Status:      models.StatusConfirmed,
		Note:        "first session",
		CreatedAt:   time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 9, 2, 11, 0, 0, 0, time.UTC),
	}

	row := bookingRowValues(booking)
	if len(row) != 11 {
		t.Fatalf("expected 11 columns, got %d", len(row))
	}
	if row[4] != "2026-09-15" {
		t.Errorf("expected date column 2026-09-15, got %v", row[4])
	}
	if row[5] != "10:00" || row[6] != "11:30" {
		t.Errorf("expected clock columns 10:00/11:30, got %v/%v", row[5], row[6])
	}
	if row[7] != models.StatusConfirmed {
		t.Errorf("expected status column confirmed, got %v", row[7])
	}
}

func TestRowCache(t *testing.T) {
	s := &SheetsService{rowCache: make(map[int64]int)}

	if _, ok := s.getCachedRow(1); ok {
		t.Fatalf("expected empty cache")
	}

	s.setCachedRow(1, 5)
	row, ok := s.getCachedRow(1)
	if !ok || row != 5 {
		t.Fatalf("expected cached row 5, got %d (%v)", row, ok)
	}

	s.ClearCache()
	if _, ok := s.getCachedRow(1); ok {
		t.Fatalf("expected cache cleared")
	}
}

func TestGetServiceAccountEmail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "creds.json")

	creds := map[string]string{
		"type":         "service_account",
		"client_email": "svc@project.iam.gserviceaccount.com",
	}
	data, _ := json.Marshal(creds)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write creds: %v", err)
	}

	s := &SheetsService{}
	email, err := s.GetServiceAccountEmail(path)
	if err != nil {
		t.Fatalf("get email: %v", err)
	}
	if email != "svc@project.iam.gserviceaccount.com" {
		t.Errorf("unexpected email %s", email)
	}
}
