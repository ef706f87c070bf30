package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"trainerbook/internal/database"
	"trainerbook/internal/domain"
	"trainerbook/internal/export"
	"trainerbook/internal/metrics"
	"trainerbook/internal/models"
	"trainerbook/internal/schedule"
)

const dateLayout = "2006-01-02"

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")

	trainerID, err := pathID(r, "trainerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := queryDate(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	windows, err := s.availability.ResolveAvailability(r.Context(), trainerID, date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"trainer_id": trainerID,
		"date":       date.Format(dateLayout),
		"windows":    windows,
	})
}

func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots")

	trainerID, err := pathID(r, "trainerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := queryDate(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	duration := s.bookingCfg.DefaultSessionMinutes
	if raw := strings.TrimSpace(r.URL.Query().Get("duration")); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid duration; expected minutes")
			return
		}
	}

	granularity := s.bookingCfg.GranularityMinutes
	if raw := strings.TrimSpace(r.URL.Query().Get("granularity")); raw != "" {
		granularity, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid granularity; expected minutes")
			return
		}
	}

	slots, err := s.availability.GetSlots(r.Context(), trainerID, date, duration, granularity)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"trainer_id":       trainerID,
		"date":             date.Format(dateLayout),
		"duration_minutes": duration,
		"slots":            slots,
	})
}

func (s *HTTPServer) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_rule")

	trainerID, err := pathID(r, "trainerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	type request struct {
		DayOfWeek    int    `json:"day_of_week"`
		SpecificDate string `json:"specific_date"`
		Start        string `json:"start"`
		End          string `json:"end"`
		IsRecurring  bool   `json:"is_recurring"`
		IsBlocked    bool   `json:"is_blocked"`
	}

	var body request
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start, err := models.ParseClock(body.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := models.ParseClock(body.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rule := &models.AvailabilityRule{
		TrainerID:   trainerID,
		DayOfWeek:   body.DayOfWeek,
		StartMinute: start,
		EndMinute:   end,
		IsRecurring: body.IsRecurring,
		IsBlocked:   body.IsBlocked,
	}
	if body.SpecificDate != "" {
		date, err := time.Parse(dateLayout, body.SpecificDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid specific_date; expected YYYY-MM-DD")
			return
		}
		rule.SpecificDate = &date
	}

	if err := s.availability.CreateRule(r.Context(), rule); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rule)
}

func (s *HTTPServer) handleListRules(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_rules")

	trainerID, err := pathID(r, "trainerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rules, err := s.availability.ListRules(r.Context(), trainerID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

func (s *HTTPServer) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("delete_rule")

	trainerID, err := pathID(r, "trainerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ruleID, err := pathID(r, "ruleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.availability.DeleteRule(r.Context(), ruleID, trainerID); err != nil {
		s.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleRuleOccurrences(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("rule_occurrences")

	ruleID, err := pathID(r, "ruleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	from := time.Now()
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		from, err = time.Parse(dateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from; expected YYYY-MM-DD")
			return
		}
	}

	count := 10
	if raw := strings.TrimSpace(r.URL.Query().Get("count")); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil || count <= 0 || count > 100 {
			writeError(w, http.StatusBadRequest, "invalid count; expected 1..100")
			return
		}
	}

	occurrences, err := s.availability.RuleOccurrences(r.Context(), ruleID, from, count)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	dates := make([]string, 0, len(occurrences))
	for _, occ := range occurrences {
		dates = append(dates, occ.Format(dateLayout))
	}
	writeJSON(w, http.StatusOK, map[string]any{"rule_id": ruleID, "occurrences": dates})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")

	type request struct {
		TrainerID       int64  `json:"trainer_id"`
		ClientID        int64  `json:"client_id"`
		ClientName      string `json:"client_name"`
		Date            string `json:"date"`
		Start           string `json:"start"`
		DurationMinutes int    `json:"duration_minutes"`
		Note            string `json:"note"`
	}

	var body request
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.state != nil && s.bookingCfg.RateLimitRequests > 0 {
		window := time.Duration(s.bookingCfg.RateLimitWindow) * time.Second
		key := fmt.Sprintf("client:%d", body.ClientID)
		allowed, err := s.state.CheckRateLimit(r.Context(), key, s.bookingCfg.RateLimitRequests, window)
		if err != nil {
			s.log.Warn().Err(err).Int64("client_id", body.ClientID).Msg("rate limit check failed")
		} else if !allowed {
			writeError(w, http.StatusTooManyRequests, "too many booking requests")
			return
		}
	}

	date, err := time.Parse(dateLayout, body.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}
	start, err := models.ParseClock(body.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	duration := body.DurationMinutes
	if duration == 0 {
		duration = s.bookingCfg.DefaultSessionMinutes
	}

	booking := &models.Booking{
		TrainerID:   body.TrainerID,
		ClientID:    body.ClientID,
		ClientName:  body.ClientName,
		Date:        date,
		StartMinute: start,
		EndMinute:   start + models.TimeOfDay(duration),
		Note:        body.Note,
	}

	if err := s.bookings.CreateBooking(r.Context(), booking); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, bookingPayload(booking))
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_booking")

	bookingID, err := pathID(r, "bookingID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), bookingID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bookingPayload(booking))
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_bookings")

	trainerID, err := parseID(r.URL.Query().Get("trainer_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "trainer_id is required")
		return
	}
	date, err := queryDate(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	statuses := splitCSV(r.URL.Query().Get("status"))
	bookings, err := s.bookings.ListBookings(r.Context(), trainerID, date, statuses...)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	payload := make([]map[string]any, 0, len(bookings))
	for _, b := range bookings {
		payload = append(payload, bookingPayload(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": payload})
}

func (s *HTTPServer) handleConfirm(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("confirm_booking")

	bookingID, version, err := transitionRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.bookings.ConfirmBooking(r.Context(), bookingID, version)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	cancelled := make([]map[string]any, 0, len(result.Cancelled))
	for _, b := range result.Cancelled {
		cancelled = append(cancelled, bookingPayload(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"confirmed": bookingPayload(result.Confirmed),
		"cancelled": cancelled,
	})
}

func (s *HTTPServer) transitionHandler(fn func(domain.BookingService, context.Context, int64, int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.IncHTTP("booking_transition")

		bookingID, version, err := transitionRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := fn(s.bookings, r.Context(), bookingID, version); err != nil {
			s.writeServiceError(w, err)
			return
		}

		booking, err := s.bookings.GetBooking(r.Context(), bookingID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bookingPayload(booking))
	}
}

func (s *HTTPServer) handleBookingsExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_export")

	trainerID, err := pathID(r, "trainerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := queryDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := s.bookings.ListBookingsByDateRange(r.Context(), trainerID, start, end)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	buf, err := export.BookingsWorkbook(trainerID, start, end, bookings)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	filename := fmt.Sprintf("bookings_%d_%s.xlsx", trainerID, start.Format(dateLayout))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(buf.Bytes())
}

func (s *HTTPServer) handleCalendarFeed(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("calendar_feed")

	trainerID, err := pathID(r, "trainerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := queryDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := s.bookings.ListBookingsByDateRange(r.Context(), trainerID, start, end)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	feed := export.CalendarFeed(trainerID, bookings, time.UTC)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = w.Write([]byte(feed))
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps domain sentinel errors onto HTTP status codes.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	statusCode := statusFromError(err)
	if statusCode == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("internal error")
		writeError(w, statusCode, "internal error")
		return
	}
	writeError(w, statusCode, err.Error())
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidRule),
		errors.Is(err, models.ErrInvalidBooking),
		errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, schedule.ErrInvalidDuration),
		errors.Is(err, schedule.ErrInvalidGranularity),
		errors.Is(err, database.ErrPastDate),
		errors.Is(err, database.ErrDateTooFar):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrRuleNotFound),
		errors.Is(err, database.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrSlotTaken),
		errors.Is(err, database.ErrConcurrentModification),
		errors.Is(err, database.ErrInvalidStatus),
		errors.Is(err, database.ErrOutsideAvailability):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func bookingPayload(b *models.Booking) map[string]any {
	return map[string]any{
		"id":           b.ID,
		"trainer_id":   b.TrainerID,
		"client_id":    b.ClientID,
		"client_name":  b.ClientName,
		"date":         b.Date.Format(dateLayout),
		"start":        b.StartMinute.Clock(),
		"end":          b.EndMinute.Clock(),
		"start_minute": int(b.StartMinute),
		"end_minute":   int(b.EndMinute),
		"status":       b.Status,
		"note":         b.Note,
		"version":      b.Version,
	}
}

func transitionRequest(r *http.Request) (bookingID, version int64, err error) {
	bookingID, err = pathID(r, "bookingID")
	if err != nil {
		return 0, 0, err
	}

	type request struct {
		Version int64 `json:"version"`
	}
	var body request
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeBody(r, &body); err != nil {
			return 0, 0, err
		}
	}
	return bookingID, body.Version, nil
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := parseID(r.PathValue(name))
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id")
	}
	return id, nil
}

func queryDate(r *http.Request, name string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s; expected YYYY-MM-DD", name)
	}
	return date, nil
}

func queryDateRange(r *http.Request) (start, end time.Time, err error) {
	start, err = queryDate(r, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = queryDate(r, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("to must not be before from")
	}
	return start, end, nil
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
