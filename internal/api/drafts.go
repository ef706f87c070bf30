package api

import (
	"errors"
	"net/http"
	"time"

	"trainerbook/internal/metrics"
	"trainerbook/internal/models"
	"trainerbook/internal/service"
)

func (s *HTTPServer) handleStartDraft(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("start_draft")

	clientID, err := pathID(r, "clientID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	type request struct {
		TrainerID int64 `json:"trainer_id"`
	}
	var body request
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.TrainerID <= 0 {
		writeError(w, http.StatusBadRequest, "trainer_id is required")
		return
	}

	draft, err := s.drafts.StartDraft(r.Context(), clientID, body.TrainerID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

func (s *HTTPServer) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_draft")

	clientID, err := pathID(r, "clientID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	draft, err := s.drafts.GetDraft(r.Context(), clientID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if draft == nil {
		writeError(w, http.StatusNotFound, service.ErrNoDraft.Error())
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// handleUpdateDraft applies one wizard selection per call. Fields are checked
// in wizard order, the first one present wins.
func (s *HTTPServer) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("update_draft")

	clientID, err := pathID(r, "clientID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	type request struct {
		Date            string `json:"date,omitempty"`
		DurationMinutes int    `json:"duration_minutes,omitempty"`
		Start           string `json:"start,omitempty"`
	}
	var body request
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var draft *models.BookingDraft
	switch {
	case body.Date != "":
		date, err := time.Parse(dateLayout, body.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
			return
		}
		draft, err = s.drafts.SetDate(r.Context(), clientID, date)
		if err != nil {
			s.writeDraftError(w, err)
			return
		}
	case body.DurationMinutes != 0:
		draft, err = s.drafts.SetDuration(r.Context(), clientID, body.DurationMinutes)
		if err != nil {
			s.writeDraftError(w, err)
			return
		}
	case body.Start != "":
		start, err := models.ParseClock(body.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		draft, err = s.drafts.SetStart(r.Context(), clientID, start)
		if err != nil {
			s.writeDraftError(w, err)
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

func (s *HTTPServer) handleClearDraft(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("clear_draft")

	clientID, err := pathID(r, "clientID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.drafts.ClearDraft(r.Context(), clientID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) writeDraftError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrNoDraft) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeServiceError(w, err)
}
