package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/rshade/footprint-estimator/internal/carbon"
	"github.com/rshade/footprint-estimator/internal/history"
)

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleQuick(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var in carbon.QuickInput
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result := s.quick.Estimate(r.Context(), in)
	s.finish(w, r, userID, in, result)
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var in carbon.DetailedInput
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.detailed.Estimate(r.Context(), in)
	if err != nil {
		var verr *carbon.ValidationError
		if errors.As(err, &verr) {
			if s.metrics != nil {
				s.metrics.ObserveValidationError(verr.Field)
			}
			s.writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("detailed estimate failed")
		s.writeError(w, r, http.StatusInternalServerError, "calculation failed")
		return
	}

	s.finish(w, r, userID, in, result)
}

// finish persists the estimate and writes it back to the caller.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, userID string, in carbon.Input, result carbon.Result) {
	logger := s.requestLogger(r)

	record, err := history.NewRecord(userID, in, result)
	if err == nil {
		err = s.history.Save(r.Context(), record)
	}
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("saving estimate failed")
		s.writeError(w, r, http.StatusInternalServerError, "failed to save estimate")
		return
	}

	if s.metrics != nil {
		s.metrics.ObserveEstimate(result)
	}
	logger.Info().
		Str("mode", string(result.Mode)).
		Str("user_id", userID).
		Float64("total", result.Total).
		Msg("estimate computed")

	s.writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}

	records, err := s.history.ListByUser(r.Context(), userID, limit)
	if err != nil {
		s.requestLogger(r).Error().Err(err).Str("user_id", userID).Msg("listing history failed")
		s.writeError(w, r, http.StatusInternalServerError, "failed to load history")
		return
	}
	s.writeJSON(w, r, http.StatusOK, records)
}

func (s *Server) handleCoefficients(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.source.Current(r.Context()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(UserIDHeader)
	if userID == "" {
		s.writeError(w, r, http.StatusUnauthorized, "login required")
		return "", false
	}
	return userID, true
}

// decodeBody decodes a single JSON value from the request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("reading request body: %w", err)
	}
	if len(body) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.requestLogger(r).Error().Err(err).Msg("encoding response failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.requestLogger(r).Debug().Err(err).Msg("writing response failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, errorResponse{Error: msg})
}
