package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/MalithGihan/flowviz-service/internal/graphsvc"
	"github.com/MalithGihan/flowviz-service/internal/render"
	"github.com/MalithGihan/flowviz-service/internal/session"
	"github.com/MalithGihan/flowviz-service/internal/validate"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// classify maps an error to an HTTP status and a message safe to show the client.
func classify(err error) (int, string) {
	var (
		statusErr *graphsvc.StatusError
		tooLarge  *http.MaxBytesError
	)
	switch {
	case errors.Is(err, graphsvc.ErrInvalidGraph):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, validate.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, render.ErrUnsupportedFormat):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, graphsvc.ErrGraphNotBuilt):
		return http.StatusNotFound, "graph not built yet, upload a CSV file first"
	case errors.Is(err, graphsvc.ErrUnavailable):
		return http.StatusServiceUnavailable, "graph service unavailable"
	case errors.As(err, &statusErr):
		return http.StatusBadGateway, statusErr.Error()
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "upload exceeds the size limit"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := classify(err)
	fields := []zap.Field{
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("requestID", middleware.GetReqID(r.Context())),
		zap.Error(err),
	}
	if status >= 500 {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Debug("request rejected", fields...)
	}
	respondJSON(w, status, errorBody{Error: msg})
}
