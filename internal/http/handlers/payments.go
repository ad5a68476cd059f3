package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"payhook/internal/domain/payment"
	"payhook/internal/services/data"
	"payhook/internal/store/repositories"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// GetPayment returns the stored record for {reference}.
func GetPayment(dataService *data.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := chi.URLParam(r, "reference")

		rec, err := dataService.GetPayment(r.Context(), ref)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				http.Error(w, "payment not found", http.StatusNotFound)
				return
			}
			zerolog.Ctx(r.Context()).Error().Err(err).Str("reference", ref).Msg("get payment failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// ListPayments handles payment listing requests using the data service
func ListPayments(dataService *data.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseListRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		response, err := dataService.ListPayments(r.Context(), req)
		if err != nil {
			var verr *data.ValidationError
			if errors.As(err, &verr) {
				http.Error(w, verr.Error(), http.StatusBadRequest)
				return
			}
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("list payments failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, response)
	}
}

func parseListRequest(r *http.Request) (data.ListRequest, error) {
	q := r.URL.Query()
	req := data.ListRequest{Status: payment.Status(q.Get("status"))}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, errors.New("limit must be an integer")
		}
		req.Limit = n
	}
	if v := q.Get("before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return req, errors.New("before must be an RFC3339 timestamp")
		}
		req.Before = t
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
