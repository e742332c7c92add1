package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/lending-service/internal/service"
)

type Handler struct {
	svc *service.RateService
	log *logrus.Logger
}

func NewHandler(svc *service.RateService, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register mounts the rate routes on r
func (h *Handler) Register(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/rates/{type}", h.GetRateByType).Methods(http.MethodGet)
}

// GetRateByType handles GET /api/rates/{type}
func (h *Handler) GetRateByType(w http.ResponseWriter, r *http.Request) {
	rateType := mux.Vars(r)["type"]

	rate, err := h.svc.GetRateByType(r.Context(), rateType)
	if err != nil {
		var notFound *service.RateNotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, notFound.Error())
			return
		}
		h.log.WithError(err).WithField("type", rateType).Error("Failed to get rate")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, rate)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
