package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/linnoak/teamboard-api/internal/payload"
	"github.com/linnoak/teamboard-api/internal/usecase"
	sharedvalidator "github.com/linnoak/teamboard-api/shared/validator"
)

// DeviceHandler serves push device registration.
type DeviceHandler struct {
	notificationUsecase usecase.NotificationUsecase
	validator           *sharedvalidator.Validator
	logger              *zerolog.Logger
}

// NewDeviceHandler creates a new DeviceHandler instance.
func NewDeviceHandler(
	notificationUsecase usecase.NotificationUsecase,
	validator *sharedvalidator.Validator,
	logger *zerolog.Logger,
) *DeviceHandler {
	return &DeviceHandler{
		notificationUsecase: notificationUsecase,
		validator:           validator,
		logger:              logger,
	}
}

// Routes mounts the handler under /api/devices.
func (h *DeviceHandler) Routes(r chi.Router) {
	r.Post("/", h.Register)
}

func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, payload.StatusResponse{Error: "not authenticated"})
		return
	}

	var req payload.RegisterDeviceRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, payload.StatusResponse{Error: err.Error()})
		return
	}

	err := h.notificationUsecase.RegisterDevice(r.Context(), usecase.RegisterDeviceParams{
		UserID:   actor.UserID,
		Token:    req.Token,
		Platform: req.Platform,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to register device")
		respondJSON(w, http.StatusInternalServerError, payload.StatusResponse{Error: "something went wrong"})
		return
	}

	respondJSON(w, http.StatusCreated, payload.StatusResponse{Success: true})
}
