package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/linnoak/teamboard-api/internal/payload"
	"github.com/linnoak/teamboard-api/internal/usecase"
	sharedvalidator "github.com/linnoak/teamboard-api/shared/validator"
)

// AuthHandler serves the authentication endpoints: register, login and the
// three-step password reset flow.
type AuthHandler struct {
	authUsecase  usecase.AuthUsecase
	resetUsecase usecase.PasswordResetUsecase
	validator    *sharedvalidator.Validator
	logger       *zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(
	authUsecase usecase.AuthUsecase,
	resetUsecase usecase.PasswordResetUsecase,
	validator *sharedvalidator.Validator,
	logger *zerolog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authUsecase:  authUsecase,
		resetUsecase: resetUsecase,
		validator:    validator,
		logger:       logger,
	}
}

// Routes mounts the handler under /auth.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/verify-code", h.VerifyCode)
	r.Post("/reset-password", h.ResetPassword)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, payload.TokenResponse{Error: err.Error()})
		return
	}

	accessToken, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrUserAlreadyExists) {
			respondJSON(w, http.StatusConflict, payload.TokenResponse{Error: "user already exists"})
			return
		}

		h.logger.Error().Err(err).Msg("failed to register user")
		respondJSON(w, http.StatusInternalServerError, payload.TokenResponse{Error: "something went wrong"})
		return
	}

	respondJSON(w, http.StatusCreated, payload.TokenResponse{Success: true, AccessToken: accessToken})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, payload.TokenResponse{Error: err.Error()})
		return
	}

	ip := r.RemoteAddr
	userAgent := r.UserAgent()

	accessToken, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: &ip,
		UserAgent: &userAgent,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			respondJSON(w, http.StatusUnauthorized, payload.TokenResponse{Error: "invalid credentials"})
			return
		}

		h.logger.Error().Err(err).Msg("failed to log in user")
		respondJSON(w, http.StatusInternalServerError, payload.TokenResponse{Error: "something went wrong"})
		return
	}

	respondJSON(w, http.StatusOK, payload.TokenResponse{Success: true, AccessToken: accessToken})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ForgotPasswordRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, payload.StatusResponse{Error: err.Error()})
		return
	}

	err := h.resetUsecase.RequestCode(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, usecase.ErrDeliveryFailed) {
			// The challenge exists; the client may retry the send.
			respondJSON(w, http.StatusBadGateway, payload.StatusResponse{Error: "failed to send verification code"})
			return
		}

		h.logger.Error().Err(err).Msg("failed to request password reset code")
		respondJSON(w, http.StatusInternalServerError, payload.StatusResponse{Error: "something went wrong"})
		return
	}

	respondJSON(w, http.StatusOK, payload.StatusResponse{Success: true})
}

func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req payload.VerifyCodeRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, payload.VerifyCodeResponse{Error: err.Error()})
		return
	}

	resetToken, err := h.resetUsecase.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrChallengeNotFound):
			respondJSON(w, http.StatusNotFound, payload.VerifyCodeResponse{Error: "no outstanding verification code"})
		case errors.Is(err, usecase.ErrChallengeExpired):
			respondJSON(w, http.StatusGone, payload.VerifyCodeResponse{Error: "verification code has expired"})
		case errors.Is(err, usecase.ErrCodeMismatch):
			respondJSON(w, http.StatusUnauthorized, payload.VerifyCodeResponse{Error: "verification code does not match"})
		case errors.Is(err, usecase.ErrTooManyAttempts):
			respondJSON(w, http.StatusTooManyRequests, payload.VerifyCodeResponse{Error: "too many attempts, request a new code"})
		default:
			h.logger.Error().Err(err).Msg("failed to verify code")
			respondJSON(w, http.StatusInternalServerError, payload.VerifyCodeResponse{Error: "something went wrong"})
		}
		return
	}

	respondJSON(w, http.StatusOK, payload.VerifyCodeResponse{Success: true, ResetToken: resetToken})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, payload.StatusResponse{Error: err.Error()})
		return
	}

	err := h.resetUsecase.ResetPassword(r.Context(), req.ResetToken, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrTokenInvalid):
			respondJSON(w, http.StatusUnauthorized, payload.StatusResponse{Error: "invalid password reset token"})
		case errors.Is(err, usecase.ErrTokenExpired):
			respondJSON(w, http.StatusGone, payload.StatusResponse{Error: "password reset token has expired"})
		case errors.Is(err, usecase.ErrTokenAlreadyUsed):
			respondJSON(w, http.StatusConflict, payload.StatusResponse{Error: "password reset token has already been used"})
		case errors.Is(err, usecase.ErrWeakPassword):
			respondJSON(w, http.StatusBadRequest, payload.StatusResponse{Error: "password must be at least 6 characters"})
		default:
			h.logger.Error().Err(err).Msg("failed to reset password")
			respondJSON(w, http.StatusInternalServerError, payload.StatusResponse{Error: "something went wrong"})
		}
		return
	}

	respondJSON(w, http.StatusOK, payload.StatusResponse{Success: true})
}
