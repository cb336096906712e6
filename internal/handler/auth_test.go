package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linnoak/teamboard-api/internal/payload"
	"github.com/linnoak/teamboard-api/internal/usecase"
	sharedvalidator "github.com/linnoak/teamboard-api/shared/validator"
)

type stubAuthUsecase struct {
	loginToken    string
	loginErr      error
	registerToken string
	registerErr   error
}

func (s *stubAuthUsecase) Login(context.Context, usecase.LoginParams) (string, error) {
	return s.loginToken, s.loginErr
}

func (s *stubAuthUsecase) Register(context.Context, usecase.RegisterParams) (string, error) {
	return s.registerToken, s.registerErr
}

type stubResetUsecase struct {
	requestErr error
	verifyOut  string
	verifyErr  error
	resetErr   error

	requestedEmail string
	verifiedCode   string
}

func (s *stubResetUsecase) RequestCode(_ context.Context, email string) error {
	s.requestedEmail = email
	return s.requestErr
}

func (s *stubResetUsecase) VerifyCode(_ context.Context, _, code string) (string, error) {
	s.verifiedCode = code
	return s.verifyOut, s.verifyErr
}

func (s *stubResetUsecase) ResetPassword(context.Context, string, string) error {
	return s.resetErr
}

func newAuthTestServer(t *testing.T, authStub *stubAuthUsecase, resetStub *stubResetUsecase) *httptest.Server {
	t.Helper()

	v, err := sharedvalidator.New()
	require.NoError(t, err)
	logger := zerolog.Nop()

	h := NewAuthHandler(authStub, resetStub, v, &logger)
	router := chi.NewRouter()
	router.Route("/auth", h.Routes)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	buf, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestForgotPassword(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		resetStub := &stubResetUsecase{}
		server := newAuthTestServer(t, &stubAuthUsecase{}, resetStub)

		resp := postJSON(t, server.URL+"/auth/forgot-password", payload.ForgotPasswordRequest{Email: "user@example.com"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[payload.StatusResponse](t, resp)
		assert.True(t, body.Success)
		assert.Equal(t, "user@example.com", resetStub.requestedEmail)
	})

	t.Run("rejects a malformed email before business logic", func(t *testing.T) {
		resetStub := &stubResetUsecase{}
		server := newAuthTestServer(t, &stubAuthUsecase{}, resetStub)

		resp := postJSON(t, server.URL+"/auth/forgot-password", payload.ForgotPasswordRequest{Email: "not-an-email"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Empty(t, resetStub.requestedEmail)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		server := newAuthTestServer(t, &stubAuthUsecase{}, &stubResetUsecase{})

		resp := postJSON(t, server.URL+"/auth/forgot-password", map[string]string{
			"email":    "user@example.com",
			"surprise": "field",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("delivery failure maps to bad gateway", func(t *testing.T) {
		server := newAuthTestServer(t, &stubAuthUsecase{}, &stubResetUsecase{requestErr: usecase.ErrDeliveryFailed})

		resp := postJSON(t, server.URL+"/auth/forgot-password", payload.ForgotPasswordRequest{Email: "user@example.com"})
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})
}

func TestVerifyCodeEndpoint(t *testing.T) {
	t.Run("returns the reset token", func(t *testing.T) {
		server := newAuthTestServer(t, &stubAuthUsecase{}, &stubResetUsecase{verifyOut: "signed-token"})

		resp := postJSON(t, server.URL+"/auth/verify-code", payload.VerifyCodeRequest{
			Email: "user@example.com",
			Code:  "482193",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[payload.VerifyCodeResponse](t, resp)
		assert.True(t, body.Success)
		assert.Equal(t, "signed-token", body.ResetToken)
	})

	t.Run("error mapping", func(t *testing.T) {
		tests := []struct {
			name       string
			err        error
			wantStatus int
		}{
			{"challenge not found", usecase.ErrChallengeNotFound, http.StatusNotFound},
			{"challenge expired", usecase.ErrChallengeExpired, http.StatusGone},
			{"code mismatch", usecase.ErrCodeMismatch, http.StatusUnauthorized},
			{"too many attempts", usecase.ErrTooManyAttempts, http.StatusTooManyRequests},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := newAuthTestServer(t, &stubAuthUsecase{}, &stubResetUsecase{verifyErr: tt.err})

				resp := postJSON(t, server.URL+"/auth/verify-code", payload.VerifyCodeRequest{
					Email: "user@example.com",
					Code:  "000000",
				})
				assert.Equal(t, tt.wantStatus, resp.StatusCode)
				body := decodeBody[payload.VerifyCodeResponse](t, resp)
				assert.False(t, body.Success)
				assert.NotEmpty(t, body.Error)
			})
		}
	})

	t.Run("non-numeric code is rejected by validation", func(t *testing.T) {
		resetStub := &stubResetUsecase{}
		server := newAuthTestServer(t, &stubAuthUsecase{}, resetStub)

		resp := postJSON(t, server.URL+"/auth/verify-code", payload.VerifyCodeRequest{
			Email: "user@example.com",
			Code:  "not-numeric",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Empty(t, resetStub.verifiedCode)
	})
}

func TestResetPasswordEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, http.StatusOK},
		{"invalid token", usecase.ErrTokenInvalid, http.StatusUnauthorized},
		{"expired token", usecase.ErrTokenExpired, http.StatusGone},
		{"already used", usecase.ErrTokenAlreadyUsed, http.StatusConflict},
		{"weak password", usecase.ErrWeakPassword, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newAuthTestServer(t, &stubAuthUsecase{}, &stubResetUsecase{resetErr: tt.err})

			resp := postJSON(t, server.URL+"/auth/reset-password", payload.ResetPasswordRequest{
				ResetToken:  "some-token",
				NewPassword: "new-password",
			})
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("returns an access token", func(t *testing.T) {
		server := newAuthTestServer(t, &stubAuthUsecase{loginToken: "access-token"}, &stubResetUsecase{})

		resp := postJSON(t, server.URL+"/auth/login", payload.LoginRequest{
			Email:    "user@example.com",
			Password: "password",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[payload.TokenResponse](t, resp)
		assert.Equal(t, "access-token", body.AccessToken)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		server := newAuthTestServer(t, &stubAuthUsecase{loginErr: usecase.ErrInvalidCredentials}, &stubResetUsecase{})

		resp := postJSON(t, server.URL+"/auth/login", payload.LoginRequest{
			Email:    "user@example.com",
			Password: "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		server := newAuthTestServer(t, &stubAuthUsecase{registerErr: usecase.ErrUserAlreadyExists}, &stubResetUsecase{})

		resp := postJSON(t, server.URL+"/auth/register", payload.RegisterRequest{
			Email:    "user@example.com",
			Password: "password",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}
