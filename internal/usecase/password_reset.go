package usecase

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/linnoak/teamboard-api/internal/config"
	"github.com/linnoak/teamboard-api/internal/model"
	"github.com/linnoak/teamboard-api/internal/repository"
	"github.com/linnoak/teamboard-api/shared/auth"
	"github.com/linnoak/teamboard-api/shared/mailer"
	"github.com/linnoak/teamboard-api/shared/security"
)

// PasswordResetUsecase defines the business logic for the password reset
// flow: request a verification code, exchange it for a reset token, spend
// the token on a password change.
type PasswordResetUsecase interface {
	// RequestCode issues a fresh verification code for the email and sends it
	// out of band. An unknown email is reported as success to the caller.
	RequestCode(ctx context.Context, email string) error

	// VerifyCode checks a submitted code against the outstanding challenge
	// and, on success, consumes the challenge and returns a signed reset
	// token.
	VerifyCode(ctx context.Context, email, code string) (string, error)

	// ResetPassword spends a reset token on a password change and invalidates
	// every other outstanding artifact for that user.
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDeliveryFailed    = errors.New("failed to deliver verification code")
	ErrChallengeNotFound = errors.New("verification challenge not found")
	ErrChallengeExpired  = errors.New("verification challenge has expired")
	ErrCodeMismatch      = errors.New("verification code does not match")
	ErrTooManyAttempts   = errors.New("too many verification attempts")
	ErrTokenInvalid      = errors.New("invalid password reset token")
	ErrTokenExpired      = errors.New("password reset token has expired")
	ErrTokenAlreadyUsed  = errors.New("password reset token has already been used")
	ErrWeakPassword      = errors.New("password does not meet the minimum policy")
)

type passwordResetUsecase struct {
	userRepo      repository.UserRepository
	challengeRepo repository.ChallengeRepository
	tokenRepo     repository.ResetTokenRepository
	sessionRepo   repository.SessionRepository
	jwtAuth       auth.JWTAuthenticator
	mailer        CodeMailer
	tokenCfg      *config.TokenConfig
	resetCfg      *config.ResetConfig
	logger        *zerolog.Logger
}

// CodeMailer is the slice of the mailer the reset flow needs.
type CodeMailer interface {
	SendContext(ctx context.Context, email mailer.Email) error
}

// NewPasswordResetUsecase creates a new instance of PasswordResetUsecase.
func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	challengeRepo repository.ChallengeRepository,
	tokenRepo repository.ResetTokenRepository,
	sessionRepo repository.SessionRepository,
	jwtAuth auth.JWTAuthenticator,
	codeMailer CodeMailer,
	tokenCfg *config.TokenConfig,
	resetCfg *config.ResetConfig,
	logger *zerolog.Logger,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		userRepo:      userRepo,
		challengeRepo: challengeRepo,
		tokenRepo:     tokenRepo,
		sessionRepo:   sessionRepo,
		jwtAuth:       jwtAuth,
		mailer:        codeMailer,
		tokenCfg:      tokenCfg,
		resetCfg:      resetCfg,
		logger:        logger,
	}
}

func (u *passwordResetUsecase) RequestCode(ctx context.Context, email string) error {
	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// To prevent email enumeration, do not reveal that the email does
			// not exist.
			u.logger.Info().Str("email", email).Msg("password reset requested for unknown email")
			return nil
		}
		return err
	}

	code, err := generateNumericCode(u.resetCfg.CodeLength)
	if err != nil {
		return err
	}

	now := time.Now()
	challenge := &model.VerificationChallenge{
		Email:     user.Email,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(u.resetCfg.CodeTTL),
	}

	// ReplaceChallenge displaces any prior challenge for this email in the
	// same write, so two concurrent requests cannot both stay active.
	if _, err := u.challengeRepo.ReplaceChallenge(ctx, challenge); err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, u.resetCfg.SendTimeout)
	defer cancel()

	htmlBody := fmt.Sprintf(`
		<p>Hi,</p>
		<p>We received a request to reset the password for your account.</p>
		<p>Your verification code is:</p>

		<p><strong>%s</strong></p>

		<p>This code will expire in %s for your security.</p>
		<p>If you did not request a password reset, you can safely ignore this email.</p>

		<p>Thank you,</p>
		<p>Teamboard Team</p>
	`, code, u.resetCfg.CodeTTL)

	if err := u.mailer.SendContext(sendCtx, mailer.Email{
		To:       []string{user.Email},
		Subject:  "Your verification code",
		HTMLBody: htmlBody,
	}); err != nil {
		// The challenge is already stored; the client can be offered a
		// resend instead of losing the attempt.
		u.logger.Error().Err(err).Str("email", user.Email).Msg("failed to send verification code")
		return ErrDeliveryFailed
	}

	return nil
}

func (u *passwordResetUsecase) VerifyCode(ctx context.Context, email, code string) (string, error) {
	challenge, err := u.challengeRepo.GetChallengeByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrChallengeNotFound
		}
		return "", err
	}

	if challenge.Consumed {
		return "", ErrChallengeNotFound
	}

	if challenge.Expired(time.Now()) {
		return "", ErrChallengeExpired
	}

	if challenge.Attempts >= u.resetCfg.AttemptLimit {
		return "", ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(code)) != 1 {
		updated, incErr := u.challengeRepo.IncrementAttempts(ctx, email)
		if incErr != nil && !errors.Is(incErr, mongo.ErrNoDocuments) {
			return "", incErr
		}
		if updated != nil && updated.Attempts >= u.resetCfg.AttemptLimit {
			return "", ErrTooManyAttempts
		}
		return "", ErrCodeMismatch
	}

	// The filter re-checks code, consumption, expiry and the attempt limit,
	// so two concurrent submissions of the same code cannot both win.
	consumed, err := u.challengeRepo.ConsumeChallenge(ctx, email, code, u.resetCfg.AttemptLimit)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrChallengeNotFound
		}
		return "", err
	}

	user, err := u.userRepo.GetUserByEmail(ctx, consumed.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	tokenStr, jti, err := u.generateResetToken(user.ID.Hex(), user.Email)
	if err != nil {
		return "", err
	}

	if _, err := u.tokenRepo.CreateToken(ctx, &model.ResetToken{
		JTI:       jti,
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: time.Now().Add(u.tokenCfg.ResetTokenExpiresIn),
	}); err != nil {
		return "", err
	}

	return tokenStr, nil
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if len(newPassword) < u.resetCfg.MinPassword {
		return ErrWeakPassword
	}

	claims := &auth.ResetClaims{}
	if _, err := u.jwtAuth.ValidateTokenWithClaims(resetToken, u.tokenCfg.ResetTokenSecret, claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}

	record, err := u.tokenRepo.GetTokenByJTI(ctx, claims.JTI)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTokenInvalid
		}
		return err
	}

	if record.Used {
		return ErrTokenAlreadyUsed
	}

	if time.Now().After(record.ExpiresAt) {
		return ErrTokenExpired
	}

	// CAS on used=false; a concurrent reset with the same token loses here.
	consumed, err := u.tokenRepo.ConsumeToken(ctx, claims.JTI)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTokenAlreadyUsed
		}
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	userID := consumed.UserID.Hex()
	if _, err := u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		PasswordHash: &passwordHash,
	}); err != nil {
		return err
	}

	// Nothing issued before this reset may authorize anything after it.
	if err := u.tokenRepo.InvalidateUserTokens(ctx, userID); err != nil {
		return err
	}
	if err := u.challengeRepo.DeleteChallenge(ctx, consumed.Email); err != nil {
		return err
	}
	if _, err := u.sessionRepo.DeleteUserSessions(ctx, userID); err != nil {
		return err
	}

	return nil
}

// generateResetToken creates a password reset JWT with a unique JTI.
func (u *passwordResetUsecase) generateResetToken(userID, email string) (string, string, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", "", err
	}

	claims := auth.ResetClaims{
		UserID:           userID,
		Email:            email,
		JTI:              jti,
		RegisteredClaims: u.jwtAuth.RegisteredClaims(userID, u.tokenCfg.ResetTokenExpiresIn),
	}

	tokenStr, err := u.jwtAuth.GenerateToken(claims, u.tokenCfg.ResetTokenSecret)
	if err != nil {
		return "", "", err
	}

	return tokenStr, jti, nil
}

// generateJTI generates a unique JTI.
func generateJTI() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// generateNumericCode produces a uniformly random code of the given number of
// decimal digits, left padded with zeros.
func generateNumericCode(length int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
