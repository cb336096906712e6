package usecase

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/linnoak/teamboard-api/internal/config"
	"github.com/linnoak/teamboard-api/internal/model"
	"github.com/linnoak/teamboard-api/internal/repository"
	"github.com/linnoak/teamboard-api/shared/auth"
	"github.com/linnoak/teamboard-api/shared/security"
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	Login(ctx context.Context, params LoginParams) (string, error)
	Register(ctx context.Context, params RegisterParams) (string, error)
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Email     string
	Password  string
	IPAddress *string
	UserAgent *string
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Email    string
	Password string
}

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type authUsecase struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	jwtAuth     auth.JWTAuthenticator
	tokenCfg    *config.TokenConfig
}

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	jwtAuth auth.JWTAuthenticator,
	tokenCfg *config.TokenConfig,
) AuthUsecase {
	return &authUsecase{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		jwtAuth:     jwtAuth,
		tokenCfg:    tokenCfg,
	}
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (string, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrInvalidCredentials
		}

		return "", err
	}

	if ok, err := security.VerifyPassword(params.Password, user.PasswordHash); err != nil {
		return "", err
	} else if !ok {
		return "", ErrInvalidCredentials
	}

	return u.createAuthSession(ctx, user, params.IPAddress, params.UserAgent)
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (string, error) {
	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return "", err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Email:        params.Email,
		PasswordHash: passwordHash,
		Role:         model.RoleMember,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrUserAlreadyExists
		}

		return "", err
	}

	return u.createAuthSession(ctx, user, nil, nil)
}

func (u *authUsecase) createAuthSession(
	ctx context.Context,
	user *model.User,
	ipAddress, userAgent *string,
) (string, error) {
	claims := auth.AccessClaims{
		UserID:           user.ID.Hex(),
		Email:            user.Email,
		Role:             user.Role,
		RegisteredClaims: u.jwtAuth.RegisteredClaims(user.ID.Hex(), u.tokenCfg.AccessTokenExpiresIn),
	}

	accessToken, err := u.jwtAuth.GenerateToken(claims, u.tokenCfg.AccessTokenSecret)
	if err != nil {
		return "", err
	}

	if _, err := u.sessionRepo.CreateSession(ctx, &model.Session{
		UserID:               user.ID.Hex(),
		AccessToken:          accessToken,
		AccessTokenExpiresAt: time.Now().Add(u.tokenCfg.AccessTokenExpiresIn),
		IPAddress:            ipAddress,
		UserAgent:            userAgent,
	}); err != nil {
		return "", err
	}

	return accessToken, nil
}
