package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"expvar"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/vidtube-api/internal/domain/entity"
	repo "github.com/oksasatya/vidtube-api/internal/domain/repository"
	"github.com/oksasatya/vidtube-api/pkg/helpers"
)

var (
	sessionsRotated = expvar.NewInt("sessions_rotated")
	sessionsRevoked = expvar.NewInt("sessions_revoked")
	refreshRejected = expvar.NewInt("refresh_rejected")
)

// TokenPair is what a successful login or refresh hands back.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// SessionService mints token pairs and keeps exactly one refresh token per user.
// A rotation overwrites the previous token, which makes it inert.
type SessionService struct {
	Users  repo.UserRepository
	JWT    *helpers.JWTManager
	Logger *logrus.Logger
}

func NewSessionService(users repo.UserRepository, jwt *helpers.JWTManager, logger *logrus.Logger) *SessionService {
	return &SessionService{Users: users, JWT: jwt, Logger: logger}
}

// RotateSession issues a fresh pair for userID and stores the refresh token as the only valid one.
func (s *SessionService) RotateSession(ctx context.Context, userID primitive.ObjectID) (*entity.User, TokenPair, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", userID.Hex()).Error("load user for token issue failed")
		return nil, TokenPair{}, InternalError("something went wrong while generating tokens", err)
	}

	access, aexp, err := s.JWT.GenerateAccessToken(helpers.TokenSubject{
		ID:       u.ID.Hex(),
		Username: u.Username,
		Email:    u.Email,
	})
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID.Hex()).Error("generate access token failed")
		return nil, TokenPair{}, InternalError("something went wrong while generating tokens", err)
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID.Hex())
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID.Hex()).Error("generate refresh token failed")
		return nil, TokenPair{}, InternalError("something went wrong while generating tokens", err)
	}

	if err := s.Users.SetRefreshToken(ctx, u.ID, refresh); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID.Hex()).Error("store refresh token failed")
		return nil, TokenPair{}, InternalError("something went wrong while generating tokens", err)
	}
	sessionsRotated.Add(1)

	return u.Public(), TokenPair{
		AccessToken:        access,
		AccessTokenExpiry:  aexp,
		RefreshToken:       refresh,
		RefreshTokenExpiry: rexp,
	}, nil
}

// ValidateRefreshToken returns the subject of token if it is well formed, unexpired,
// and equal to the refresh token currently stored for that user.
func (s *SessionService) ValidateRefreshToken(ctx context.Context, token string) (primitive.ObjectID, error) {
	if token == "" {
		refreshRejected.Add(1)
		return primitive.NilObjectID, AuthError("unauthorized request")
	}
	claims, err := s.JWT.ParseRefreshToken(token)
	if err != nil {
		refreshRejected.Add(1)
		return primitive.NilObjectID, AuthError("invalid refresh token")
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		refreshRejected.Add(1)
		return primitive.NilObjectID, AuthError("invalid refresh token")
	}
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		refreshRejected.Add(1)
		if errors.Is(err, repo.ErrNotFound) {
			return primitive.NilObjectID, NotFoundError("user not found")
		}
		return primitive.NilObjectID, InternalError("something went wrong", err)
	}
	if u.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(u.RefreshToken), []byte(token)) != 1 {
		refreshRejected.Add(1)
		return primitive.NilObjectID, AuthError("refresh token is expired or used")
	}
	return id, nil
}

// Revoke clears the stored refresh token so no outstanding refresh token works.
func (s *SessionService) Revoke(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.Users.SetRefreshToken(ctx, userID, ""); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NotFoundError("user not found")
		}
		s.Logger.WithError(err).WithField("user_id", userID.Hex()).Error("clear refresh token failed")
		return InternalError("something went wrong", err)
	}
	sessionsRevoked.Add(1)
	return nil
}
