package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/vidtube-api/internal/domain/entity"
	repo "github.com/oksasatya/vidtube-api/internal/domain/repository"
	"github.com/oksasatya/vidtube-api/internal/infrastructure/media"
	"github.com/oksasatya/vidtube-api/internal/infrastructure/search"
	"github.com/oksasatya/vidtube-api/pkg/helpers"
	"github.com/oksasatya/vidtube-api/pkg/mailer"
	mailtpl "github.com/oksasatya/vidtube-api/pkg/mailer/templates"
	"github.com/oksasatya/vidtube-api/pkg/validation"
)

// UserService covers registration, credentials, profile media and channel views.
type UserService struct {
	Users    repo.UserRepository
	Channels repo.ChannelRepository
	Sessions *SessionService
	Media    media.Store
	Index    SearchIndex
	Jobs     JobPublisher
	Logger   *logrus.Logger
	AppName  string
}

func NewUserService(users repo.UserRepository, channels repo.ChannelRepository, sessions *SessionService, store media.Store, logger *logrus.Logger) *UserService {
	return &UserService{
		Users:    users,
		Channels: channels,
		Sessions: sessions,
		Media:    store,
		Logger:   logger,
	}
}

type RegisterInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     *Upload
	CoverImage *Upload
}

func blankFields(pairs ...string) []any {
	var out []any
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			out = append(out, validation.FieldError{Field: pairs[i], Message: "is required"})
		}
	}
	return out
}

// Register creates the account. The avatar is mandatory; the cover image is optional.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	defer removeUploads(s.Logger, in.Avatar, in.CoverImage)

	if missing := blankFields("fullName", in.FullName, "email", in.Email, "username", in.Username, "password", in.Password); len(missing) > 0 {
		return nil, ValidationError("all fields are required", missing...)
	}

	existing, err := s.Users.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	switch {
	case err == nil && existing != nil:
		return nil, ConflictError("user with email or username already exists")
	case err != nil && !errors.Is(err, repo.ErrNotFound):
		s.Logger.WithError(err).Error("lookup existing user failed")
		return nil, InternalError("something went wrong while registering the user", err)
	}

	if in.Avatar == nil {
		return nil, ValidationError("avatar file is required", validation.FieldError{Field: "avatar", Message: "is required"})
	}

	id := primitive.NewObjectID()
	avatarURL, err := saveUpload(ctx, s.Media, "avatars", id.Hex(), in.Avatar)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", id.Hex()).Error("avatar upload failed")
		return nil, InternalError("failed to upload avatar", err)
	}
	var coverURL string
	if in.CoverImage != nil {
		coverURL, err = saveUpload(ctx, s.Media, "covers", id.Hex(), in.CoverImage)
		if err != nil {
			s.Logger.WithError(err).WithField("user_id", id.Hex()).Error("cover image upload failed")
			deleteMedia(ctx, s.Media, s.Logger, avatarURL)
			return nil, InternalError("failed to upload cover image", err)
		}
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, InternalError("something went wrong while registering the user", err)
	}

	u := &entity.User{
		ID:         id,
		Username:   in.Username,
		Email:      in.Email,
		FullName:   strings.TrimSpace(in.FullName),
		Avatar:     avatarURL,
		CoverImage: coverURL,
		Password:   hash,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		deleteMedia(ctx, s.Media, s.Logger, avatarURL)
		deleteMedia(ctx, s.Media, s.Logger, coverURL)
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ConflictError("user with email or username already exists")
		}
		s.Logger.WithError(err).WithField("user_id", id.Hex()).Error("create user failed")
		return nil, InternalError("something went wrong while registering the user", err)
	}

	s.indexChannel(ctx, u)
	publish(ctx, s.Jobs, s.Logger, mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.Welcome,
		Data:     mailtpl.NewWelcomeData(s.AppName, u.FullName, u.Username, u.Email),
	})
	return u.Public(), nil
}

type LoginInput struct {
	Username  string
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// Login checks credentials and rotates the session.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*entity.User, TokenPair, error) {
	if strings.TrimSpace(in.Username) == "" && strings.TrimSpace(in.Email) == "" {
		return nil, TokenPair{}, ValidationError("username or email is required")
	}
	if in.Password == "" {
		return nil, TokenPair{}, ValidationError("password is required", validation.FieldError{Field: "password", Message: "is required"})
	}

	u, err := s.Users.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, TokenPair{}, NotFoundError("user does not exist")
		}
		s.Logger.WithError(err).Error("lookup user for login failed")
		return nil, TokenPair{}, InternalError("something went wrong", err)
	}
	if !helpers.CompareHashAndPassword(u.Password, in.Password) {
		return nil, TokenPair{}, AuthError("invalid user credentials")
	}

	public, pair, err := s.Sessions.RotateSession(ctx, u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}

	publish(ctx, s.Jobs, s.Logger, mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.LoginNotification,
		Data: mailtpl.NewLoginNotificationData(s.AppName, u.FullName, u.Username, u.Email,
			mailtpl.WithIP(in.IP), mailtpl.WithUserAgent(in.UserAgent), mailtpl.WithTime(time.Now())),
	})
	return public, pair, nil
}

func (s *UserService) Logout(ctx context.Context, userID primitive.ObjectID) error {
	return s.Sessions.Revoke(ctx, userID)
}

// Refresh exchanges a refresh token for a new pair. Every validation failure is reported the same way.
func (s *UserService) Refresh(ctx context.Context, token string) (*entity.User, TokenPair, error) {
	id, err := s.Sessions.ValidateRefreshToken(ctx, token)
	if err != nil {
		if IsKind(err, KindInternal) {
			return nil, TokenPair{}, err
		}
		s.Logger.WithError(err).Debug("refresh rejected")
		return nil, TokenPair{}, AuthError("invalid refresh token")
	}
	return s.Sessions.RotateSession(ctx, id)
}

// ChangePassword requires the current password. The stored refresh token is left as is.
func (s *UserService) ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next string) error {
	if missing := blankFields("currentPassword", current, "newPassword", next); len(missing) > 0 {
		return ValidationError("current and new password are required", missing...)
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return s.lookupErr(err, userID)
	}
	if !helpers.CompareHashAndPassword(u.Password, current) {
		return AuthError("invalid current password")
	}
	hash, err := helpers.HashPassword(next)
	if err != nil {
		return InternalError("something went wrong", err)
	}
	if err := s.Users.UpdatePassword(ctx, userID, hash); err != nil {
		return s.lookupErr(err, userID)
	}
	publish(ctx, s.Jobs, s.Logger, mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.PasswordChanged,
		Data:     mailtpl.NewPasswordChangedData(s.AppName, u.FullName, u.Username, u.Email, mailtpl.WithTime(time.Now())),
	})
	return nil
}

func (s *UserService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, s.lookupErr(err, userID)
	}
	return u.Public(), nil
}

// UpdateAccount changes the display name and username. Both are required.
func (s *UserService) UpdateAccount(ctx context.Context, userID primitive.ObjectID, fullName, username string) (*entity.User, error) {
	if missing := blankFields("fullName", fullName, "username", username); len(missing) > 0 {
		return nil, ValidationError("all fields are required", missing...)
	}
	u, err := s.Users.Update(ctx, userID, repo.UserUpdate{FullName: &fullName, Username: &username})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ConflictError("username is already taken")
		}
		return nil, s.lookupErr(err, userID)
	}
	s.indexChannel(ctx, u)
	return u.Public(), nil
}

// UpdateAvatar stores the new image, points the user at it, then drops the old object.
func (s *UserService) UpdateAvatar(ctx context.Context, userID primitive.ObjectID, up *Upload) (*entity.User, error) {
	return s.replaceImage(ctx, userID, up, "avatar", "avatars", func(u *entity.User) string { return u.Avatar },
		func(url string) repo.UserUpdate { return repo.UserUpdate{Avatar: &url} })
}

// UpdateCoverImage follows the same sequence as UpdateAvatar.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID primitive.ObjectID, up *Upload) (*entity.User, error) {
	return s.replaceImage(ctx, userID, up, "coverImage", "covers", func(u *entity.User) string { return u.CoverImage },
		func(url string) repo.UserUpdate { return repo.UserUpdate{CoverImage: &url} })
}

func (s *UserService) replaceImage(
	ctx context.Context,
	userID primitive.ObjectID,
	up *Upload,
	field, kind string,
	current func(*entity.User) string,
	change func(string) repo.UserUpdate,
) (*entity.User, error) {
	defer removeUploads(s.Logger, up)
	if up == nil {
		return nil, ValidationError(field+" file is missing", validation.FieldError{Field: field, Message: "is required"})
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, s.lookupErr(err, userID)
	}
	old := current(u)

	url, err := saveUpload(ctx, s.Media, kind, userID.Hex(), up)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", userID.Hex()).WithField("field", field).Error("image upload failed")
		return nil, InternalError("error while uploading "+field, err)
	}
	updated, err := s.Users.Update(ctx, userID, change(url))
	if err != nil {
		deleteMedia(ctx, s.Media, s.Logger, url)
		return nil, s.lookupErr(err, userID)
	}
	if old != "" && old != url {
		deleteMedia(ctx, s.Media, s.Logger, old)
	}
	s.indexChannel(ctx, updated)
	return updated.Public(), nil
}

// ChannelProfile returns the aggregated channel for username as seen by viewer (zero for anonymous).
func (s *UserService) ChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (*entity.ChannelProfile, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ValidationError("username is missing")
	}
	p, err := s.Channels.ChannelProfile(ctx, username, viewer)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NotFoundError("channel does not exist")
		}
		s.Logger.WithError(err).WithField("username", username).Error("channel profile aggregation failed")
		return nil, InternalError("something went wrong", err)
	}
	return p, nil
}

// WatchHistory lists watched videos, most recent first.
func (s *UserService) WatchHistory(ctx context.Context, userID primitive.ObjectID) ([]entity.VideoWithOwner, error) {
	hist, err := s.Channels.WatchHistory(ctx, userID)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", userID.Hex()).Error("watch history aggregation failed")
		return nil, InternalError("something went wrong", err)
	}
	if hist == nil {
		hist = []entity.VideoWithOwner{}
	}
	return hist, nil
}

// SearchChannels queries the search index; empty when search is disabled.
func (s *UserService) SearchChannels(ctx context.Context, q string, size int) ([]search.ChannelDoc, error) {
	if s.Index == nil || strings.TrimSpace(q) == "" {
		return []search.ChannelDoc{}, nil
	}
	out, err := s.Index.SearchChannels(ctx, q, size)
	if err != nil {
		s.Logger.WithError(err).Warn("channel search failed")
		return nil, InternalError("search is unavailable", err)
	}
	return out, nil
}

func (s *UserService) indexChannel(ctx context.Context, u *entity.User) {
	if s.Index == nil || u == nil {
		return
	}
	if err := s.Index.IndexChannel(ctx, u); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID.Hex()).Warn("es index failed")
	}
}

func (s *UserService) lookupErr(err error, userID primitive.ObjectID) error {
	if errors.Is(err, repo.ErrNotFound) {
		return NotFoundError("user not found")
	}
	s.Logger.WithError(err).WithField("user_id", userID.Hex()).Error("user store failed")
	return InternalError("something went wrong", err)
}
