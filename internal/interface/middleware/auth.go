package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/vidtube-api/internal/domain/entity"
	"github.com/oksasatya/vidtube-api/internal/domain/repository"
	"github.com/oksasatya/vidtube-api/pkg/helpers"
	"github.com/oksasatya/vidtube-api/pkg/response"
)

const (
	CtxUser   = "user"
	CtxUserID = "userID"
)

// UserLoader is the lookup Auth needs to resolve a token subject.
type UserLoader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error)
}

// Auth resolves the request to a user from the accessToken cookie or an
// Authorization bearer header, in that order. The user, without secrets,
// is stored under CtxUser and its id under CtxUserID.
func Auth(jwt *helpers.JWTManager, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "token missing", nil)
			return
		}
		u, status, msg := resolve(c.Request.Context(), jwt, users, token)
		if u == nil {
			response.Error(c, status, msg, nil)
			return
		}
		attach(c, u)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is presented and
// otherwise lets the request through anonymously.
func OptionalAuth(jwt *helpers.JWTManager, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := accessToken(c); token != "" {
			if u, _, _ := resolve(c.Request.Context(), jwt, users, token); u != nil {
				attach(c, u)
			}
		}
		c.Next()
	}
}

func resolve(ctx context.Context, jwt *helpers.JWTManager, users UserLoader, token string) (*entity.User, int, string) {
	claims, err := jwt.ParseAccessToken(token)
	if err != nil {
		return nil, http.StatusUnauthorized, "invalid or expired token"
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, http.StatusUnauthorized, "invalid or expired token"
	}
	u, err := users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, http.StatusUnauthorized, "user not found"
		}
		return nil, http.StatusInternalServerError, "internal server error"
	}
	return u.Public(), 0, ""
}

func attach(c *gin.Context, u *entity.User) {
	c.Set(CtxUser, u)
	c.Set(CtxUserID, u.ID)
}

func accessToken(c *gin.Context) string {
	if token, err := c.Cookie(helpers.AccessCookie); err == nil && token != "" {
		return token
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// UserID returns the authenticated user id, or the zero id for anonymous requests.
func UserID(c *gin.Context) primitive.ObjectID {
	if v, ok := c.Get(CtxUserID); ok {
		if id, ok := v.(primitive.ObjectID); ok {
			return id
		}
	}
	return primitive.NilObjectID
}

// CurrentUser returns the user attached by Auth, or nil.
func CurrentUser(c *gin.Context) *entity.User {
	if v, ok := c.Get(CtxUser); ok {
		if u, ok := v.(*entity.User); ok {
			return u
		}
	}
	return nil
}
