package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vidtube-api/internal/application"
	"github.com/oksasatya/vidtube-api/internal/domain/entity"
	"github.com/oksasatya/vidtube-api/internal/interface/middleware"
	"github.com/oksasatya/vidtube-api/pkg/helpers"
	"github.com/oksasatya/vidtube-api/pkg/response"
	"github.com/oksasatya/vidtube-api/pkg/validation"
)

type UserHandler struct {
	Svc     *application.UserService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
	Uploads Spooler
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger, cookies *helpers.Manager, uploads Spooler) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cookies: cookies, Uploads: uploads}
}

type registerRequest struct {
	Username string `form:"username" json:"username" binding:"required,notblank"`
	Email    string `form:"email" json:"email" binding:"required,email"`
	FullName string `form:"fullName" json:"fullName" binding:"required,notblank"`
	Password string `form:"password" json:"password" binding:"required,notblank"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required,notblank"`
	NewPassword     string `json:"newPassword" binding:"required,notblank"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName" binding:"required,notblank"`
	Username string `json:"username" binding:"required,notblank"`
}

type sessionResponse struct {
	User         *entity.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

func invalidPayload(c *gin.Context, err error) {
	response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

func (h *UserHandler) Register(c *gin.Context) {
	avatar, err := h.Uploads.spool(c, "avatar")
	if err != nil {
		response.Fail(c, err)
		return
	}
	cover, err := h.Uploads.spool(c, "coverImage")
	if err != nil {
		discard(h.Logger, avatar)
		response.Fail(c, err)
		return
	}

	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		discard(h.Logger, avatar, cover)
		invalidPayload(c, err)
		return
	}

	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		FullName:   req.FullName,
		Password:   req.Password,
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, u, "user registered successfully")
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	u, pair, err := h.Svc.Login(c.Request.Context(), application.LoginInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		IP:        middleware.ClientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, sessionResponse{User: u, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, "user logged in successfully")
}

func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), middleware.UserID(c)); err != nil {
		response.Fail(c, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{}, "user logged out")
}

// Refresh takes the refresh token from the cookie, or from the JSON body when the cookie is absent.
func (h *UserHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(helpers.RefreshCookie)
	if token == "" && c.Request.ContentLength != 0 {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}
	_, pair, err := h.Svc.Refresh(c.Request.Context(), token)
	if err != nil {
		response.Fail(c, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "access token refreshed")
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), middleware.UserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{}, "password changed successfully")
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "current user fetched successfully")
}

func (h *UserHandler) UpdateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	u, err := h.Svc.UpdateAccount(c.Request.Context(), middleware.UserID(c), req.FullName, req.Username)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "account details updated successfully")
}

func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	up, err := h.Uploads.spool(c, "avatar")
	if err != nil {
		response.Fail(c, err)
		return
	}
	u, err := h.Svc.UpdateAvatar(c.Request.Context(), middleware.UserID(c), up)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "avatar updated successfully")
}

func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	up, err := h.Uploads.spool(c, "coverImage")
	if err != nil {
		response.Fail(c, err)
		return
	}
	u, err := h.Svc.UpdateCoverImage(c.Request.Context(), middleware.UserID(c), up)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "cover image updated successfully")
}

func (h *UserHandler) ChannelProfile(c *gin.Context) {
	p, err := h.Svc.ChannelProfile(c.Request.Context(), c.Param("username"), middleware.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, p, "user channel fetched successfully")
}

func (h *UserHandler) WatchHistory(c *gin.Context) {
	hist, err := h.Svc.WatchHistory(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, hist, "watch history fetched successfully")
}

// Search looks up channels by username or full name.
func (h *UserHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	res, err := h.Svc.SearchChannels(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, "channels fetched successfully")
}
