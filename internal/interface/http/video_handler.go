package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vidtube-api/internal/application"
	"github.com/oksasatya/vidtube-api/internal/interface/middleware"
	"github.com/oksasatya/vidtube-api/pkg/response"
)

type VideoHandler struct {
	Svc     *application.VideoService
	Logger  *logrus.Logger
	Uploads Spooler
}

func NewVideoHandler(svc *application.VideoService, logger *logrus.Logger, uploads Spooler) *VideoHandler {
	return &VideoHandler{Svc: svc, Logger: logger, Uploads: uploads}
}

type listVideosQuery struct {
	Page     int    `form:"page" binding:"omitempty,gte=1"`
	Limit    int    `form:"limit" binding:"omitempty,gte=1"`
	Query    string `form:"query"`
	SortBy   string `form:"sortBy"`
	SortType string `form:"sortType"`
	UserID   string `form:"userId"`
}

type publishVideoRequest struct {
	Title       string `form:"title" json:"title" binding:"required,notblank"`
	Description string `form:"description" json:"description" binding:"required,notblank"`
}

type updateVideoRequest struct {
	Title       *string `form:"title" json:"title"`
	Description *string `form:"description" json:"description"`
}

func (h *VideoHandler) List(c *gin.Context) {
	var q listVideosQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		invalidPayload(c, err)
		return
	}
	page, err := h.Svc.List(c.Request.Context(), application.ListVideosInput{
		Page:     q.Page,
		Limit:    q.Limit,
		Query:    q.Query,
		SortBy:   q.SortBy,
		SortType: q.SortType,
		UserID:   q.UserID,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, page, "videos fetched successfully")
}

func (h *VideoHandler) Publish(c *gin.Context) {
	videoFile, err := h.Uploads.spool(c, "videoFile")
	if err != nil {
		response.Fail(c, err)
		return
	}
	thumb, err := h.Uploads.spool(c, "thumbnail")
	if err != nil {
		discard(h.Logger, videoFile)
		response.Fail(c, err)
		return
	}

	var req publishVideoRequest
	if err := c.ShouldBind(&req); err != nil {
		discard(h.Logger, videoFile, thumb)
		invalidPayload(c, err)
		return
	}
	v, err := h.Svc.Publish(c.Request.Context(), middleware.UserID(c), application.PublishInput{
		Title:       req.Title,
		Description: req.Description,
		VideoFile:   videoFile,
		Thumbnail:   thumb,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, v, "video published successfully")
}

// Get counts a view. Signed-in viewers also get the video added to their watch history.
func (h *VideoHandler) Get(c *gin.Context) {
	v, err := h.Svc.Get(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, v, "video fetched successfully")
}

func (h *VideoHandler) Update(c *gin.Context) {
	thumb, err := h.Uploads.spool(c, "thumbnail")
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req updateVideoRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&req); err != nil {
			discard(h.Logger, thumb)
			invalidPayload(c, err)
			return
		}
	}
	v, err := h.Svc.Update(c.Request.Context(), c.Param("id"), middleware.UserID(c), application.UpdateVideoInput{
		Title:       req.Title,
		Description: req.Description,
		Thumbnail:   thumb,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, v, "video updated successfully")
}

func (h *VideoHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{}, "video deleted successfully")
}

func (h *VideoHandler) TogglePublish(c *gin.Context) {
	v, err := h.Svc.TogglePublish(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, v, "publish status toggled")
}

func (h *VideoHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	res, err := h.Svc.Search(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, "videos fetched successfully")
}
