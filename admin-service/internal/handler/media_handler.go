package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/middleware"
	"github.com/startupstarter/admin/shared/models"
)

const mediaFormField = "file"

type MediaCommander interface {
	UploadMedia(ctx context.Context, cmd cqrs.UploadMediaCommand) (*models.MediaView, error)
	DeleteMedia(ctx context.Context, cmd cqrs.DeleteMediaCommand) error
}

type MediaQuerier interface {
	GetMedia(ctx context.Context, q cqrs.GetMediaQuery) (*models.MediaView, error)
	ListMedia(ctx context.Context, q cqrs.ListMediaQuery) (*models.PagedResult[models.MediaView], error)
	DownloadMedia(ctx context.Context, q cqrs.GetMediaQuery) (*models.MediaView, io.ReadCloser, error)
}

type MediaHandler struct {
	commands MediaCommander
	queries  MediaQuerier
	maxBytes int64
}

func NewMediaHandler(commands MediaCommander, queries MediaQuerier, maxBytes int64) *MediaHandler {
	return &MediaHandler{commands: commands, queries: queries, maxBytes: maxBytes}
}

func (h *MediaHandler) RegisterRoutes(authed *gin.RouterGroup) {
	read := middleware.RequirePermission(models.PermMediaRead)
	write := middleware.RequirePermission(models.PermMediaWrite)
	media := authed.Group("/media")
	media.GET("", read, h.ListMedia)
	media.POST("", write, h.UploadMedia)
	media.GET("/:mediaId", read, h.GetMedia)
	media.GET("/:mediaId/download", read, h.DownloadMedia)
	media.DELETE("/:mediaId", write, h.DeleteMedia)
}

func (h *MediaHandler) UploadMedia(c *gin.Context) {
	// Allow the multipart envelope on top of the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)
	fh, err := c.FormFile(mediaFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.RespondWithAppError(c, apperrors.ErrFileTooLarge)
			return
		}
		middleware.RespondWithError(c, http.StatusBadRequest, "A file is required in the \"file\" form field")
		return
	}
	if fh.Size > h.maxBytes {
		middleware.RespondWithAppError(c, apperrors.ErrFileTooLarge)
		return
	}
	data, err := readUpload(fh)
	if err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	view, err := h.commands.UploadMedia(c.Request.Context(), cqrs.UploadMediaCommand{
		Actor:    actor(c),
		FileName: fh.Filename,
		Data:     data,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *MediaHandler) GetMedia(c *gin.Context) {
	view, err := h.queries.GetMedia(c.Request.Context(), cqrs.GetMediaQuery{
		AccountID: actor(c).AccountID,
		MediaID:   c.Param("mediaId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *MediaHandler) ListMedia(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	res, err := h.queries.ListMedia(c.Request.Context(), cqrs.ListMediaQuery{
		Page:        page,
		AccountID:   actor(c).AccountID,
		ContentType: c.Query("contentType"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *MediaHandler) DownloadMedia(c *gin.Context) {
	view, rc, err := h.queries.DownloadMedia(c.Request.Context(), cqrs.GetMediaQuery{
		AccountID: actor(c).AccountID,
		MediaID:   c.Param("mediaId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, view.SizeBytes, view.ContentType, rc, map[string]string{
		"Content-Disposition": "attachment; filename=" + strconv.Quote(view.FileName),
	})
}

func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	err := h.commands.DeleteMedia(c.Request.Context(), cqrs.DeleteMediaCommand{
		Actor:   actor(c),
		MediaID: c.Param("mediaId"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
