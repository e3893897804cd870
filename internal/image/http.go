package image

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/hachiran/ramensite/internal/logger"
	"github.com/hachiran/ramensite/internal/metrics"
	"go.uber.org/zap"
)

// multipartOverhead is the slack allowed on top of the image size limit for
// multipart boundaries, part headers and the folder field.
const multipartOverhead = 64 << 10

// RegisterRoutes mounts image operations under the provided router group.
// tracker is the shared transfer state exposed to the admin UI.
func RegisterRoutes(group *gin.RouterGroup, service *Service, tracker *Tracker) {
	handler := &httpHandler{service: service, tracker: tracker}
	group.POST("/images", handler.uploadImage)
	group.GET("/images", handler.listImages)
	group.DELETE("/images", handler.deleteImage)
	group.GET("/images/state", handler.state)
	group.GET("/images/state/stream", handler.streamState)
}

type httpHandler struct {
	service *Service
	tracker *Tracker
}

func (h *httpHandler) uploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.service.maxBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.ObserveUpload("too_large")
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": ErrTooLarge.Error()})
			return
		}
		metrics.ObserveUpload("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		metrics.ObserveUpload("error")
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	defer f.Close()

	img, err := h.service.Upload(c.Request.Context(), File{
		Name:        fileHeader.Filename,
		ContentType: detectContentType(fileHeader, f),
		Size:        fileHeader.Size,
		Body:        f,
	}, c.PostForm("folder"), h.tracker)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidType), errors.Is(err, ErrMissingFile):
			metrics.ObserveUpload("invalid")
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrTooLarge):
			metrics.ObserveUpload("too_large")
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": ErrTooLarge.Error()})
		case errors.Is(err, ErrObjectExists):
			metrics.ObserveUpload("conflict")
			c.JSON(http.StatusConflict, gin.H{"error": "object already exists, retry the upload"})
		default:
			metrics.ObserveUpload("error")
			_ = c.Error(err)
			logger.For(c, h.service.log).Error("upload image failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to upload image"})
		}
		return
	}

	metrics.ObserveUpload("ok")
	c.JSON(http.StatusCreated, img)
}

func (h *httpHandler) listImages(c *gin.Context) {
	images, err := h.service.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		logger.For(c, h.service.log).Error("list images failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list images"})
		return
	}
	if images == nil {
		images = []Image{}
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

// deleteImage always answers 200 for a well-formed request; storage failures
// are reported in the outcome field only.
func (h *httpHandler) deleteImage(c *gin.Context) {
	publicURL := strings.TrimSpace(c.Query("url"))
	if publicURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	result := h.service.Delete(c.Request.Context(), publicURL)
	metrics.ObserveDelete(string(result.Outcome))
	if result.Outcome == DeleteFailed {
		logger.For(c, h.service.log).Warn("delete image failed",
			zap.String("key", result.Key), zap.Error(result.Err))
	}

	c.JSON(http.StatusOK, gin.H{
		"outcome": result.Outcome,
		"key":     result.Key,
	})
}

func (h *httpHandler) state(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.Snapshot())
}

func (h *httpHandler) streamState(c *gin.Context) {
	// The stream outlives the server write timeout.
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		logger.For(c, h.service.log).Debug("state stream keeps server write deadline", zap.Error(err))
	}

	states, unsubscribe := h.tracker.Subscribe()
	defer unsubscribe()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case s, ok := <-states:
			if !ok {
				return false
			}
			c.SSEvent("state", s)
			return true
		}
	})
}

// detectContentType trusts the part header and falls back to sniffing the
// payload when the client sent none.
func detectContentType(fileHeader *multipart.FileHeader, f multipart.File) string {
	contentType := strings.TrimSpace(fileHeader.Header.Get("Content-Type"))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	mt, err := mimetype.DetectReader(f)
	if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil || err != nil {
		return "application/octet-stream"
	}
	return mt.String()
}
