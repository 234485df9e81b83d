package transport

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/anime-shed/table-cropper-go/internal/config"
	apperrors "github.com/anime-shed/table-cropper-go/internal/errors"
	"github.com/anime-shed/table-cropper-go/internal/logger"
	"github.com/anime-shed/table-cropper-go/internal/service"
	"github.com/anime-shed/table-cropper-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
)

const imageField = "image"

// MetricsProvider exposes the counters served on /api/metrics
type MetricsProvider interface {
	GetMetrics() map[string]interface{}
}

type handler struct {
	svc     service.TableCropService
	metrics MetricsProvider
	cfg     *config.Config
}

func NewHandler(svc service.TableCropService, metrics MetricsProvider, cfg *config.Config) http.Handler {
	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		corsMiddleware(),
		requestID(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		requestTimeout(cfg.RequestTimeout),
	)

	h := &handler{svc: svc, metrics: metrics, cfg: cfg}

	// Configure routes
	api := r.Group("/api")
	api.GET("/health", h.healthCheck)
	api.GET("/metrics", h.metricsSnapshot)
	api.POST("/crop-preview", h.cropPreview)
	api.POST("/split-halves", h.splitHalves)

	return r
}

func (h *handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Service: h.cfg.ServiceName,
		Version: h.cfg.ServiceVersion,
	})
}

func (h *handler) metricsSnapshot(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, h.metrics.GetMetrics())
}

func (h *handler) cropPreview(c *gin.Context) {
	source, found, err := h.fileSource(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		respondError(c, apperrors.NewValidationError("Field 'image' is required", nil))
		return
	}

	asset, err := h.svc.CropPreview(c.Request.Context(), source)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CropPreviewResponse{
		Status:   "success",
		Filename: asset.Filename,
		URL:      asset.URL,
	})
}

func (h *handler) splitHalves(c *gin.Context) {
	source, hasFile, err := h.fileSource(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var form models.SplitHalvesForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		respondError(c, h.bodyError(err))
		return
	}
	imageURL := strings.TrimSpace(form.ImageURL)

	switch {
	case hasFile == (imageURL != ""):
		respondError(c, apperrors.AmbiguousOrMissingSource())
		return
	case !hasFile:
		source = models.RemoteReference(imageURL)
	}

	top, bottom, err := h.svc.SplitHalves(c.Request.Context(), source)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SplitHalvesResponse{
		Status:     "success",
		TopHalf:    top,
		BottomHalf: bottom,
	})
}

// fileSource reads the multipart image field. found is false when the field
// is absent or the request is not multipart at all.
func (h *handler) fileSource(c *gin.Context) (source models.UploadSource, found bool, err error) {
	fh, err := c.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return source, false, nil
		}
		return source, false, h.bodyError(err)
	}

	data, err := readUpload(fh)
	if err != nil {
		return source, false, h.bodyError(err)
	}
	return models.FileUpload(data, fh.Filename, fh.Header.Get("Content-Type")), true, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *handler) bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.RequestTooLarge(tooLarge.Limit)
	}
	// some multipart paths flatten the MaxBytesReader error into text
	if strings.Contains(err.Error(), "request body too large") {
		return apperrors.RequestTooLarge(h.cfg.MaxRequestBodySize)
	}
	return apperrors.NewValidationError("Invalid form data", err)
}

func respondError(c *gin.Context, err error) {
	code := apperrors.GetStatusCode(err)
	detail := apperrors.Detail(err)

	entry := logger.WithRequestID(c.GetString(requestIDKey)).WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if apperrors.IsClientError(err) {
		entry.Warn("Request rejected")
	} else {
		entry.Error("Request failed")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{Detail: detail})
}
