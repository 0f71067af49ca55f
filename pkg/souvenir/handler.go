package souvenir

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/internal/handler"
	"github.com/partyhub/partyhub/pkg/model"
)

const maxCaptionLength = 500

// multipartOverhead allows for the form fields and boundaries around the file.
const multipartOverhead = 1 << 20

func NewHandler(logger *slog.Logger, maxUploadBytes int64, souvenirService souvenirService) Handler {
	return Handler{
		logger:          logger,
		maxUploadBytes:  maxUploadBytes,
		souvenirService: souvenirService,
	}
}

type Handler struct {
	logger          *slog.Logger
	maxUploadBytes  int64
	souvenirService souvenirService
}

type souvenirService interface {
	Upload(ctx context.Context, uploader *model.User, partyID uint, upload UploadSouvenir) (*model.Souvenir, error)
	FindByParty(ctx context.Context, partyID uint, kind string) ([]model.Souvenir, error)
	Download(ctx context.Context, id uint, dst io.Writer, header func(souvenir *model.Souvenir, contentLength int64)) error
	Delete(ctx context.Context, user *model.User, id uint) error
	Archive(ctx context.Context, partyID uint, w io.Writer, header func(filename string)) error
}

// Upload souvenir
func (h Handler) Upload(c *gin.Context) {
	// swagger:route POST /parties/{id}/souvenirs uploadSouvenir
	//
	// Upload souvenir
	//
	// Upload a photo, video or audio recording of a party. Photos are compressed. Progress is sent to the uploader as upload-progress events on the event stream.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   201: Souvenir
	//   400: Error
	//   401: Error
	//   404: Error
	//   413: Error
	//   415: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	partyID, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	file, err := c.FormFile("file")
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			_ = c.Error(errdef.NewPayloadTooLarge("upload exceeds the limit of %d bytes", h.maxUploadBytes))
			return
		}
		_ = c.Error(errdef.NewBadRequest("error reading file: %v", err))
		return
	}

	if file.Size > h.maxUploadBytes {
		_ = c.Error(errdef.NewPayloadTooLarge("souvenir is %d bytes, the limit is %d bytes", file.Size, h.maxUploadBytes))
		return
	}

	caption := c.PostForm("caption")
	if utf8.RuneCountInString(caption) > maxCaptionLength {
		_ = c.Error(errdef.NewBadRequest("caption can't be longer than %d characters", maxCaptionLength))
		return
	}

	f, err := file.Open()
	if err != nil {
		_ = c.Error(fmt.Errorf("error opening souvenir: %v", err))
		return
	}
	defer f.Close()

	souvenir, err := h.souvenirService.Upload(c.Request.Context(), user, partyID, UploadSouvenir{
		Filename: file.Filename,
		Caption:  caption,
		Body:     f,
		Size:     file.Size,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, souvenir)
}

// FindByParty souvenir
func (h Handler) FindByParty(c *gin.Context) {
	// swagger:route GET /parties/{id}/souvenirs findSouvenirs
	//
	// Find souvenirs
	//
	// Souvenirs of a party, newest first
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: []Souvenir
	//   400: Error
	//   401: Error
	//   404: Error
	partyID, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	souvenirs, err := h.souvenirService.FindByParty(c.Request.Context(), partyID, c.Query("kind"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, souvenirs)
}

// Download souvenir
func (h Handler) Download(c *gin.Context) {
	// swagger:route GET /souvenirs/{id}/download downloadSouvenir
	//
	// Download souvenir
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: DownloadResponse
	//   400: Error
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	err := h.souvenirService.Download(c.Request.Context(), id, c.Writer, func(souvenir *model.Souvenir, contentLength int64) {
		c.Header("Content-Type", souvenir.ContentType)
		c.Header("Content-Length", strconv.FormatInt(contentLength, 10))
		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": souvenir.OriginalName}))
		c.Status(http.StatusOK)
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
}

// Delete souvenir
func (h Handler) Delete(c *gin.Context) {
	// swagger:route DELETE /souvenirs/{id} deleteSouvenir
	//
	// Delete souvenir
	//
	// The uploader, the party creator and administrators may delete a souvenir.
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   202:
	//   400: Error
	//   401: Error
	//   403: Error
	//   404: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	if err := h.souvenirService.Delete(c.Request.Context(), user, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusAccepted)
}

// Archive souvenir
func (h Handler) Archive(c *gin.Context) {
	// swagger:route GET /parties/{id}/souvenirs/archive archiveSouvenirs
	//
	// Download souvenirs
	//
	// All souvenirs of a party as a gzipped tarball
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: DownloadResponse
	//   400: Error
	//   401: Error
	//   404: Error
	partyID, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	streaming := false
	err := h.souvenirService.Archive(c.Request.Context(), partyID, c.Writer, func(filename string) {
		streaming = true
		c.Header("Content-Type", "application/gzip")
		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
		c.Status(http.StatusOK)
	})
	if err != nil {
		if streaming {
			h.logger.ErrorContext(c.Request.Context(), "Failed to stream souvenir archive", "partyId", partyID, "error", err)
			return
		}
		_ = c.Error(err)
		return
	}
}
