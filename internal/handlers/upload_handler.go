package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/developia-II/storefront-backend/internal/core/domain"
	"github.com/developia-II/storefront-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxUploadSize = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type UploadHandler struct {
	Uploader domain.ImageUploader
	Log      logrus.FieldLogger
}

func NewUploadHandler(uploader domain.ImageUploader, log logrus.FieldLogger) *UploadHandler {
	return &UploadHandler{Uploader: uploader, Log: log}
}

// UploadImage handles POST /admin/upload. The content type is sniffed from
// the file, not trusted from the client.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, utils.CodedErrorResponse("UPLOAD_DISABLED", "Image uploads are not configured"))
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.CodedErrorResponse("INVALID_FILE", "No file provided or file too large (Max 10MB)"))
		return
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, utils.CodedErrorResponse("INVALID_FILE", "Failed to read file"))
		return
	}
	contentType := http.DetectContentType(buffer[:n])
	if !allowedImageTypes[contentType] {
		c.JSON(http.StatusBadRequest, utils.CodedErrorResponse("UNSUPPORTED_TYPE", "Unsupported file type. Please upload JPG, PNG, WEBP, or GIF"))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		respondError(c, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	url, err := h.Uploader.Upload(ctx, file, header.Filename)
	if err != nil {
		h.Log.WithError(err).WithField("filename", header.Filename).Error("image upload failed")
		c.JSON(http.StatusBadGateway, utils.CodedErrorResponse("UPLOAD_FAILED", "Image upload failed"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Image uploaded successfully", gin.H{
		"url":  url,
		"size": header.Size,
		"type": contentType,
	}))
}
