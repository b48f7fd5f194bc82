package v1

import (
	"net/http"
	"path/filepath"
	"strings"

	"bazarhub-backend/pkg/logger"
	"bazarhub-backend/pkg/storage"
	"bazarhub-backend/pkg/utils"
)

var (
	allowedMimeTypes = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/webp": true,
		"image/gif":  true,
	}
	allowedExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".webp": true,
		".gif":  true,
	}
)

type UploadHandler struct {
	storage       *storage.R2Storage
	maxUploadSize int64
}

func NewUploadHandler(s *storage.R2Storage, maxUploadSizeMB int64) *UploadHandler {
	return &UploadHandler{
		storage:       s,
		maxUploadSize: maxUploadSizeMB << 20,
	}
}

// UploadImage accepts a multipart image, re-encodes it (resize + webp), and
// stores it in R2. Used for product shots and refund proof screenshots alike.
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "File too large or invalid format")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedMimeTypes[contentType] {
		utils.WriteError(w, http.StatusBadRequest, "Invalid file type. Allowed: JPEG, PNG, WebP, GIF")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		utils.WriteError(w, http.StatusBadRequest, "Invalid file extension")
		return
	}

	processedData, newContentType, err := utils.ProcessImage(file)
	if err != nil {
		logger.Get().Error().Err(err).Str("filename", header.Filename).Msg("Image processing failed")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to process image")
		return
	}

	url, err := h.storage.UploadBuffer(r.Context(), processedData, newContentType)
	if err != nil {
		logger.Get().Error().Err(err).Msg("R2 upload failed")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}
