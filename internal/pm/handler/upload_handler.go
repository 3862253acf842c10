package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/keramy/formulapmv2-sub007/internal/pm/service"
)

// UploadHandler delivery photo uploads and downloads backed by object storage
type UploadHandler struct {
	storage *service.StorageService
}

func NewUploadHandler(storage *service.StorageService) *UploadHandler {
	return &UploadHandler{storage: storage}
}

// UploadedFile uploaded object reference, stored on the delivery record
type UploadedFile struct {
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// UploadPhotos accepts one or more delivery photos
// POST /api/v1/uploads/delivery-photos
func (h *UploadHandler) UploadPhotos(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, "cannot parse upload: "+err.Error())
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		BadRequest(c, "no files uploaded")
		return
	}

	var uploaded []UploadedFile
	for _, fileHeader := range files {
		src, err := fileHeader.Open()
		if err != nil {
			InternalError(c, "read upload: "+err.Error())
			return
		}

		contentType := fileHeader.Header.Get("Content-Type")
		path, err := h.storage.UploadDeliveryPhoto(c.Request.Context(), src, fileHeader.Filename, fileHeader.Size, contentType)
		src.Close()
		if err != nil {
			RespondError(c, err)
			return
		}

		uploaded = append(uploaded, UploadedFile{
			Path:        path,
			Filename:    fileHeader.Filename,
			Size:        fileHeader.Size,
			ContentType: contentType,
		})
	}

	Created(c, uploaded)
}

// DownloadPhoto streams a stored photo
// GET /api/v1/uploads/delivery-photos/*path
func (h *UploadHandler) DownloadPhoto(c *gin.Context) {
	objectName := c.Param("path")
	if len(objectName) > 0 && objectName[0] == '/' {
		objectName = objectName[1:]
	}
	if objectName == "" {
		BadRequest(c, "missing object path")
		return
	}

	object, err := h.storage.Download(c.Request.Context(), objectName)
	if err != nil {
		RespondError(c, err)
		return
	}
	defer object.Close()

	c.Header("Content-Type", "application/octet-stream")
	if _, err := io.Copy(c.Writer, object); err != nil {
		c.Error(err)
	}
}
