package handlers

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/daily-tracker/internal/constants"
	apierrors "github.com/yukikurage/daily-tracker/internal/errors"
	"github.com/yukikurage/daily-tracker/internal/middleware"
	"github.com/yukikurage/daily-tracker/internal/models"
	"github.com/yukikurage/daily-tracker/internal/services"
)

const (
	entityFolder = "folder"
	entityFile   = "file"

	folderKey = "folder"
	fileKey   = "file"

	defaultMimeType = "application/octet-stream"
)

// DriveHandler serves the folder tree and file storage.
type DriveHandler struct {
	driveService *services.DriveService
	events       Broadcaster
}

func NewDriveHandler(driveService *services.DriveService, events Broadcaster) *DriveHandler {
	return &DriveHandler{
		driveService: driveService,
		events:       events,
	}
}

func (h *DriveHandler) LoadFolder() gin.HandlerFunc {
	return middleware.RequireOwnership(folderKey, h.driveService.GetFolder)
}

func (h *DriveHandler) LoadFile() gin.HandlerFunc {
	return middleware.RequireOwnership(fileKey, h.driveService.GetFile)
}

// Folders

func (h *DriveHandler) ListFolders(c *gin.Context) {
	folders, err := h.driveService.ListFolders(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"folders": folders,
	})
}

func (h *DriveHandler) GetFolder(c *gin.Context) {
	folder, ok := middleware.Loaded[models.Folder](c, folderKey)
	if !ok {
		apierrors.NotFound(c, "")
		return
	}
	c.JSON(http.StatusOK, folder)
}

func (h *DriveHandler) CreateFolder(c *gin.Context) {
	type CreateFolderRequest struct {
		Name     string  `json:"name" binding:"required"`
		ParentID *string `json:"parentId"`
	}

	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	folder, err := h.driveService.CreateFolder(c.Request.Context(), currentUserID(c), req.Name, req.ParentID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.events.Broadcast(event(entityFolder, actionCreated), folder)
	c.JSON(http.StatusCreated, folder)
}

// UpdateFolder renames or moves a folder. moveToRoot detaches it from its
// parent.
func (h *DriveHandler) UpdateFolder(c *gin.Context) {
	type UpdateFolderRequest struct {
		Name       *string `json:"name"`
		ParentID   *string `json:"parentId"`
		MoveToRoot bool    `json:"moveToRoot"`
	}

	var req UpdateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	folder, err := h.driveService.UpdateFolder(c.Request.Context(), currentUserID(c), c.Param("id"), services.UpdateFolderInput{
		Name:       req.Name,
		ParentID:   req.ParentID,
		MoveToRoot: req.MoveToRoot,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.events.Broadcast(event(entityFolder, actionUpdated), folder)
	c.JSON(http.StatusOK, folder)
}

func (h *DriveHandler) DeleteFolder(c *gin.Context) {
	id := c.Param("id")
	if err := h.driveService.DeleteFolder(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}

	h.events.Broadcast(event(entityFolder, actionDeleted), deletedPayload{ID: id})
	c.JSON(http.StatusOK, gin.H{
		"message": "Folder deleted successfully",
	})
}

// Files

// ListFiles returns live files, limited to one folder by ?folderId=.
func (h *DriveHandler) ListFiles(c *gin.Context) {
	var folderID *string
	if id := c.Query("folderId"); id != "" {
		folderID = &id
	}

	files, err := h.driveService.ListFiles(c.Request.Context(), currentUserID(c), folderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"files": files,
	})
}

func (h *DriveHandler) ListTrash(c *gin.Context) {
	files, err := h.driveService.ListTrash(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"files": files,
	})
}

func (h *DriveHandler) GetFile(c *gin.Context) {
	file, ok := middleware.Loaded[models.File](c, fileKey)
	if !ok {
		apierrors.NotFound(c, "")
		return
	}
	c.JSON(http.StatusOK, file)
}

// UploadFile stores the multipart "file" field, optionally inside the folder
// named by the "folderId" field.
func (h *DriveHandler) UploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, constants.MaxUploadSize)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.PayloadTooLarge(c, "File exceeds the upload limit")
			return
		}
		apierrors.BadRequest(c, "file is required")
		return
	}

	content, err := header.Open()
	if err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "Failed to read upload")
		return
	}
	defer content.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	var folderID *string
	if id := c.PostForm("folderId"); id != "" {
		folderID = &id
	}

	file, err := h.driveService.Upload(c.Request.Context(), currentUserID(c), services.UploadInput{
		Name:     header.Filename,
		MimeType: mimeType,
		Size:     header.Size,
		FolderID: folderID,
		Content:  content,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.events.Broadcast(event(entityFile, actionCreated), file)
	c.JSON(http.StatusCreated, file)
}

// DownloadFile streams the stored content as an attachment.
func (h *DriveHandler) DownloadFile(c *gin.Context) {
	file, content, err := h.driveService.Open(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer content.Close()

	size, err := strconv.ParseInt(file.Size, 10, 64)
	if err != nil {
		size = -1
	}

	c.DataFromReader(http.StatusOK, size, file.MimeType, content, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}),
	})
}

// UpdateFile renames a file or moves it between folders.
func (h *DriveHandler) UpdateFile(c *gin.Context) {
	type UpdateFileRequest struct {
		Name       *string `json:"name"`
		FolderID   *string `json:"folderId"`
		MoveToRoot bool    `json:"moveToRoot"`
	}

	var req UpdateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	file, err := h.driveService.UpdateFile(c.Request.Context(), currentUserID(c), c.Param("id"), services.UpdateFileInput{
		Name:       req.Name,
		FolderID:   req.FolderID,
		MoveToRoot: req.MoveToRoot,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.events.Broadcast(event(entityFile, actionUpdated), file)
	c.JSON(http.StatusOK, file)
}

// DeleteFile moves the file to the trash.
func (h *DriveHandler) DeleteFile(c *gin.Context) {
	file, err := h.driveService.Trash(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.events.Broadcast(event(entityFile, actionDeleted), deletedPayload{ID: file.ID})
	c.JSON(http.StatusOK, file)
}

func (h *DriveHandler) RestoreFile(c *gin.Context) {
	file, err := h.driveService.Restore(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.events.Broadcast(event(entityFile, actionUpdated), file)
	c.JSON(http.StatusOK, file)
}
