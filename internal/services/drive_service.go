package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/yukikurage/daily-tracker/internal/blob"
	"github.com/yukikurage/daily-tracker/internal/models"
	"github.com/yukikurage/daily-tracker/internal/repository"
)

// DriveService manages the user's folders and files. File content lives in
// blob storage under <userID>/<uuid>; the store keeps the metadata.
type DriveService struct {
	store   *repository.Store
	storage blob.Storage
	logger  *slog.Logger
}

func NewDriveService(store *repository.Store, storage blob.Storage, logger *slog.Logger) *DriveService {
	return &DriveService{store: store, storage: storage, logger: logger}
}

// Folders

func (s *DriveService) CreateFolder(ctx context.Context, userID, name string, parentID *string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if parentID != nil {
		if _, err := s.GetFolder(ctx, userID, *parentID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrInvalidParent
			}
			return nil, err
		}
	}

	folder := &models.Folder{UserID: userID, Name: name, ParentID: parentID}
	if err := s.store.CreateFolder(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	return folder, nil
}

func (s *DriveService) GetFolder(ctx context.Context, userID, id string) (*models.Folder, error) {
	folder, err := s.store.GetFolder(ctx, id)
	return owned(folder, err, func(f *models.Folder) string { return f.UserID }, userID)
}

func (s *DriveService) ListFolders(ctx context.Context, userID string) ([]models.Folder, error) {
	return s.store.ListFolders(ctx, userID)
}

type UpdateFolderInput struct {
	Name       *string
	ParentID   *string
	MoveToRoot bool
}

// UpdateFolder renames or moves a folder. A folder cannot be moved below
// itself or one of its descendants.
func (s *DriveService) UpdateFolder(ctx context.Context, userID, id string, input UpdateFolderInput) (*models.Folder, error) {
	if _, err := s.GetFolder(ctx, userID, id); err != nil {
		return nil, err
	}

	patch := repository.FolderPatch{MoveToRoot: input.MoveToRoot}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		patch.Name = &name
	}
	if input.ParentID != nil && !input.MoveToRoot {
		if err := s.checkParent(ctx, userID, id, *input.ParentID); err != nil {
			return nil, err
		}
		patch.ParentID = input.ParentID
	}

	folder, err := s.store.UpdateFolder(ctx, id, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return folder, err
}

// checkParent walks up from parentID and fails if it reaches id.
func (s *DriveService) checkParent(ctx context.Context, userID, id, parentID string) error {
	seen := map[string]bool{}
	for current := &parentID; current != nil; {
		if *current == id || seen[*current] {
			return ErrInvalidParent
		}
		seen[*current] = true

		folder, err := s.GetFolder(ctx, userID, *current)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrInvalidParent
			}
			return err
		}
		current = folder.ParentID
	}
	return nil
}

// DeleteFolder removes a folder and moves its direct children, files and
// folders alike, to the root.
func (s *DriveService) DeleteFolder(ctx context.Context, userID, id string) error {
	if _, err := s.GetFolder(ctx, userID, id); err != nil {
		return err
	}

	folders, err := s.store.ListFolders(ctx, userID)
	if err != nil {
		return err
	}
	for _, f := range folders {
		if f.ParentID != nil && *f.ParentID == id {
			if _, err := s.store.UpdateFolder(ctx, f.ID, repository.FolderPatch{MoveToRoot: true}); err != nil {
				return fmt.Errorf("failed to move child folder: %w", err)
			}
		}
	}

	for _, trashed := range []bool{false, true} {
		files, err := s.listFiles(ctx, userID, trashed)
		if err != nil {
			return err
		}
		for _, f := range files {
			if f.FolderID != nil && *f.FolderID == id {
				if _, err := s.store.UpdateFile(ctx, f.ID, repository.FilePatch{MoveToRoot: true}); err != nil {
					return fmt.Errorf("failed to move child file: %w", err)
				}
			}
		}
	}

	if err := s.store.DeleteFolder(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Files

type UploadInput struct {
	Name     string
	MimeType string
	Size     int64
	FolderID *string
	Content  io.Reader
}

func (s *DriveService) Upload(ctx context.Context, userID string, input UploadInput) (*models.File, error) {
	if input.Content == nil {
		return nil, ErrFileContentMissing
	}
	original := strings.TrimSpace(input.Name)
	if original == "" {
		return nil, ErrNameRequired
	}
	if err := s.checkFolder(ctx, userID, input.FolderID); err != nil {
		return nil, err
	}

	key := path.Join(userID, uuid.NewString())
	if err := s.storage.Put(ctx, key, input.Content, input.Size, input.MimeType); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	file := &models.File{
		UserID:       userID,
		FolderID:     input.FolderID,
		Name:         path.Base(original),
		OriginalName: original,
		MimeType:     input.MimeType,
		Size:         strconv.FormatInt(input.Size, 10),
		Path:         key,
	}
	if err := s.store.CreateFile(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to save file metadata: %w", err)
	}
	s.logger.Info("file uploaded", "user_id", userID, "file_id", file.ID, "size", input.Size)
	return file, nil
}

func (s *DriveService) checkFolder(ctx context.Context, userID string, folderID *string) error {
	if folderID == nil {
		return nil
	}
	if _, err := s.GetFolder(ctx, userID, *folderID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidFolder
		}
		return err
	}
	return nil
}

// GetFile returns the file even when it is in the trash.
func (s *DriveService) GetFile(ctx context.Context, userID, id string) (*models.File, error) {
	file, err := s.store.GetFile(ctx, id)
	return owned(file, err, func(f *models.File) string { return f.UserID }, userID)
}

// ListFiles returns the live files, restricted to one folder when folderID is
// set.
func (s *DriveService) ListFiles(ctx context.Context, userID string, folderID *string) ([]models.File, error) {
	files, err := s.listFiles(ctx, userID, false)
	if err != nil || folderID == nil {
		return files, err
	}

	inFolder := []models.File{}
	for _, f := range files {
		if f.FolderID != nil && *f.FolderID == *folderID {
			inFolder = append(inFolder, f)
		}
	}
	return inFolder, nil
}

func (s *DriveService) ListTrash(ctx context.Context, userID string) ([]models.File, error) {
	return s.listFiles(ctx, userID, true)
}

func (s *DriveService) listFiles(ctx context.Context, userID string, trashed bool) ([]models.File, error) {
	if trashed {
		return s.store.ListTrashedFiles(ctx, userID)
	}
	return s.store.ListFiles(ctx, userID)
}

// Open returns the file's metadata and a reader for its content. The caller
// closes the reader.
func (s *DriveService) Open(ctx context.Context, userID, id string) (*models.File, io.ReadCloser, error) {
	file, err := s.GetFile(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.storage.Open(ctx, file.Path)
	if err != nil {
		if errors.Is(err, blob.ErrNotExist) {
			return nil, nil, ErrFileContentMissing
		}
		return nil, nil, err
	}
	return file, rc, nil
}

type UpdateFileInput struct {
	Name       *string
	FolderID   *string
	MoveToRoot bool
}

func (s *DriveService) UpdateFile(ctx context.Context, userID, id string, input UpdateFileInput) (*models.File, error) {
	if _, err := s.GetFile(ctx, userID, id); err != nil {
		return nil, err
	}

	patch := repository.FilePatch{MoveToRoot: input.MoveToRoot}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		patch.Name = &name
	}
	if input.FolderID != nil && !input.MoveToRoot {
		if err := s.checkFolder(ctx, userID, input.FolderID); err != nil {
			return nil, err
		}
		patch.FolderID = input.FolderID
	}

	file, err := s.store.UpdateFile(ctx, id, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return file, err
}

// Trash soft deletes the file. Its content is kept.
func (s *DriveService) Trash(ctx context.Context, userID, id string) (*models.File, error) {
	if _, err := s.GetFile(ctx, userID, id); err != nil {
		return nil, err
	}
	file, err := s.store.TrashFile(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return file, err
}

func (s *DriveService) Restore(ctx context.Context, userID, id string) (*models.File, error) {
	if _, err := s.GetFile(ctx, userID, id); err != nil {
		return nil, err
	}
	file, err := s.store.RestoreFile(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return file, err
}
