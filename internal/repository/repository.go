package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/daily-tracker/internal/models"
)

// ErrNotFound is returned when the requested record does not exist in the
// active backend. It is the only error that never triggers a failover.
var ErrNotFound = errors.New("record not found")

// UserLookup names a unique user attribute usable for lookups.
type UserLookup string

const (
	ByEmail    UserLookup = "email"
	ByPhone    UserLookup = "phone"
	ByUsername UserLookup = "username"
)

// Backend is a storage engine able to serve every store operation.
// Implementations return ErrNotFound for absent records and any other error
// for engine failures.
type Backend interface {
	// CreateUser inserts a fully populated user.
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	// FindUser looks a user up by one of its unique attributes.
	FindUser(ctx context.Context, by UserLookup, value string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch, at time.Time) (*models.User, error)
	// DeleteUser removes the user and everything the user owns.
	DeleteUser(ctx context.Context, id string) error

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context, userID string) ([]models.Job, error)
	UpdateJob(ctx context.Context, id string, patch JobPatch, at time.Time) (*models.Job, error)
	DeleteJob(ctx context.Context, id string) error

	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasks(ctx context.Context, userID string) ([]models.Task, error)
	// ListTasksSince returns the user's tasks created at or after since.
	ListTasksSince(ctx context.Context, userID string, since time.Time) ([]models.Task, error)
	UpdateTask(ctx context.Context, id string, patch TaskPatch, at time.Time) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error

	CreateNote(ctx context.Context, note *models.Note) error
	GetNote(ctx context.Context, id string) (*models.Note, error)
	ListNotes(ctx context.Context, userID string) ([]models.Note, error)
	UpdateNote(ctx context.Context, id string, patch NotePatch, at time.Time) (*models.Note, error)
	DeleteNote(ctx context.Context, id string) error

	CreateFolder(ctx context.Context, folder *models.Folder) error
	GetFolder(ctx context.Context, id string) (*models.Folder, error)
	ListFolders(ctx context.Context, userID string) ([]models.Folder, error)
	UpdateFolder(ctx context.Context, id string, patch FolderPatch, at time.Time) (*models.Folder, error)
	DeleteFolder(ctx context.Context, id string) error

	CreateFile(ctx context.Context, file *models.File) error
	GetFile(ctx context.Context, id string) (*models.File, error)
	// ListFiles returns either the user's live files or, when trashed is
	// true, the user's trashed files.
	ListFiles(ctx context.Context, userID string, trashed bool) ([]models.File, error)
	UpdateFile(ctx context.Context, id string, patch FilePatch, at time.Time) (*models.File, error)

	// SaveOTP stores otp, replacing any record for the same identifier and type.
	SaveOTP(ctx context.Context, otp *models.OTP) error
	GetOTP(ctx context.Context, identifier string, channel models.OTPChannel) (*models.OTP, error)
	// DeleteOTP is a no-op when no record exists.
	DeleteOTP(ctx context.Context, identifier string, channel models.OTPChannel) error
}
