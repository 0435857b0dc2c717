package repository

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/daily-tracker/internal/constants"
	"github.com/yukikurage/daily-tracker/internal/models"
)

// Mode is the backend currently serving the store.
type Mode int32

const (
	ModeDatabase Mode = iota
	ModeMemory
)

func (m Mode) String() string {
	if m == ModeDatabase {
		return "database"
	}
	return "memory"
}

// Store is the record store used by the services. It serves every operation
// from the database backend until the first database failure, then switches to
// the in-memory backend for the rest of the process lifetime and replays the
// failed operation there. Callers only see ErrNotFound, or the context error
// when their own context was canceled or timed out.
type Store struct {
	primary  Backend
	fallback Backend
	mode     atomic.Int32
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator overrides the record id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// New creates a Store. A nil primary starts the store in memory mode.
func New(primary Backend, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		primary:  primary,
		fallback: NewMemoryBackend(),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if primary == nil {
		s.mode.Store(int32(ModeMemory))
	}
	return s
}

// Mode reports which backend is active.
func (s *Store) Mode() Mode {
	return Mode(s.mode.Load())
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) failover(op string, err error) {
	if s.mode.CompareAndSwap(int32(ModeDatabase), int32(ModeMemory)) {
		s.logger.Error("database operation failed, switching to in-memory storage",
			"op", op, "error", err)
	}
}

// run executes fn against the active backend. A database failure other than
// ErrNotFound flips the store into memory mode and fn is executed again there.
// An error caused by the caller's own context ending is returned as is and
// leaves the mode unchanged.
func run[T any](ctx context.Context, s *Store, op string, fn func(Backend) (T, error)) (T, error) {
	if s.Mode() == ModeDatabase {
		v, err := fn(s.primary)
		if err == nil || errors.Is(err, ErrNotFound) || canceledBy(ctx, err) {
			return v, err
		}
		s.failover(op, err)
	}
	return fn(s.fallback)
}

func canceledBy(ctx context.Context, err error) bool {
	ctxErr := ctx.Err()
	return ctxErr != nil && errors.Is(err, ctxErr)
}

func exec(ctx context.Context, s *Store, op string, fn func(Backend) error) error {
	_, err := run(ctx, s, op, func(b Backend) (struct{}, error) {
		return struct{}{}, fn(b)
	})
	return err
}

// stamp fills the generated fields of a new record.
func (s *Store) stamp(id, userID *string, createdAt, updatedAt *time.Time) {
	if *id == "" {
		*id = s.newID()
	}
	if userID != nil && *userID == "" {
		*userID = constants.DefaultUserID
	}
	now := s.now()
	*createdAt = now
	*updatedAt = now
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.stamp(&user.ID, nil, &user.CreatedAt, &user.UpdatedAt)
	return exec(ctx, s, "create user", func(b Backend) error { return b.CreateUser(ctx, user) })
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return run(ctx, s, "get user", func(b Backend) (*models.User, error) { return b.GetUser(ctx, id) })
}

func (s *Store) FindUser(ctx context.Context, by UserLookup, value string) (*models.User, error) {
	return run(ctx, s, "find user", func(b Backend) (*models.User, error) { return b.FindUser(ctx, by, value) })
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch UserPatch) (*models.User, error) {
	at := s.now()
	return run(ctx, s, "update user", func(b Backend) (*models.User, error) { return b.UpdateUser(ctx, id, patch, at) })
}

// DeleteUser removes the user together with its jobs, tasks, notes, files and folders.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return exec(ctx, s, "delete user", func(b Backend) error { return b.DeleteUser(ctx, id) })
}

// Jobs

func (s *Store) CreateJob(ctx context.Context, job *models.Job) error {
	s.stamp(&job.ID, &job.UserID, &job.CreatedAt, &job.UpdatedAt)
	return exec(ctx, s, "create job", func(b Backend) error { return b.CreateJob(ctx, job) })
}

func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	return run(ctx, s, "get job", func(b Backend) (*models.Job, error) { return b.GetJob(ctx, id) })
}

func (s *Store) ListJobs(ctx context.Context, userID string) ([]models.Job, error) {
	return run(ctx, s, "list jobs", func(b Backend) ([]models.Job, error) { return b.ListJobs(ctx, userID) })
}

func (s *Store) UpdateJob(ctx context.Context, id string, patch JobPatch) (*models.Job, error) {
	at := s.now()
	return run(ctx, s, "update job", func(b Backend) (*models.Job, error) { return b.UpdateJob(ctx, id, patch, at) })
}

func (s *Store) DeleteJob(ctx context.Context, id string) error {
	return exec(ctx, s, "delete job", func(b Backend) error { return b.DeleteJob(ctx, id) })
}

// Tasks

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	s.stamp(&task.ID, &task.UserID, &task.CreatedAt, &task.UpdatedAt)
	if task.AddedDate.IsZero() {
		task.AddedDate = task.CreatedAt
	}
	return exec(ctx, s, "create task", func(b Backend) error { return b.CreateTask(ctx, task) })
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return run(ctx, s, "get task", func(b Backend) (*models.Task, error) { return b.GetTask(ctx, id) })
}

func (s *Store) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	return run(ctx, s, "list tasks", func(b Backend) ([]models.Task, error) { return b.ListTasks(ctx, userID) })
}

func (s *Store) ListTasksSince(ctx context.Context, userID string, since time.Time) ([]models.Task, error) {
	return run(ctx, s, "list tasks since", func(b Backend) ([]models.Task, error) {
		return b.ListTasksSince(ctx, userID, since)
	})
}

func (s *Store) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*models.Task, error) {
	at := s.now()
	return run(ctx, s, "update task", func(b Backend) (*models.Task, error) { return b.UpdateTask(ctx, id, patch, at) })
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return exec(ctx, s, "delete task", func(b Backend) error { return b.DeleteTask(ctx, id) })
}

// Notes

func (s *Store) CreateNote(ctx context.Context, note *models.Note) error {
	s.stamp(&note.ID, &note.UserID, &note.CreatedAt, &note.UpdatedAt)
	return exec(ctx, s, "create note", func(b Backend) error { return b.CreateNote(ctx, note) })
}

func (s *Store) GetNote(ctx context.Context, id string) (*models.Note, error) {
	return run(ctx, s, "get note", func(b Backend) (*models.Note, error) { return b.GetNote(ctx, id) })
}

func (s *Store) ListNotes(ctx context.Context, userID string) ([]models.Note, error) {
	return run(ctx, s, "list notes", func(b Backend) ([]models.Note, error) { return b.ListNotes(ctx, userID) })
}

func (s *Store) UpdateNote(ctx context.Context, id string, patch NotePatch) (*models.Note, error) {
	at := s.now()
	return run(ctx, s, "update note", func(b Backend) (*models.Note, error) { return b.UpdateNote(ctx, id, patch, at) })
}

func (s *Store) DeleteNote(ctx context.Context, id string) error {
	return exec(ctx, s, "delete note", func(b Backend) error { return b.DeleteNote(ctx, id) })
}

// Folders

func (s *Store) CreateFolder(ctx context.Context, folder *models.Folder) error {
	s.stamp(&folder.ID, &folder.UserID, &folder.CreatedAt, &folder.UpdatedAt)
	return exec(ctx, s, "create folder", func(b Backend) error { return b.CreateFolder(ctx, folder) })
}

func (s *Store) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	return run(ctx, s, "get folder", func(b Backend) (*models.Folder, error) { return b.GetFolder(ctx, id) })
}

func (s *Store) ListFolders(ctx context.Context, userID string) ([]models.Folder, error) {
	return run(ctx, s, "list folders", func(b Backend) ([]models.Folder, error) { return b.ListFolders(ctx, userID) })
}

func (s *Store) UpdateFolder(ctx context.Context, id string, patch FolderPatch) (*models.Folder, error) {
	at := s.now()
	return run(ctx, s, "update folder", func(b Backend) (*models.Folder, error) {
		return b.UpdateFolder(ctx, id, patch, at)
	})
}

func (s *Store) DeleteFolder(ctx context.Context, id string) error {
	return exec(ctx, s, "delete folder", func(b Backend) error { return b.DeleteFolder(ctx, id) })
}

// Files

func (s *Store) CreateFile(ctx context.Context, file *models.File) error {
	s.stamp(&file.ID, &file.UserID, &file.CreatedAt, &file.UpdatedAt)
	file.IsTrashed = false
	file.TrashedAt = nil
	return exec(ctx, s, "create file", func(b Backend) error { return b.CreateFile(ctx, file) })
}

// GetFile returns the file whether or not it is trashed.
func (s *Store) GetFile(ctx context.Context, id string) (*models.File, error) {
	return run(ctx, s, "get file", func(b Backend) (*models.File, error) { return b.GetFile(ctx, id) })
}

// ListFiles returns the user's files that are not in the trash.
func (s *Store) ListFiles(ctx context.Context, userID string) ([]models.File, error) {
	return run(ctx, s, "list files", func(b Backend) ([]models.File, error) { return b.ListFiles(ctx, userID, false) })
}

func (s *Store) ListTrashedFiles(ctx context.Context, userID string) ([]models.File, error) {
	return run(ctx, s, "list trashed files", func(b Backend) ([]models.File, error) {
		return b.ListFiles(ctx, userID, true)
	})
}

func (s *Store) UpdateFile(ctx context.Context, id string, patch FilePatch) (*models.File, error) {
	at := s.now()
	return run(ctx, s, "update file", func(b Backend) (*models.File, error) { return b.UpdateFile(ctx, id, patch, at) })
}

// TrashFile soft deletes a file.
func (s *Store) TrashFile(ctx context.Context, id string) (*models.File, error) {
	trashed := true
	at := s.now()
	return s.UpdateFile(ctx, id, FilePatch{IsTrashed: &trashed, TrashedAt: &at})
}

func (s *Store) RestoreFile(ctx context.Context, id string) (*models.File, error) {
	trashed := false
	return s.UpdateFile(ctx, id, FilePatch{IsTrashed: &trashed, ClearTrashedAt: true})
}

// OTP codes

func (s *Store) SaveOTP(ctx context.Context, otp *models.OTP) error {
	return exec(ctx, s, "save otp", func(b Backend) error { return b.SaveOTP(ctx, otp) })
}

func (s *Store) GetOTP(ctx context.Context, identifier string, channel models.OTPChannel) (*models.OTP, error) {
	return run(ctx, s, "get otp", func(b Backend) (*models.OTP, error) { return b.GetOTP(ctx, identifier, channel) })
}

func (s *Store) DeleteOTP(ctx context.Context, identifier string, channel models.OTPChannel) error {
	return exec(ctx, s, "delete otp", func(b Backend) error { return b.DeleteOTP(ctx, identifier, channel) })
}
