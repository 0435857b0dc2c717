package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/yukikurage/daily-tracker/internal/models"
)

// table is a mutex-guarded map of records keyed by id. Records are deep copied
// on the way in and out so callers never share memory with the table.
type table[T any] struct {
	mu      sync.RWMutex
	rows    map[string]T
	id      func(*T) string
	owner   func(*T) string
	created func(*T) time.Time
	clone   func(T) T
}

func newTable[T any](id, owner func(*T) string, created func(*T) time.Time, clone func(T) T) *table[T] {
	if clone == nil {
		clone = func(row T) T { return row }
	}
	return &table[T]{
		rows:    make(map[string]T),
		id:      id,
		owner:   owner,
		created: created,
		clone:   clone,
	}
}

func (t *table[T]) put(row *T) {
	t.mu.Lock()
	t.rows[t.id(row)] = t.clone(*row)
	t.mu.Unlock()
}

func (t *table[T]) get(id string) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := t.clone(row)
	return &out, nil
}

// find returns the first row that satisfies match.
func (t *table[T]) find(match func(*T) bool) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, row := range t.rows {
		if match(&row) {
			out := t.clone(row)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// list returns the rows owned by userID that satisfy keep, newest first.
func (t *table[T]) list(userID string, keep func(*T) bool) []T {
	t.mu.RLock()
	rows := []T{}
	for _, row := range t.rows {
		if t.owner(&row) != userID {
			continue
		}
		if keep != nil && !keep(&row) {
			continue
		}
		rows = append(rows, t.clone(row))
	}
	t.mu.RUnlock()

	slices.SortFunc(rows, func(a, b T) int {
		return t.created(&b).Compare(t.created(&a))
	})
	return rows
}

func (t *table[T]) update(id string, apply func(*T)) (*T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	row = t.clone(row)
	apply(&row)
	t.rows[id] = t.clone(row)
	return &row, nil
}

func (t *table[T]) delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

func (t *table[T]) deleteOwnedBy(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, row := range t.rows {
		if t.owner(&row) == userID {
			delete(t.rows, id)
		}
	}
}

func clonePtr[V any](p *V) *V {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUser(u models.User) models.User {
	u.Phone = clonePtr(u.Phone)
	return u
}

func cloneJob(j models.Job) models.Job {
	j.AnalyzedDate = clonePtr(j.AnalyzedDate)
	return j
}

func cloneFolder(f models.Folder) models.Folder {
	f.ParentID = clonePtr(f.ParentID)
	return f
}

func cloneFile(f models.File) models.File {
	f.FolderID = clonePtr(f.FolderID)
	f.TrashedAt = clonePtr(f.TrashedAt)
	return f
}

type otpKey struct {
	identifier string
	channel    models.OTPChannel
}

// MemoryBackend keeps every table in process memory. Its contents are lost on
// restart. All operations are safe for concurrent use.
type MemoryBackend struct {
	users   *table[models.User]
	jobs    *table[models.Job]
	tasks   *table[models.Task]
	notes   *table[models.Note]
	folders *table[models.Folder]
	files   *table[models.File]

	otpMu sync.Mutex
	otps  map[otpKey]models.OTP
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		users: newTable(
			func(u *models.User) string { return u.ID },
			func(u *models.User) string { return u.ID },
			func(u *models.User) time.Time { return u.CreatedAt },
			cloneUser,
		),
		jobs: newTable(
			func(j *models.Job) string { return j.ID },
			func(j *models.Job) string { return j.UserID },
			func(j *models.Job) time.Time { return j.CreatedAt },
			cloneJob,
		),
		tasks: newTable(
			func(t *models.Task) string { return t.ID },
			func(t *models.Task) string { return t.UserID },
			func(t *models.Task) time.Time { return t.CreatedAt },
			nil,
		),
		notes: newTable(
			func(n *models.Note) string { return n.ID },
			func(n *models.Note) string { return n.UserID },
			func(n *models.Note) time.Time { return n.CreatedAt },
			nil,
		),
		folders: newTable(
			func(f *models.Folder) string { return f.ID },
			func(f *models.Folder) string { return f.UserID },
			func(f *models.Folder) time.Time { return f.CreatedAt },
			cloneFolder,
		),
		files: newTable(
			func(f *models.File) string { return f.ID },
			func(f *models.File) string { return f.UserID },
			func(f *models.File) time.Time { return f.CreatedAt },
			cloneFile,
		),
		otps: make(map[otpKey]models.OTP),
	}
}

func (m *MemoryBackend) CreateUser(_ context.Context, user *models.User) error {
	m.users.put(user)
	return nil
}

func (m *MemoryBackend) GetUser(_ context.Context, id string) (*models.User, error) {
	return m.users.get(id)
}

func (m *MemoryBackend) FindUser(_ context.Context, by UserLookup, value string) (*models.User, error) {
	var match func(*models.User) bool
	switch by {
	case ByEmail:
		match = func(u *models.User) bool { return u.Email == value }
	case ByPhone:
		match = func(u *models.User) bool { return u.Phone != nil && *u.Phone == value }
	case ByUsername:
		match = func(u *models.User) bool { return u.Username == value }
	default:
		return nil, fmt.Errorf("unsupported user lookup %q", by)
	}

	return m.users.find(match)
}

func (m *MemoryBackend) UpdateUser(_ context.Context, id string, patch UserPatch, at time.Time) (*models.User, error) {
	return m.users.update(id, func(u *models.User) {
		patch.Apply(u)
		u.UpdatedAt = at
	})
}

func (m *MemoryBackend) DeleteUser(_ context.Context, id string) error {
	user, err := m.users.get(id)
	if err != nil {
		return err
	}

	m.jobs.deleteOwnedBy(id)
	m.tasks.deleteOwnedBy(id)
	m.notes.deleteOwnedBy(id)
	m.files.deleteOwnedBy(id)
	m.folders.deleteOwnedBy(id)

	m.otpMu.Lock()
	for key := range m.otps {
		if key.identifier == user.Email || (user.Phone != nil && key.identifier == *user.Phone) {
			delete(m.otps, key)
		}
	}
	m.otpMu.Unlock()

	return m.users.delete(id)
}

func (m *MemoryBackend) CreateJob(_ context.Context, job *models.Job) error {
	m.jobs.put(job)
	return nil
}

func (m *MemoryBackend) GetJob(_ context.Context, id string) (*models.Job, error) {
	return m.jobs.get(id)
}

func (m *MemoryBackend) ListJobs(_ context.Context, userID string) ([]models.Job, error) {
	return m.jobs.list(userID, nil), nil
}

func (m *MemoryBackend) UpdateJob(_ context.Context, id string, patch JobPatch, at time.Time) (*models.Job, error) {
	return m.jobs.update(id, func(j *models.Job) {
		patch.Apply(j)
		j.UpdatedAt = at
	})
}

func (m *MemoryBackend) DeleteJob(_ context.Context, id string) error {
	return m.jobs.delete(id)
}

func (m *MemoryBackend) CreateTask(_ context.Context, task *models.Task) error {
	m.tasks.put(task)
	return nil
}

func (m *MemoryBackend) GetTask(_ context.Context, id string) (*models.Task, error) {
	return m.tasks.get(id)
}

func (m *MemoryBackend) ListTasks(_ context.Context, userID string) ([]models.Task, error) {
	return m.tasks.list(userID, nil), nil
}

func (m *MemoryBackend) ListTasksSince(_ context.Context, userID string, since time.Time) ([]models.Task, error) {
	return m.tasks.list(userID, func(t *models.Task) bool {
		return !t.CreatedAt.Before(since)
	}), nil
}

func (m *MemoryBackend) UpdateTask(_ context.Context, id string, patch TaskPatch, at time.Time) (*models.Task, error) {
	return m.tasks.update(id, func(t *models.Task) {
		patch.Apply(t)
		t.UpdatedAt = at
	})
}

func (m *MemoryBackend) DeleteTask(_ context.Context, id string) error {
	return m.tasks.delete(id)
}

func (m *MemoryBackend) CreateNote(_ context.Context, note *models.Note) error {
	m.notes.put(note)
	return nil
}

func (m *MemoryBackend) GetNote(_ context.Context, id string) (*models.Note, error) {
	return m.notes.get(id)
}

func (m *MemoryBackend) ListNotes(_ context.Context, userID string) ([]models.Note, error) {
	return m.notes.list(userID, nil), nil
}

func (m *MemoryBackend) UpdateNote(_ context.Context, id string, patch NotePatch, at time.Time) (*models.Note, error) {
	return m.notes.update(id, func(n *models.Note) {
		patch.Apply(n)
		n.UpdatedAt = at
	})
}

func (m *MemoryBackend) DeleteNote(_ context.Context, id string) error {
	return m.notes.delete(id)
}

func (m *MemoryBackend) CreateFolder(_ context.Context, folder *models.Folder) error {
	m.folders.put(folder)
	return nil
}

func (m *MemoryBackend) GetFolder(_ context.Context, id string) (*models.Folder, error) {
	return m.folders.get(id)
}

func (m *MemoryBackend) ListFolders(_ context.Context, userID string) ([]models.Folder, error) {
	return m.folders.list(userID, nil), nil
}

func (m *MemoryBackend) UpdateFolder(_ context.Context, id string, patch FolderPatch, at time.Time) (*models.Folder, error) {
	return m.folders.update(id, func(f *models.Folder) {
		patch.Apply(f)
		f.UpdatedAt = at
	})
}

func (m *MemoryBackend) DeleteFolder(_ context.Context, id string) error {
	return m.folders.delete(id)
}

func (m *MemoryBackend) CreateFile(_ context.Context, file *models.File) error {
	m.files.put(file)
	return nil
}

func (m *MemoryBackend) GetFile(_ context.Context, id string) (*models.File, error) {
	return m.files.get(id)
}

func (m *MemoryBackend) ListFiles(_ context.Context, userID string, trashed bool) ([]models.File, error) {
	return m.files.list(userID, func(f *models.File) bool {
		return f.IsTrashed == trashed
	}), nil
}

func (m *MemoryBackend) UpdateFile(_ context.Context, id string, patch FilePatch, at time.Time) (*models.File, error) {
	return m.files.update(id, func(f *models.File) {
		patch.Apply(f)
		f.UpdatedAt = at
	})
}

func (m *MemoryBackend) SaveOTP(_ context.Context, otp *models.OTP) error {
	m.otpMu.Lock()
	m.otps[otpKey{otp.Identifier, otp.Type}] = *otp
	m.otpMu.Unlock()
	return nil
}

func (m *MemoryBackend) GetOTP(_ context.Context, identifier string, channel models.OTPChannel) (*models.OTP, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	otp, ok := m.otps[otpKey{identifier, channel}]
	if !ok {
		return nil, ErrNotFound
	}
	return &otp, nil
}

func (m *MemoryBackend) DeleteOTP(_ context.Context, identifier string, channel models.OTPChannel) error {
	m.otpMu.Lock()
	delete(m.otps, otpKey{identifier, channel})
	m.otpMu.Unlock()
	return nil
}
