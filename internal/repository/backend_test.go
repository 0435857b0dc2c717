package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/daily-tracker/internal/constants"
	"github.com/yukikurage/daily-tracker/internal/database"
	"github.com/yukikurage/daily-tracker/internal/logging"
	"github.com/yukikurage/daily-tracker/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// BackendTestSuite runs the store contract against one backend.
type BackendTestSuite struct {
	suite.Suite
	newBackend func(t *testing.T) Backend

	ctx   context.Context
	clock *fakeClock
	store *Store
}

func (s *BackendTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = newFakeClock()
	s.store = New(s.newBackend(s.T()), logging.Discard(), WithClock(s.clock.Now))
}

func (s *BackendTestSuite) createUser(email string) *models.User {
	user := &models.User{Username: email, Email: email, PasswordHash: "hash"}
	s.Require().NoError(s.store.CreateUser(s.ctx, user))
	s.clock.Advance(time.Second)
	return user
}

func (s *BackendTestSuite) createJob(userID, title string) *models.Job {
	job := &models.Job{UserID: userID, Title: title, Company: "Acme"}
	s.Require().NoError(s.store.CreateJob(s.ctx, job))
	s.clock.Advance(time.Second)
	return job
}

func (s *BackendTestSuite) createTask(userID, title string) *models.Task {
	task := &models.Task{UserID: userID, Title: title, URL: "https://example.com/" + title}
	s.Require().NoError(s.store.CreateTask(s.ctx, task))
	s.clock.Advance(time.Second)
	return task
}

func (s *BackendTestSuite) createNote(userID, title string) *models.Note {
	note := &models.Note{UserID: userID, Title: title, Content: "body"}
	s.Require().NoError(s.store.CreateNote(s.ctx, note))
	s.clock.Advance(time.Second)
	return note
}

func (s *BackendTestSuite) TestCreateFillsDefaults() {
	job := &models.Job{Title: "Backend Engineer"}
	s.Require().NoError(s.store.CreateJob(s.ctx, job))

	s.NotEmpty(job.ID)
	s.Equal(constants.DefaultUserID, job.UserID)
	s.Equal(s.clock.Now(), job.CreatedAt)
	s.Equal(job.CreatedAt, job.UpdatedAt)

	task := &models.Task{Title: "Apply"}
	s.Require().NoError(s.store.CreateTask(s.ctx, task))
	s.False(task.Completed)
	s.Equal(task.CreatedAt, task.AddedDate)

	folder := &models.Folder{UserID: "u1", Name: "Resumes"}
	s.Require().NoError(s.store.CreateFolder(s.ctx, folder))
	s.Nil(folder.ParentID)

	got, err := s.store.GetJob(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal("Backend Engineer", got.Title)
	s.True(job.CreatedAt.Equal(got.CreatedAt))
}

func (s *BackendTestSuite) TestGetMissingReturnsNotFound() {
	_, err := s.store.GetJob(s.ctx, "missing")
	s.ErrorIs(err, ErrNotFound)

	_, err = s.store.UpdateNote(s.ctx, "missing", NotePatch{})
	s.ErrorIs(err, ErrNotFound)

	s.ErrorIs(s.store.DeleteTask(s.ctx, "missing"), ErrNotFound)
	s.ErrorIs(s.store.DeleteFolder(s.ctx, "missing"), ErrNotFound)

	_, err = s.store.TrashFile(s.ctx, "missing")
	s.ErrorIs(err, ErrNotFound)
}

func (s *BackendTestSuite) TestFindUserByUniqueFields() {
	phone := "+15550100"
	user := &models.User{Username: "ada", Email: "ada@example.com", Phone: &phone, PasswordHash: "hash"}
	s.Require().NoError(s.store.CreateUser(s.ctx, user))

	byEmail, err := s.store.FindUser(s.ctx, ByEmail, "ada@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, byEmail.ID)

	byPhone, err := s.store.FindUser(s.ctx, ByPhone, phone)
	s.Require().NoError(err)
	s.Equal(user.ID, byPhone.ID)

	byName, err := s.store.FindUser(s.ctx, ByUsername, "ada")
	s.Require().NoError(err)
	s.Equal(user.ID, byName.ID)

	_, err = s.store.FindUser(s.ctx, ByEmail, "nobody@example.com")
	s.ErrorIs(err, ErrNotFound)
}

func (s *BackendTestSuite) TestUpdateMergesAndRefreshesUpdatedAt() {
	job := s.createJob("u1", "Old Title")
	s.clock.Advance(time.Minute)

	title := "New Title"
	updated, err := s.store.UpdateJob(s.ctx, job.ID, JobPatch{Title: &title})
	s.Require().NoError(err)

	s.Equal("New Title", updated.Title)
	s.Equal("Acme", updated.Company)
	s.Equal("u1", updated.UserID)
	s.True(updated.UpdatedAt.Equal(s.clock.Now()))
	s.True(updated.CreatedAt.Equal(job.CreatedAt))

	got, err := s.store.GetJob(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal("New Title", got.Title)
}

func (s *BackendTestSuite) TestListIsScopedAndNewestFirst() {
	first := s.createNote("u1", "first")
	second := s.createNote("u1", "second")
	s.createNote("u2", "other")

	notes, err := s.store.ListNotes(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(notes, 2)
	s.Equal(second.ID, notes[0].ID)
	s.Equal(first.ID, notes[1].ID)

	empty, err := s.store.ListNotes(s.ctx, "nobody")
	s.Require().NoError(err)
	s.NotNil(empty)
	s.Empty(empty)
}

func (s *BackendTestSuite) TestListTasksSince() {
	old := s.createTask("u1", "old")
	s.clock.Advance(6 * 24 * time.Hour)
	cutoff := s.clock.Now()
	recent := s.createTask("u1", "recent")

	tasks, err := s.store.ListTasksSince(s.ctx, "u1", cutoff)
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)
	s.Equal(recent.ID, tasks[0].ID)

	all, err := s.store.ListTasks(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(old.ID, all[1].ID)
}

func (s *BackendTestSuite) TestHardDelete() {
	task := s.createTask("u1", "gone")

	s.Require().NoError(s.store.DeleteTask(s.ctx, task.ID))

	_, err := s.store.GetTask(s.ctx, task.ID)
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(s.store.DeleteTask(s.ctx, task.ID), ErrNotFound)
}

func (s *BackendTestSuite) TestFileSoftDelete() {
	file := &models.File{UserID: "u1", Name: "cv.pdf", OriginalName: "cv.pdf", MimeType: "application/pdf", Size: "1024", Path: "u1/cv.pdf"}
	s.Require().NoError(s.store.CreateFile(s.ctx, file))
	s.clock.Advance(time.Minute)

	trashed, err := s.store.TrashFile(s.ctx, file.ID)
	s.Require().NoError(err)
	s.True(trashed.IsTrashed)
	s.Require().NotNil(trashed.TrashedAt)
	s.True(trashed.TrashedAt.Equal(s.clock.Now()))

	live, err := s.store.ListFiles(s.ctx, "u1")
	s.Require().NoError(err)
	s.Empty(live)

	got, err := s.store.GetFile(s.ctx, file.ID)
	s.Require().NoError(err)
	s.True(got.IsTrashed)
	s.NotNil(got.TrashedAt)

	inTrash, err := s.store.ListTrashedFiles(s.ctx, "u1")
	s.Require().NoError(err)
	s.Len(inTrash, 1)

	restored, err := s.store.RestoreFile(s.ctx, file.ID)
	s.Require().NoError(err)
	s.False(restored.IsTrashed)
	s.Nil(restored.TrashedAt)

	live, err = s.store.ListFiles(s.ctx, "u1")
	s.Require().NoError(err)
	s.Len(live, 1)
}

func (s *BackendTestSuite) TestFolderPatchMovesToRoot() {
	parent := &models.Folder{UserID: "u1", Name: "parent"}
	s.Require().NoError(s.store.CreateFolder(s.ctx, parent))
	child := &models.Folder{UserID: "u1", Name: "child", ParentID: &parent.ID}
	s.Require().NoError(s.store.CreateFolder(s.ctx, child))

	moved, err := s.store.UpdateFolder(s.ctx, child.ID, FolderPatch{MoveToRoot: true})
	s.Require().NoError(err)
	s.Nil(moved.ParentID)
}

func (s *BackendTestSuite) TestDeleteUserCascades() {
	user := s.createUser("owner@example.com")
	other := s.createUser("other@example.com")

	for i := 0; i < 2; i++ {
		s.createJob(user.ID, fmt.Sprintf("job-%d", i))
	}
	for i := 0; i < 3; i++ {
		s.createTask(user.ID, fmt.Sprintf("task-%d", i))
	}
	s.createNote(user.ID, "note")
	folder := &models.Folder{UserID: user.ID, Name: "docs"}
	s.Require().NoError(s.store.CreateFolder(s.ctx, folder))
	file := &models.File{UserID: user.ID, Name: "a.txt", Size: "1"}
	s.Require().NoError(s.store.CreateFile(s.ctx, file))
	s.Require().NoError(s.store.SaveOTP(s.ctx, &models.OTP{
		Identifier: user.Email, Type: models.OTPChannelEmail, Code: "123456", ExpiresAt: s.clock.Now().Add(time.Minute),
	}))
	kept := s.createJob(other.ID, "kept")

	s.Require().NoError(s.store.DeleteUser(s.ctx, user.ID))

	_, err := s.store.GetUser(s.ctx, user.ID)
	s.ErrorIs(err, ErrNotFound)

	jobs, err := s.store.ListJobs(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Empty(jobs)
	tasks, err := s.store.ListTasks(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Empty(tasks)
	notes, err := s.store.ListNotes(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Empty(notes)
	folders, err := s.store.ListFolders(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Empty(folders)
	_, err = s.store.GetFile(s.ctx, file.ID)
	s.ErrorIs(err, ErrNotFound)
	_, err = s.store.GetOTP(s.ctx, user.Email, models.OTPChannelEmail)
	s.ErrorIs(err, ErrNotFound)

	_, err = s.store.GetJob(s.ctx, kept.ID)
	s.NoError(err)
}

func (s *BackendTestSuite) TestDeleteMissingUserHasNoSideEffects() {
	user := s.createUser("owner@example.com")
	job := s.createJob(user.ID, "job")

	s.ErrorIs(s.store.DeleteUser(s.ctx, "missing"), ErrNotFound)

	_, err := s.store.GetJob(s.ctx, job.ID)
	s.NoError(err)
}

func (s *BackendTestSuite) TestOTPUpsertPerIdentifierAndChannel() {
	expires := s.clock.Now().Add(constants.OTPTTL)
	s.Require().NoError(s.store.SaveOTP(s.ctx, &models.OTP{Identifier: "a@example.com", Type: models.OTPChannelEmail, Code: "111111", ExpiresAt: expires}))
	s.Require().NoError(s.store.SaveOTP(s.ctx, &models.OTP{Identifier: "a@example.com", Type: models.OTPChannelEmail, Code: "222222", ExpiresAt: expires}))
	s.Require().NoError(s.store.SaveOTP(s.ctx, &models.OTP{Identifier: "a@example.com", Type: models.OTPChannelPhone, Code: "333333", ExpiresAt: expires}))

	email, err := s.store.GetOTP(s.ctx, "a@example.com", models.OTPChannelEmail)
	s.Require().NoError(err)
	s.Equal("222222", email.Code)

	phone, err := s.store.GetOTP(s.ctx, "a@example.com", models.OTPChannelPhone)
	s.Require().NoError(err)
	s.Equal("333333", phone.Code)

	s.Require().NoError(s.store.DeleteOTP(s.ctx, "a@example.com", models.OTPChannelEmail))
	_, err = s.store.GetOTP(s.ctx, "a@example.com", models.OTPChannelEmail)
	s.ErrorIs(err, ErrNotFound)
	s.NoError(s.store.DeleteOTP(s.ctx, "a@example.com", models.OTPChannelEmail))
}

func TestMemoryBackend(t *testing.T) {
	suite.Run(t, &BackendTestSuite{
		newBackend: func(t *testing.T) Backend { return NewMemoryBackend() },
	})
}

func TestGormBackend(t *testing.T) {
	suite.Run(t, &BackendTestSuite{
		newBackend: func(t *testing.T) Backend {
			db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			sqlDB, err := db.DB()
			if err != nil {
				t.Fatalf("sql db: %v", err)
			}
			// every connection to :memory: is a separate database
			sqlDB.SetMaxOpenConns(1)
			t.Cleanup(func() { sqlDB.Close() })

			if err := database.Migrate(db, logging.Discard()); err != nil {
				t.Fatalf("migrate: %v", err)
			}
			return NewGormBackend(db)
		},
	})
}
