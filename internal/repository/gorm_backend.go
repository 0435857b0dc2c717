package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/daily-tracker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBackend is the relational Backend.
type GormBackend struct {
	db *gorm.DB
}

// NewGormBackend creates a GormBackend on an already migrated database.
func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

// userColumns whitelists the columns FindUser may filter on.
var userColumns = map[UserLookup]string{
	ByEmail:    "email",
	ByPhone:    "phone",
	ByUsername: "username",
}

func (b *GormBackend) CreateUser(ctx context.Context, user *models.User) error {
	return b.db.WithContext(ctx).Create(user).Error
}

func (b *GormBackend) GetUser(ctx context.Context, id string) (*models.User, error) {
	return gormGet[models.User](ctx, b.db, id)
}

func (b *GormBackend) FindUser(ctx context.Context, by UserLookup, value string) (*models.User, error) {
	column, ok := userColumns[by]
	if !ok {
		return nil, fmt.Errorf("unsupported user lookup %q", by)
	}

	var user models.User
	if err := b.db.WithContext(ctx).Where(column+" = ?", value).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (b *GormBackend) UpdateUser(ctx context.Context, id string, patch UserPatch, at time.Time) (*models.User, error) {
	return gormUpdate(ctx, b.db, id, func(u *models.User) {
		patch.Apply(u)
		u.UpdatedAt = at
	})
}

// DeleteUser deletes the user and all records owned by the user in a single
// transaction. Nothing is deleted when the user does not exist.
func (b *GormBackend) DeleteUser(ctx context.Context, id string) error {
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return err
		}

		owned := []any{&models.Job{}, &models.Task{}, &models.Note{}, &models.File{}, &models.Folder{}}
		for _, model := range owned {
			if err := tx.Where("user_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}

		identifiers := []string{user.Email}
		if user.Phone != nil {
			identifiers = append(identifiers, *user.Phone)
		}
		if err := tx.Where("identifier IN ?", identifiers).Delete(&models.OTP{}).Error; err != nil {
			return err
		}

		return tx.Delete(&user).Error
	})
	return translate(err)
}

func (b *GormBackend) CreateJob(ctx context.Context, job *models.Job) error {
	return b.db.WithContext(ctx).Create(job).Error
}

func (b *GormBackend) GetJob(ctx context.Context, id string) (*models.Job, error) {
	return gormGet[models.Job](ctx, b.db, id)
}

func (b *GormBackend) ListJobs(ctx context.Context, userID string) ([]models.Job, error) {
	return gormList[models.Job](ctx, b.db.Where("user_id = ?", userID))
}

func (b *GormBackend) UpdateJob(ctx context.Context, id string, patch JobPatch, at time.Time) (*models.Job, error) {
	return gormUpdate(ctx, b.db, id, func(j *models.Job) {
		patch.Apply(j)
		j.UpdatedAt = at
	})
}

func (b *GormBackend) DeleteJob(ctx context.Context, id string) error {
	return gormDelete[models.Job](ctx, b.db, id)
}

func (b *GormBackend) CreateTask(ctx context.Context, task *models.Task) error {
	return b.db.WithContext(ctx).Create(task).Error
}

func (b *GormBackend) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return gormGet[models.Task](ctx, b.db, id)
}

func (b *GormBackend) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	return gormList[models.Task](ctx, b.db.Where("user_id = ?", userID))
}

func (b *GormBackend) ListTasksSince(ctx context.Context, userID string, since time.Time) ([]models.Task, error) {
	return gormList[models.Task](ctx, b.db.Where("user_id = ? AND created_at >= ?", userID, since))
}

func (b *GormBackend) UpdateTask(ctx context.Context, id string, patch TaskPatch, at time.Time) (*models.Task, error) {
	return gormUpdate(ctx, b.db, id, func(t *models.Task) {
		patch.Apply(t)
		t.UpdatedAt = at
	})
}

func (b *GormBackend) DeleteTask(ctx context.Context, id string) error {
	return gormDelete[models.Task](ctx, b.db, id)
}

func (b *GormBackend) CreateNote(ctx context.Context, note *models.Note) error {
	return b.db.WithContext(ctx).Create(note).Error
}

func (b *GormBackend) GetNote(ctx context.Context, id string) (*models.Note, error) {
	return gormGet[models.Note](ctx, b.db, id)
}

func (b *GormBackend) ListNotes(ctx context.Context, userID string) ([]models.Note, error) {
	return gormList[models.Note](ctx, b.db.Where("user_id = ?", userID))
}

func (b *GormBackend) UpdateNote(ctx context.Context, id string, patch NotePatch, at time.Time) (*models.Note, error) {
	return gormUpdate(ctx, b.db, id, func(n *models.Note) {
		patch.Apply(n)
		n.UpdatedAt = at
	})
}

func (b *GormBackend) DeleteNote(ctx context.Context, id string) error {
	return gormDelete[models.Note](ctx, b.db, id)
}

func (b *GormBackend) CreateFolder(ctx context.Context, folder *models.Folder) error {
	return b.db.WithContext(ctx).Create(folder).Error
}

func (b *GormBackend) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	return gormGet[models.Folder](ctx, b.db, id)
}

func (b *GormBackend) ListFolders(ctx context.Context, userID string) ([]models.Folder, error) {
	return gormList[models.Folder](ctx, b.db.Where("user_id = ?", userID))
}

func (b *GormBackend) UpdateFolder(ctx context.Context, id string, patch FolderPatch, at time.Time) (*models.Folder, error) {
	return gormUpdate(ctx, b.db, id, func(f *models.Folder) {
		patch.Apply(f)
		f.UpdatedAt = at
	})
}

func (b *GormBackend) DeleteFolder(ctx context.Context, id string) error {
	return gormDelete[models.Folder](ctx, b.db, id)
}

func (b *GormBackend) CreateFile(ctx context.Context, file *models.File) error {
	return b.db.WithContext(ctx).Create(file).Error
}

func (b *GormBackend) GetFile(ctx context.Context, id string) (*models.File, error) {
	return gormGet[models.File](ctx, b.db, id)
}

func (b *GormBackend) ListFiles(ctx context.Context, userID string, trashed bool) ([]models.File, error) {
	return gormList[models.File](ctx, b.db.Where("user_id = ? AND is_trashed = ?", userID, trashed))
}

func (b *GormBackend) UpdateFile(ctx context.Context, id string, patch FilePatch, at time.Time) (*models.File, error) {
	return gormUpdate(ctx, b.db, id, func(f *models.File) {
		patch.Apply(f)
		f.UpdatedAt = at
	})
}

func (b *GormBackend) SaveOTP(ctx context.Context, otp *models.OTP) error {
	return b.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identifier"}, {Name: "type"}},
			DoUpdates: clause.AssignmentColumns([]string{"otp", "expires_at"}),
		}).
		Create(otp).Error
}

func (b *GormBackend) GetOTP(ctx context.Context, identifier string, channel models.OTPChannel) (*models.OTP, error) {
	var otp models.OTP
	if err := b.db.WithContext(ctx).
		Where("identifier = ? AND type = ?", identifier, channel).
		First(&otp).Error; err != nil {
		return nil, translate(err)
	}
	return &otp, nil
}

func (b *GormBackend) DeleteOTP(ctx context.Context, identifier string, channel models.OTPChannel) error {
	return b.db.WithContext(ctx).
		Where("identifier = ? AND type = ?", identifier, channel).
		Delete(&models.OTP{}).Error
}

func gormGet[T any](ctx context.Context, db *gorm.DB, id string) (*T, error) {
	var row T
	if err := db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// gormList runs the filtered query newest first.
func gormList[T any](ctx context.Context, query *gorm.DB) ([]T, error) {
	rows := []T{}
	if err := query.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func gormUpdate[T any](ctx context.Context, db *gorm.DB, id string, apply func(*T)) (*T, error) {
	var row T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}
		apply(&row)
		return tx.Save(&row).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func gormDelete[T any](ctx context.Context, db *gorm.DB, id string) error {
	result := db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
