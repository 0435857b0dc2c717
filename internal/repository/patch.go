package repository

import (
	"time"

	"github.com/yukikurage/daily-tracker/internal/models"
)

// Patches carry the fields of a partial update. Nil fields are left as they
// are. None of them can change the owning user.

type UserPatch struct {
	Username     *string
	Email        *string
	Phone        *string
	ClearPhone   bool
	PasswordHash *string
}

func (p UserPatch) Apply(u *models.User) {
	setIf(&u.Username, p.Username)
	setIf(&u.Email, p.Email)
	setIf(&u.PasswordHash, p.PasswordHash)
	if p.ClearPhone {
		u.Phone = nil
	} else if p.Phone != nil {
		phone := *p.Phone
		u.Phone = &phone
	}
}

type JobPatch struct {
	URL          *string    `json:"url"`
	Title        *string    `json:"title"`
	Company      *string    `json:"company"`
	Location     *string    `json:"location"`
	Type         *string    `json:"type"`
	Description  *string    `json:"description"`
	PostedDate   *string    `json:"postedDate"`
	AnalyzedDate *time.Time `json:"-"`
}

func (p JobPatch) Apply(j *models.Job) {
	setIf(&j.URL, p.URL)
	setIf(&j.Title, p.Title)
	setIf(&j.Company, p.Company)
	setIf(&j.Location, p.Location)
	setIf(&j.Type, p.Type)
	setIf(&j.Description, p.Description)
	setIf(&j.PostedDate, p.PostedDate)
	if p.AnalyzedDate != nil {
		at := *p.AnalyzedDate
		j.AnalyzedDate = &at
	}
}

type TaskPatch struct {
	Title     *string    `json:"title"`
	Company   *string    `json:"company"`
	URL       *string    `json:"url"`
	Type      *string    `json:"type"`
	Completed *bool      `json:"completed"`
	AddedDate *time.Time `json:"addedDate"`
}

func (p TaskPatch) Apply(t *models.Task) {
	setIf(&t.Title, p.Title)
	setIf(&t.Company, p.Company)
	setIf(&t.URL, p.URL)
	setIf(&t.Type, p.Type)
	setIf(&t.Completed, p.Completed)
	setIf(&t.AddedDate, p.AddedDate)
}

type NotePatch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Color   *string `json:"color"`
}

func (p NotePatch) Apply(n *models.Note) {
	setIf(&n.Title, p.Title)
	setIf(&n.Content, p.Content)
	setIf(&n.Color, p.Color)
}

type FolderPatch struct {
	Name       *string
	ParentID   *string
	MoveToRoot bool
}

func (p FolderPatch) Apply(f *models.Folder) {
	setIf(&f.Name, p.Name)
	if p.MoveToRoot {
		f.ParentID = nil
	} else if p.ParentID != nil {
		parent := *p.ParentID
		f.ParentID = &parent
	}
}

type FilePatch struct {
	Name           *string
	FolderID       *string
	MoveToRoot     bool
	IsTrashed      *bool
	TrashedAt      *time.Time
	ClearTrashedAt bool
}

func (p FilePatch) Apply(f *models.File) {
	setIf(&f.Name, p.Name)
	setIf(&f.IsTrashed, p.IsTrashed)
	if p.MoveToRoot {
		f.FolderID = nil
	} else if p.FolderID != nil {
		folder := *p.FolderID
		f.FolderID = &folder
	}
	if p.ClearTrashedAt {
		f.TrashedAt = nil
	} else if p.TrashedAt != nil {
		at := *p.TrashedAt
		f.TrashedAt = &at
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
