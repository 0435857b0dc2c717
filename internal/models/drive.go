package models

import "time"

// Folder is a node of a user's drive tree. A nil ParentID means the root.
type Folder struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);index;not null" json:"userId"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	ParentID  *string   `gorm:"type:varchar(36);index" json:"parentId"`
	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// File is the metadata of an uploaded drive file. Deletion only trashes it.
type File struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string     `gorm:"type:varchar(36);index;not null" json:"userId"`
	FolderID     *string    `gorm:"type:varchar(36);index" json:"folderId"`
	Name         string     `gorm:"type:varchar(255);not null" json:"name"`
	OriginalName string     `gorm:"type:varchar(255)" json:"originalName"`
	MimeType     string     `gorm:"type:varchar(255)" json:"mimeType"`
	Size         string     `gorm:"type:varchar(32)" json:"size"`
	Path         string     `gorm:"type:text" json:"path"`
	IsTrashed    bool       `gorm:"not null;default:false" json:"isTrashed"`
	TrashedAt    *time.Time `json:"trashedAt"`
	CreatedAt    time.Time  `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime:false" json:"updatedAt"`
}
