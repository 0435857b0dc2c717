package models

import "time"

type Task struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);index;not null" json:"userId"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Company   string    `gorm:"type:varchar(255)" json:"company"`
	URL       string    `gorm:"type:text" json:"url,omitempty"`
	Type      string    `gorm:"type:varchar(50)" json:"type"`
	Completed bool      `gorm:"not null;default:false" json:"completed"`
	AddedDate time.Time `json:"addedDate"`
	CreatedAt time.Time `gorm:"index;autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}
