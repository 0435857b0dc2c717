package models

import "time"

// Job is a tracked job application.
type Job struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string     `gorm:"type:varchar(36);index;not null" json:"userId"`
	URL          string     `gorm:"type:text" json:"url"`
	Title        string     `gorm:"type:varchar(255);not null" json:"title"`
	Company      string     `gorm:"type:varchar(255)" json:"company"`
	Location     string     `gorm:"type:varchar(255)" json:"location"`
	Type         string     `gorm:"type:varchar(50)" json:"type"`
	Description  string     `gorm:"type:text" json:"description"`
	PostedDate   string     `gorm:"type:varchar(50)" json:"postedDate"`
	AnalyzedDate *time.Time `json:"analyzedDate"`
	CreatedAt    time.Time  `gorm:"index;autoCreateTime:false" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime:false" json:"updatedAt"`
}
