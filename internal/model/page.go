package model

import "time"

// ConnectedPage is a platform page the service may publish to.
type ConnectedPage struct {
	ID          string    `json:"page_id" gorm:"primaryKey;type:varchar(64)"`
	Name        string    `json:"name" gorm:"type:varchar(255)"`
	AccessToken string    `json:"access_token" gorm:"type:text;not null"`
	ConnectedAt time.Time `json:"connected_at"`
}

func (ConnectedPage) TableName() string { return "connected_pages" }
