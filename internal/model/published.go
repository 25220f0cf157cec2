package model

import "time"

// PublishedRecord is the outcome of a successful publish. It shares the id of
// the post it was created from and is never modified afterwards.
type PublishedRecord struct {
	PostID         string     `json:"post_id" gorm:"primaryKey;type:varchar(64)"`
	PageID         string     `json:"page_id" gorm:"type:varchar(64);index"`
	PlatformPostID string     `json:"fb_post_id" gorm:"type:varchar(128)"`
	PostURL        string     `json:"fb_post_url" gorm:"type:varchar(512)"`
	PublishedAt    time.Time  `json:"published_at" gorm:"index"`
	ScheduledFor   *time.Time `json:"scheduled_for,omitempty"`
	Content        string     `json:"original_content" gorm:"type:text"`
	HasImage       bool       `json:"has_image"`
	Note           string     `json:"note,omitempty" gorm:"type:varchar(255)"`
}

func (PublishedRecord) TableName() string { return "published_posts" }
