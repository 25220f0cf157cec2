package model

import "time"

// PostStatus is the lifecycle state of a drafted post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusGenerated PostStatus = "generated"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
)

// Post is a unit of drafted social-media content.
type Post struct {
	ID          string     `json:"-" gorm:"primaryKey;type:varchar(64)"`
	PageID      string     `json:"page_id" gorm:"type:varchar(64);index:idx_post_page"`
	Content     string     `json:"content" gorm:"type:text"`
	Status      PostStatus `json:"status" gorm:"type:varchar(16);index;not null"`
	Industry    string     `json:"industry,omitempty" gorm:"type:varchar(64)"`
	Tone        string     `json:"tone,omitempty" gorm:"type:varchar(32)"`
	ContentType string     `json:"content_type,omitempty" gorm:"type:varchar(32)"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" gorm:"autoUpdateTime:false"`
}

func (Post) TableName() string { return "posts" }

// IsPublished reports whether a published record exists for the post.
func (p *Post) IsPublished() bool { return p.Status == PostStatusPublished }

func (p Post) Copy() *Post {
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		p.UpdatedAt = &t
	}
	return &p
}
