package models

import (
	"time"

	"gorm.io/gorm"
)

// ForumPost is a discussion thread, optionally scoped to a club or event.
type ForumPost struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"size:300;not null" json:"title"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	AuthorID  uint           `gorm:"index;not null" json:"author_id"`
	Author    *User          `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	ClubID    *uint          `gorm:"index" json:"club_id"`
	EventID   *uint          `gorm:"index" json:"event_id"`
	Category  string         `gorm:"size:50;default:general;index" json:"category"` // general, question, announcement, discussion
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ForumPost) TableName() string { return "forum_posts" }

// ForumReply answers a post; ParentID allows one level of nesting.
type ForumReply struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	AuthorID  uint           `gorm:"index;not null" json:"author_id"`
	Author    *User          `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	PostID    uint           `gorm:"index;not null" json:"post_id"`
	ParentID  *uint          `gorm:"index" json:"parent_id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ForumReply) TableName() string { return "forum_replies" }

// PostLike marks that a user liked a post. Composite key keeps likes unique.
type PostLike struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostLike) TableName() string { return "post_likes" }

// ReplyLike marks that a user liked a reply.
type ReplyLike struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ReplyID   uint      `gorm:"primaryKey;autoIncrement:false" json:"reply_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ReplyLike) TableName() string { return "reply_likes" }
