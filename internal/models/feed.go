package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is an owner-authored feed entry. Images are kept in the row like
// user avatars.
type Post struct {
	ID            uuid.UUID `json:"id"`
	CompanyID     uuid.UUID `json:"company_id"`
	AuthorID      uuid.UUID `json:"author_id"`
	Content       string    `json:"content"`
	ImageURL      *string   `json:"image_url,omitempty"`
	ImageData     []byte    `json:"-"`
	ImageMimetype *string   `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

func (p *Post) Prepare() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
}

type Comment struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	UserID    uuid.UUID `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Comment) Prepare() {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
}

type Like struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *Like) Prepare() {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
}

// FeedEvent is a system-generated feed entry (prize wins, milestones).
type FeedEvent struct {
	ID        uuid.UUID      `json:"id"`
	CompanyID uuid.UUID      `json:"company_id"`
	UserID    uuid.UUID      `json:"user_id"`
	EventType string         `json:"event_type"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func (e *FeedEvent) Prepare() {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
}
