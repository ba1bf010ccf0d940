package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is the top level of the content hierarchy
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	SortOrder   int       `json:"order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	Sites []*Site `json:"sites,omitzero" db:"-"`
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a new Category
func NewCategory(name string, description *string, sortOrder int) *Category {
	now := time.Now().UTC()
	return &Category{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		SortOrder:   sortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Site belongs to exactly one Category and owns Lessons
type Site struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	URL         string    `json:"url" db:"url"`
	Description *string   `json:"description" db:"description"`
	SortOrder   int       `json:"order" db:"sort_order"`
	CategoryID  uuid.UUID `json:"category_id" db:"category_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	Category *Category `json:"category,omitempty" db:"-"`
	Lessons  []*Lesson `json:"lessons,omitzero" db:"-"`
}

// TableName returns the table name for the Site model
func (Site) TableName() string {
	return "sites"
}

// NewSite creates a new Site under categoryID
func NewSite(categoryID uuid.UUID, name, url string, description *string, sortOrder int) *Site {
	now := time.Now().UTC()
	return &Site{
		ID:          uuid.New(),
		Name:        name,
		URL:         url,
		Description: description,
		SortOrder:   sortOrder,
		CategoryID:  categoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Lesson belongs to exactly one Site
type Lesson struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	VideoURL  *string   `json:"video_url" db:"video_url"`
	SortOrder int       `json:"order" db:"sort_order"`
	SiteID    uuid.UUID `json:"site_id" db:"site_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Site *Site `json:"site,omitempty" db:"-"`
}

// TableName returns the table name for the Lesson model
func (Lesson) TableName() string {
	return "lessons"
}

// NewLesson creates a new Lesson under siteID
func NewLesson(siteID uuid.UUID, title, content string, videoURL *string, sortOrder int) *Lesson {
	now := time.Now().UTC()
	return &Lesson{
		ID:        uuid.New(),
		Title:     title,
		Content:   content,
		VideoURL:  videoURL,
		SortOrder: sortOrder,
		SiteID:    siteID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
