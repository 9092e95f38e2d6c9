package models

// Note is a short text note owned by a single user.
type Note struct {
	BaseModel

	Title   string `gorm:"size:100;not null" json:"title"`
	Content string `gorm:"size:5000;not null" json:"content"`
	UserID  string `gorm:"type:uuid;not null;index" json:"-"`
}
