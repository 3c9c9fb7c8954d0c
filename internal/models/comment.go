package models

import "time"

// Comment is an append-only remark on a complaint. Internal comments are
// officer/admin notes that the submitter never sees.
type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ComplaintID uint      `gorm:"not null;index:idx_comment_complaint" json:"complaintId"`
	AuthorID    *uint     `json:"authorId,omitempty"`
	AuthorName  string    `gorm:"type:text" json:"authorName"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	Internal    bool      `gorm:"not null;default:false" json:"internal"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false;not null;index:idx_comment_complaint" json:"createdAt"`
}
