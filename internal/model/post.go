package model

import "time"

// Score bounds for reviews.
const (
	MinScore = 1
	MaxScore = 10
)

// ReviewAuthorTitleIndex is the unique index backing the one review per
// author per title rule.
const ReviewAuthorTitleIndex = "idx_review_author_title"

// Post holds the fields shared by reviews and comments.
type Post struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	AuthorID uint      `json:"-" gorm:"not null;index"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	PubDate  time.Time `json:"pub_date" gorm:"autoCreateTime;index"`
	EditedAt time.Time `json:"-" gorm:"autoUpdateTime"`
}

// OwnerID returns the author's user ID.
func (p Post) OwnerID() uint {
	return p.AuthorID
}

// Review is a scored opinion on a title. One per author per title.
type Review struct {
	Post
	Author  User  `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	TitleID uint  `json:"-" gorm:"not null;index"`
	Title   Title `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Score   int   `json:"score" gorm:"not null;check:score >= 1 AND score <= 10"`
}

// Comment is a reply to a review.
type Comment struct {
	Post
	Author   User   `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	ReviewID uint   `json:"-" gorm:"not null;index"`
	Review   Review `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}
