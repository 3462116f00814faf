package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const TitleNameMaxLength = 256

// Title is a reviewable work.
type Title struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:256;not null;index"`
	Year        int       `json:"year" gorm:"not null;index"`
	Description string    `json:"description" gorm:"type:text"`
	CategoryID  *uint     `json:"-" gorm:"index"`
	Category    *Category `json:"category" gorm:"constraint:OnDelete:SET NULL"`
	Genres      []Genre   `json:"genre" gorm:"many2many:genre_titles"`

	// AvgScore is filled by list/retrieve queries, never written.
	AvgScore *float64 `json:"-" gorm:"column:avg_score;->;-:migration"`
	Rating   *int     `json:"rating" gorm:"-"`
}

// GenreTitle links titles and genres.
type GenreTitle struct {
	TitleID uint `gorm:"primaryKey"`
	GenreID uint `gorm:"primaryKey"`
}

// AfterFind rounds the average review score into Rating.
func (t *Title) AfterFind(tx *gorm.DB) error {
	t.Rating = RoundRating(t.AvgScore)
	return nil
}

// RoundRating converts an average score to an integer rating, half away from zero.
func RoundRating(avg *float64) *int {
	if avg == nil {
		return nil
	}
	r := int(decimal.NewFromFloat(*avg).Round(0).IntPart())
	return &r
}
