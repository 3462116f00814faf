package model

const (
	ClassifierNameMaxLength = 256
	SlugMaxLength           = 50
)

// Classifier holds the fields shared by categories and genres.
type Classifier struct {
	ID   uint   `json:"-" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:256;not null"`
	Slug string `json:"slug" gorm:"uniqueIndex;size:50;not null"`
}

// Category groups titles by kind (films, books, music).
type Category struct {
	Classifier
}

// Genre tags titles; a title may carry several.
type Genre struct {
	Classifier
}
