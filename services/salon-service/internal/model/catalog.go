package model

import "time"

type Category string

const (
	CategoryHair   Category = "hair"
	CategorySkin   Category = "skin"
	CategoryBridal Category = "bridal"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryHair, CategorySkin, CategoryBridal:
		return true
	}
	return false
}

// Service is a catalog entry.
type Service struct {
	ID              string    `json:"id" yaml:"-"`
	Name            string    `json:"name" yaml:"name"`
	Description     string    `json:"description" yaml:"description"`
	Price           float64   `json:"price" yaml:"price"`
	DurationMinutes int       `json:"durationMinutes" yaml:"durationMinutes"`
	Category        Category  `json:"category" yaml:"category"`
	Image           string    `json:"image,omitempty" yaml:"image"`
	CreatedAt       time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt       time.Time `json:"updatedAt" yaml:"-"`
}

// Review is customer feedback; it stays hidden until approved.
type Review struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Service   string    `json:"service"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
