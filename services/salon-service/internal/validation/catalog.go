package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

type ServiceRequest struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Price           *float64 `json:"price"`
	DurationMinutes *int     `json:"durationMinutes"`
	Category        string   `json:"category"`
	Image           string   `json:"image"`
}

func Service(req ServiceRequest) (model.Service, error) {
	var verr model.ValidationError

	s := model.Service{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Category:    model.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		Image:       strings.TrimSpace(req.Image),
	}
	checkLength(&verr, "name", s.Name, 2, 100)
	if utf8.RuneCountInString(s.Description) > 1000 {
		verr.Add("description", "must be at most 1000 characters")
	}
	switch {
	case req.Price == nil:
		verr.Add("price", "is required")
	case *req.Price < 0:
		verr.Add("price", "must not be negative")
	default:
		s.Price = *req.Price
	}
	switch {
	case req.DurationMinutes == nil:
		verr.Add("durationMinutes", "is required")
	case *req.DurationMinutes < 5 || *req.DurationMinutes > 600:
		verr.Add("durationMinutes", "must be between 5 and 600")
	default:
		s.DurationMinutes = *req.DurationMinutes
	}
	if !s.Category.Valid() {
		verr.Add("category", "must be one of hair, skin, bridal")
	}

	if err := verr.Err(); err != nil {
		return model.Service{}, err
	}
	return s, nil
}

type ReviewRequest struct {
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
	Service string `json:"service"`
}

// Review validates a public review submission. Approval is never taken from input.
func Review(req ReviewRequest) (model.Review, error) {
	var verr model.ValidationError

	r := model.Review{
		Name:    strings.TrimSpace(req.Name),
		Rating:  req.Rating,
		Comment: strings.TrimSpace(req.Comment),
		Service: strings.TrimSpace(req.Service),
	}
	checkLength(&verr, "name", r.Name, 2, 100)
	if r.Rating < 1 || r.Rating > 5 {
		verr.Add("rating", "must be between 1 and 5")
	}
	checkLength(&verr, "comment", r.Comment, 1, maxComment)
	if r.Service == "" {
		verr.Add("service", "is required")
	}

	if err := verr.Err(); err != nil {
		return model.Review{}, err
	}
	return r, nil
}
