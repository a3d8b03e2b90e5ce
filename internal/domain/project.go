package domain

import (
	"encoding/json"
	"time"
)

// Project groups the images a user iterates on. OriginalImageURL is seeded
// once by the first text-to-image generation; OutputImageURL tracks the
// latest result.
type Project struct {
	ID               string
	UserID           string
	OriginalImageURL string
	OutputImageURL   string
	ThumbnailURL     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ProjectEdit is one append-only history record written per completed job.
type ProjectEdit struct {
	ID             string
	ProjectID      string
	EditName       string
	Parameters     json.RawMessage
	InputImageURL  string
	OutputImageURL string
	CreditCost     int
	Status         JobStatus
	CreatedAt      time.Time
}
