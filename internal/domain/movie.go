package domain

import (
	"time"
)

// Movie represents a catalog entry: a movie or TV title with its
// associated media locations.
type Movie struct {
	// ID is the unique identifier for the movie (auto-generated).
	ID int64 `json:"id"`

	// Title is the display title.
	Title string `json:"title"`

	// Description is the synopsis shown on detail pages.
	Description string `json:"description"`

	// ThumbnailURL is the poster image location.
	ThumbnailURL string `json:"thumbnailUrl"`

	// VideoURL is the playable media location.
	VideoURL string `json:"videoUrl"`

	// Year is the release year.
	Year int `json:"year"`

	// Duration is the runtime in minutes.
	Duration int `json:"duration"`

	// Rating is the content rating (PG, PG-13, R, ...).
	Rating string `json:"rating"`

	// Score is the review score out of 100.
	Score int `json:"score"`

	// Category is the genre used for row grouping in the frontend.
	Category string `json:"category"`

	// CreatedAt is the timestamp when the movie was added.
	CreatedAt time.Time `json:"createdAt"`
}

// MovieRef is the subset of movie fields embedded in enriched
// activity log entries.
type MovieRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Ref returns the reference view of the movie.
func (m *Movie) Ref() MovieRef {
	return MovieRef{ID: m.ID, Title: m.Title}
}

// MovieUpdate carries a partial update; nil fields are left unchanged.
type MovieUpdate struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	ThumbnailURL *string `json:"thumbnailUrl"`
	VideoURL     *string `json:"videoUrl"`
	Year         *int    `json:"year"`
	Duration     *int    `json:"duration"`
	Rating       *string `json:"rating"`
	Score        *int    `json:"score"`
	Category     *string `json:"category"`
}

// Apply copies the non-nil fields onto the movie.
func (u MovieUpdate) Apply(m *Movie) {
	if u.Title != nil {
		m.Title = *u.Title
	}
	if u.Description != nil {
		m.Description = *u.Description
	}
	if u.ThumbnailURL != nil {
		m.ThumbnailURL = *u.ThumbnailURL
	}
	if u.VideoURL != nil {
		m.VideoURL = *u.VideoURL
	}
	if u.Year != nil {
		m.Year = *u.Year
	}
	if u.Duration != nil {
		m.Duration = *u.Duration
	}
	if u.Rating != nil {
		m.Rating = *u.Rating
	}
	if u.Score != nil {
		m.Score = *u.Score
	}
	if u.Category != nil {
		m.Category = *u.Category
	}
}
