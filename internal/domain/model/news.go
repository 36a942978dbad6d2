package model

import "time"

// NewsArticle is a curated industry news item.
type NewsArticle struct {
	ID            string     `json:"id" yaml:"id"`
	Title         string     `json:"title" yaml:"title"`
	Summary       string     `json:"summary,omitempty" yaml:"summary"`
	Content       string     `json:"content,omitempty" yaml:"content"`
	SourceURL     string     `json:"source_url,omitempty" yaml:"source_url"`
	SourceName    string     `json:"source_name,omitempty" yaml:"source_name"`
	PublishedDate *time.Time `json:"published_date,omitempty" yaml:"published_date"`
	Category      string     `json:"category,omitempty" yaml:"category"`
	Tags          []string   `json:"tags,omitempty" yaml:"tags"`
	ImageURL      string     `json:"image_url,omitempty" yaml:"image_url"`
	CreatedAt     time.Time  `json:"created_at" yaml:"-"`
}
