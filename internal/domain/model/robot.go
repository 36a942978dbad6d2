package model

import "time"

// Robot lifecycle statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusDraft    = "draft"
)

// Manufacturer builds robots.
type Manufacturer struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Country string `json:"country,omitempty" yaml:"country"`
	Website string `json:"website,omitempty" yaml:"website"`
	LogoURL string `json:"logo_url,omitempty" yaml:"logo_url"`
}

// Specification is one extended attribute row of a robot.
type Specification struct {
	Name     string `json:"name" yaml:"name"`
	Value    string `json:"value" yaml:"value"`
	Unit     string `json:"unit,omitempty" yaml:"unit"`
	Category string `json:"category,omitempty" yaml:"category"`
}

// Media is a media asset attached to a robot. Its contents are opaque here.
type Media struct {
	ID        string `json:"id" yaml:"id"`
	URL       string `json:"url" yaml:"url"`
	MediaType string `json:"media_type" yaml:"media_type"`
	Title     string `json:"title,omitempty" yaml:"title"`
	AltText   string `json:"alt_text,omitempty" yaml:"alt_text"`
	IsPrimary bool   `json:"is_primary" yaml:"is_primary"`
	SortOrder int    `json:"sort_order" yaml:"sort_order"`
}

// Robot is the entity being compared.
type Robot struct {
	ID             string        `json:"id" yaml:"id"`
	Slug           string        `json:"slug" yaml:"slug"`
	Name           string        `json:"name" yaml:"name"`
	ManufacturerID string        `json:"manufacturer_id" yaml:"manufacturer_id"`
	Manufacturer   *Manufacturer `json:"manufacturer,omitempty" yaml:"-"`
	Category       string        `json:"category,omitempty" yaml:"category"`
	Status         string        `json:"status" yaml:"status"`
	Description    string        `json:"description,omitempty" yaml:"description"`

	HeightCM          Measure    `json:"height_cm" yaml:"height_cm"`
	WeightKG          Measure    `json:"weight_kg" yaml:"weight_kg"`
	EstimatedPriceUSD Measure    `json:"estimated_price_usd" yaml:"estimated_price_usd"`
	RatingAverage     Measure    `json:"rating_average" yaml:"rating_average"`
	WalkingSpeedKMH   Measure    `json:"walking_speed_kmh" yaml:"walking_speed_kmh"`
	MaxPayloadKG      Measure    `json:"max_payload_kg" yaml:"max_payload_kg"`
	BatteryLifeHours  Measure    `json:"battery_life_hours" yaml:"battery_life_hours"`
	ReleaseDate       *time.Time `json:"release_date" yaml:"release_date"`

	IsFeatured bool `json:"is_featured" yaml:"is_featured"`
	IsVerified bool `json:"is_verified" yaml:"is_verified"`

	Specifications []Specification `json:"specifications,omitempty" yaml:"specifications"`
	Media          []Media         `json:"media,omitempty" yaml:"media"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// ReleaseYear returns the release year as a measure, absent when unknown.
func (r Robot) ReleaseYear() Measure {
	if r.ReleaseDate == nil || r.ReleaseDate.IsZero() {
		return None()
	}
	return Some(float64(r.ReleaseDate.Year()))
}

// FetchOptions selects the optional relations loaded with a robot.
type FetchOptions struct {
	IncludeSpecs bool
	IncludeMedia bool
}
