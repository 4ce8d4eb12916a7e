package catalog

import (
	"encoding/json"
	"time"
)

// Country is a lookup entity for composer origins, keyed by exact name.
type Country struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ISOCode   string    `json:"iso_code,omitempty"`
	Region    string    `json:"region,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InstrumentationCategory groups works by instrumentation
// (Solo Guitar, Duo, Ensemble, ...), keyed by exact name.
type InstrumentationCategory struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DataSource records one provenance origin (an external catalog).
type DataSource struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	URL         string     `json:"url,omitempty"`
	Description string     `json:"description,omitempty"`
	LastSync    *time.Time `json:"last_sync,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Composer is a canonical composer record. Identity during ingestion is the
// (full_name, birth_year) pair; NameNormalized is derived once at creation
// and never recomputed.
type Composer struct {
	ID                 int64     `json:"id"`
	FullName           string    `json:"full_name"`
	FirstName          string    `json:"first_name,omitempty"`
	LastName           string    `json:"last_name"`
	NameNormalized     string    `json:"name_normalized"`
	BirthYear          *int      `json:"birth_year,omitempty"`
	DeathYear          *int      `json:"death_year,omitempty"`
	IsLiving           bool      `json:"is_living"`
	CountryID          *int64    `json:"country_id,omitempty"`
	CountryDescription string    `json:"country_description,omitempty"`
	Biography          string    `json:"biography,omitempty"`
	Period             string    `json:"period,omitempty"`
	DataSourceID       *int64    `json:"data_source_id,omitempty"`
	ExternalID         string    `json:"external_id,omitempty"`
	IMSLPURL           string    `json:"imslp_url,omitempty"`
	WikipediaURL       string    `json:"wikipedia_url,omitempty"`
	IsVerified         bool      `json:"is_verified"`
	NeedsReview        bool      `json:"needs_review"`
	AdminNotes         string    `json:"admin_notes,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Work is a musical work in the repertoire. Identity during ingestion is
// resolved by (external_id, data_source) first, then (title, composer).
type Work struct {
	ID                        int64     `json:"id"`
	ComposerID                int64     `json:"composer_id"`
	Title                     string    `json:"title"`
	TitleNormalized           string    `json:"title_normalized"`
	Subtitle                  string    `json:"subtitle,omitempty"`
	OpusNumber                string    `json:"opus_number,omitempty"`
	CatalogNumber             string    `json:"catalog_number,omitempty"`
	CompositionYear           *int      `json:"composition_year,omitempty"`
	CompositionYearApprox     bool      `json:"composition_year_approx"`
	DurationMinutes           *int      `json:"duration_minutes,omitempty"`
	InstrumentationCategoryID *int64    `json:"instrumentation_category_id,omitempty"`
	InstrumentationDetail     string    `json:"instrumentation_detail,omitempty"`
	DifficultyLevel           *int      `json:"difficulty_level,omitempty"`
	Description               string    `json:"description,omitempty"`
	Movements                 []string  `json:"movements,omitempty"`
	IMSLPURL                  string    `json:"imslp_url,omitempty"`
	YouTubeURL                string    `json:"youtube_url,omitempty"`
	ScoreURL                  string    `json:"score_url,omitempty"`
	DataSourceID              *int64    `json:"data_source_id,omitempty"`
	ExternalID                string    `json:"external_id,omitempty"`
	IsVerified                bool      `json:"is_verified"`
	NeedsReview               bool      `json:"needs_review"`
	IsPublic                  bool      `json:"is_public"`
	ViewCount                 int       `json:"view_count"`
	AdminNotes                string    `json:"admin_notes,omitempty"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// MarshalStringSlice encodes a string slice as a JSON array string.
func MarshalStringSlice(s []string) string {
	if s == nil {
		return "[]"
	}
	data, _ := json.Marshal(s)
	return string(data)
}

// UnmarshalStringSlice decodes a JSON array string into a string slice.
func UnmarshalStringSlice(data string) []string {
	if data == "" || data == "[]" {
		return nil
	}
	var result []string
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil
	}
	return result
}
