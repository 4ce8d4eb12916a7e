package ingest

// Link destination fields. Each catalog supplies one kind of external link,
// and the work field it lands in depends on which source the row came from.
const (
	LinkFieldScore   = "score_url"
	LinkFieldIMSLP   = "imslp_url"
	LinkFieldYouTube = "youtube_url"
)

// ValidLinkField reports whether s names a known link destination field.
func ValidLinkField(s string) bool {
	switch s {
	case LinkFieldScore, LinkFieldIMSLP, LinkFieldYouTube:
		return true
	}
	return false
}

// ColumnMap maps logical row fields to the header names used by one source's
// CSV export. Empty entries mean the source does not supply that field.
type ColumnMap struct {
	ExternalID      string
	Composer        string
	BirthYear       string
	DeathYear       string
	Country         string
	Title           string
	Subtitle        string
	Instrumentation string
	Opus            string
	CompositionYear string
	Duration        string
	Movements       string
	Link            string
}

// DefaultColumns returns the header mapping shared by most catalog exports.
func DefaultColumns() ColumnMap {
	return ColumnMap{
		ExternalID:      "ID",
		Composer:        "Name",
		BirthYear:       "Birth Year",
		DeathYear:       "Death Year",
		Country:         "Country",
		Title:           "Work",
		Subtitle:        "Subtitle",
		Instrumentation: "Instrumentation",
		Opus:            "Opus",
		CompositionYear: "Year",
		Duration:        "Duration",
		Movements:       "Movements",
		Link:            "Link",
	}
}

// merge fills unset entries of the map from defaults.
func (m ColumnMap) merge(defaults ColumnMap) ColumnMap {
	set := func(dst *string, fallback string) {
		if *dst == "" {
			*dst = fallback
		}
	}
	set(&m.ExternalID, defaults.ExternalID)
	set(&m.Composer, defaults.Composer)
	set(&m.BirthYear, defaults.BirthYear)
	set(&m.DeathYear, defaults.DeathYear)
	set(&m.Country, defaults.Country)
	set(&m.Title, defaults.Title)
	set(&m.Subtitle, defaults.Subtitle)
	set(&m.Instrumentation, defaults.Instrumentation)
	set(&m.Opus, defaults.Opus)
	set(&m.CompositionYear, defaults.CompositionYear)
	set(&m.Duration, defaults.Duration)
	set(&m.Movements, defaults.Movements)
	set(&m.Link, defaults.Link)
	return m
}

// Source describes one named CSV catalog export.
type Source struct {
	Name        string
	Path        string
	URL         string
	Description string
	LinkField   string // one of the LinkField* constants
	Columns     ColumnMap
}

// Row is one provenance-tagged repertoire row produced by the loader.
// Raw fields carry the source text untouched; parsing happens in the
// resolvers so a malformed value skips a field, never a row.
type Row struct {
	Source             string
	ExternalID         string
	ComposerName       string
	BirthYearRaw       string
	DeathYearRaw       string
	CountryRaw         string
	Title              string
	Subtitle           string
	Instrumentation    string
	OpusRaw            string
	CompositionYearRaw string
	DurationRaw        string
	MovementsRaw       string
	Link               string
}
