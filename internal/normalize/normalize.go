// Package normalize provides the pure string and date cleanup used when
// ingesting repertoire rows from external catalogs. Every function is total:
// malformed input yields a zero value or ok=false, never an error.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	circaPrefix    = regexp.MustCompile(`(?i)^ca?\.?\s*`)
	uncertainYear  = regexp.MustCompile(`[?*]$`)
	fourDigits     = regexp.MustCompile(`\d{4}`)
	opusPrefix     = regexp.MustCompile(`(?i)^(op\.?|opus)\s*`)
	movementSplit  = regexp.MustCompile(`[;\n]`)
	movementPrefix = regexp.MustCompile(`^\d+\.?\s*|^[IVX]+\.?\s*`)

	durationMinutes = regexp.MustCompile(`(\d+)\s*(min|minutes?)`)
	durationTick    = regexp.MustCompile(`(\d+)'`)
	durationClock   = regexp.MustCompile(`(\d+):(\d+)`)
	durationRange   = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)

	// foldAccents decomposes accented characters so the combining marks can
	// be stripped (é -> e + combining acute -> e).
	foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

	titleCaser = cases.Title(language.Und)
)

// countryAliases maps common variant spellings to canonical country names.
var countryAliases = map[string]string{
	"USA":                      "United States",
	"U.S.A.":                   "United States",
	"United States of America": "United States",
	"UK":                       "United Kingdom",
	"U.K.":                     "United Kingdom",
	"Great Britain":            "United Kingdom",
	"The Netherlands":          "Netherlands",
	"Holland":                  "Netherlands",
}

// Name folds a name to lowercase ASCII for search and comparison: accents
// are decomposed and dropped, any remaining non-ASCII runes are removed.
func Name(s string) string {
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}
	ascii := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, folded)
	return strings.TrimSpace(strings.ToLower(ascii))
}

// ParseComposerName splits a composer name into first and last name and
// returns the reconstructed "First Last" form.
//
// Handles "Last, First" (catalog order), "First Last" / "First Middle Last",
// and single-token names ("Sting"), which yield an empty first name.
func ParseComposerName(full string) (first, last, reconstructed string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", "", ""
	}

	if before, after, ok := strings.Cut(full, ","); ok {
		last = strings.TrimSpace(before)
		first = strings.TrimSpace(after)
		return first, last, strings.TrimSpace(first + " " + last)
	}

	if i := strings.LastIndex(full, " "); i >= 0 {
		first = strings.TrimSpace(full[:i])
		last = strings.TrimSpace(full[i+1:])
		return first, last, full
	}

	return "", full, full
}

// CleanYear extracts a plausible four-digit year from a raw catalog value.
// Leading "ca."/"c." qualifiers and trailing "?" or "*" markers are stripped
// before the first run of four digits is taken. Years outside [1000, 2100]
// are rejected.
func CleanYear(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	raw = circaPrefix.ReplaceAllString(raw, "")
	raw = uncertainYear.ReplaceAllString(raw, "")

	digits := fourDigits.FindString(raw)
	if digits == "" {
		return 0, false
	}
	year, err := strconv.Atoi(digits)
	if err != nil || year < 1000 || year > 2100 {
		return 0, false
	}
	return year, true
}

// YearIsApproximate reports whether a raw year value carries an uncertainty
// marker: a "ca."/"c." prefix or a trailing "?" or "*".
func YearIsApproximate(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	return circaPrefix.MatchString(raw) || uncertainYear.MatchString(raw)
}

// CleanTitle collapses internal whitespace and trims surrounding whitespace
// and stray punctuation. Parentheses are preserved.
func CleanTitle(raw string) string {
	title := strings.Join(strings.Fields(raw), " ")
	return strings.Trim(title, " .,;:")
}

// IsLikelyLiving reports whether a composer is probably still alive.
// This is a best-effort heuristic: a composer born before 1901 is assumed
// dead even without a death year, and an implied age of 100 or more counts
// as dead.
func IsLikelyLiving(birthYear, deathYear *int) bool {
	if deathYear != nil {
		return false
	}
	if birthYear == nil {
		return false
	}
	age := time.Now().Year() - *birthYear
	return *birthYear > 1900 && age < 100
}

// CleanCountryName maps common country-name variants to their canonical
// form; unrecognized names pass through unchanged.
func CleanCountryName(raw string) string {
	raw = strings.TrimSpace(raw)
	if canonical, ok := countryAliases[raw]; ok {
		return canonical
	}
	return raw
}

// SplitMovements splits a movement list on semicolons or newlines, trims
// each piece, drops empties, and strips leading arabic or roman ordinals
// ("1.", "II.").
func SplitMovements(raw string) []string {
	if raw == "" {
		return nil
	}
	var movements []string
	for _, piece := range movementSplit.Split(raw, -1) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		piece = movementPrefix.ReplaceAllString(piece, "")
		if piece != "" {
			movements = append(movements, piece)
		}
	}
	return movements
}

// ParseOpusNumber normalizes opus designations like "op.12" or "Opus 12" to
// "Op. 12". Catalog numbers without an opus prefix ("BWV 1004") pass through.
func ParseOpusNumber(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return opusPrefix.ReplaceAllString(raw, "Op. ")
}

// CleanInstrumentation collapses whitespace and title-cases an
// instrumentation string ("solo  guitar" -> "Solo Guitar").
func CleanInstrumentation(raw string) string {
	cleaned := strings.Join(strings.Fields(raw), " ")
	if cleaned == "" {
		return ""
	}
	return titleCaser.String(cleaned)
}

// ExtractDurationMinutes parses a duration in minutes from free-text forms:
// "10 min", "10'", "10:30" (seconds >= 30 round up), and "10-12" (average).
func ExtractDurationMinutes(raw string) (int, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return 0, false
	}

	if m := durationMinutes.FindStringSubmatch(raw); m != nil {
		n, err := strconv.Atoi(m[1])
		return n, err == nil
	}
	if m := durationTick.FindStringSubmatch(raw); m != nil {
		n, err := strconv.Atoi(m[1])
		return n, err == nil
	}
	if m := durationClock.FindStringSubmatch(raw); m != nil {
		minutes, err1 := strconv.Atoi(m[1])
		seconds, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			return 0, false
		}
		if seconds >= 30 {
			minutes++
		}
		return minutes, true
	}
	if m := durationRange.FindStringSubmatch(raw); m != nil {
		lo, err1 := strconv.Atoi(m[1])
		hi, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			return 0, false
		}
		return (lo + hi) / 2, true
	}
	return 0, false
}

// ComposerKey builds the per-run cache key for a composer: normalized full
// name plus birth year, or "unknown" when the year is absent.
func ComposerKey(fullName string, birthYear *int) string {
	year := "unknown"
	if birthYear != nil {
		year = strconv.Itoa(*birthYear)
	}
	return fmt.Sprintf("%s_%s", Name(fullName), year)
}
