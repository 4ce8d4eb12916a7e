package normalize

import (
	"reflect"
	"testing"
	"time"
)

func TestName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Dvořák, Antonín", "dvorak, antonin"},
		{"Saint-Saëns", "saint-saens"},
		{"  Bach  ", "bach"},
		{"Béla Bartók", "bela bartok"},
		{"武満徹", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Name(tt.in); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNameIsIdempotent(t *testing.T) {
	inputs := []string{"Dvořák, Antonín", "SAINT-SAËNS", "plain name"}
	for _, in := range inputs {
		once := Name(in)
		if twice := Name(once); twice != once {
			t.Errorf("Name(Name(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestParseComposerName(t *testing.T) {
	tests := []struct {
		in            string
		first, last   string
		reconstructed string
	}{
		{"Bach, Johann Sebastian", "Johann Sebastian", "Bach", "Johann Sebastian Bach"},
		{"Johann Sebastian Bach", "Johann Sebastian", "Bach", "Johann Sebastian Bach"},
		{"Sting", "", "Sting", "Sting"},
		{"  Villa-Lobos,  Heitor ", "Heitor", "Villa-Lobos", "Heitor Villa-Lobos"},
		{"", "", "", ""},
	}
	for _, tt := range tests {
		first, last, reconstructed := ParseComposerName(tt.in)
		if first != tt.first || last != tt.last || reconstructed != tt.reconstructed {
			t.Errorf("ParseComposerName(%q) = (%q, %q, %q), want (%q, %q, %q)",
				tt.in, first, last, reconstructed, tt.first, tt.last, tt.reconstructed)
		}
	}
}

func TestCleanYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1685", 1685, true},
		{"ca. 1700", 1700, true},
		{"c.1700", 1700, true},
		{"1912?", 1912, true},
		{"1912*", 1912, true},
		{"born 1950, died 2001", 1950, true},
		{"999", 0, false},
		{"2200", 0, false},
		{"unknown", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := CleanYear(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("CleanYear(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestYearIsApproximate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"ca. 1700", true},
		{"c.1700", true},
		{"1912?", true},
		{"1912*", true},
		{"1685", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := YearIsApproximate(tt.in); got != tt.want {
			t.Errorf("YearIsApproximate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Suite   in   E  minor ", "Suite in E minor"},
		{"Prelude.", "Prelude"},
		{"Sonata, ", "Sonata"},
		{"Fantasia (after Bach)", "Fantasia (after Bach)"},
		{"...", ""},
	}
	for _, tt := range tests {
		if got := CleanTitle(tt.in); got != tt.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsLikelyLiving(t *testing.T) {
	intp := func(n int) *int { return &n }
	thisYear := time.Now().Year()

	tests := []struct {
		name        string
		birth, deth *int
		want        bool
	}{
		{"death year wins", intp(1970), intp(2020), false},
		{"no birth year", nil, nil, false},
		{"born before 1901", intp(1900), nil, false},
		{"recent birth", intp(thisYear - 40), nil, true},
		{"centenarian cutoff", intp(thisYear - 100), nil, false},
	}
	for _, tt := range tests {
		if got := IsLikelyLiving(tt.birth, tt.deth); got != tt.want {
			t.Errorf("%s: IsLikelyLiving = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCleanCountryName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"USA", "United States"},
		{"U.K.", "United Kingdom"},
		{"Holland", "Netherlands"},
		{"Brazil", "Brazil"},
		{"  Spain ", "Spain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanCountryName(tt.in); got != tt.want {
			t.Errorf("CleanCountryName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitMovements(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"1. Allegro; 2. Adagio; 3. Presto", []string{"Allegro", "Adagio", "Presto"}},
		{"I. Prelude\nII. Fugue", []string{"Prelude", "Fugue"}},
		{"Allegro;;Adagio", []string{"Allegro", "Adagio"}},
		{"", nil},
		{" ; ", nil},
	}
	for _, tt := range tests {
		got := SplitMovements(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitMovements(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseOpusNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"op.12", "Op. 12"},
		{"Op 12", "Op. 12"},
		{"Opus 12", "Op. 12"},
		{"BWV 1004", "BWV 1004"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParseOpusNumber(tt.in); got != tt.want {
			t.Errorf("ParseOpusNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanInstrumentation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"solo  guitar", "Solo Guitar"},
		{"GUITAR DUO", "Guitar Duo"},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := CleanInstrumentation(tt.in); got != tt.want {
			t.Errorf("CleanInstrumentation(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractDurationMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"10 min", 10, true},
		{"10 minutes", 10, true},
		{"10'", 10, true},
		{"10:29", 10, true},
		{"10:30", 11, true},
		{"10-12", 11, true},
		{"about an hour", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ExtractDurationMinutes(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ExtractDurationMinutes(%q) = (%d, %v), want (%d, %v)",
				tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestComposerKey(t *testing.T) {
	year := 1685
	if got := ComposerKey("Bach, Johann Sebastian", &year); got != "bach, johann sebastian_1685" {
		t.Errorf("ComposerKey with year = %q", got)
	}
	if got := ComposerKey("Sting", nil); got != "sting_unknown" {
		t.Errorf("ComposerKey without year = %q", got)
	}
	if ComposerKey("Dvořák", &year) != ComposerKey("Dvorak", &year) {
		t.Error("accent variants should share a key")
	}
}
