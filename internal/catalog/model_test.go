package catalog

import (
	"reflect"
	"testing"
)

func TestMarshalStringSlice(t *testing.T) {
	if got := MarshalStringSlice(nil); got != "[]" {
		t.Errorf("MarshalStringSlice(nil) = %q, want []", got)
	}
	if got := MarshalStringSlice([]string{"Allegro", "Adagio"}); got != `["Allegro","Adagio"]` {
		t.Errorf("MarshalStringSlice = %q", got)
	}
}

func TestUnmarshalStringSlice(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`["Allegro","Adagio"]`, []string{"Allegro", "Adagio"}},
		{"[]", nil},
		{"", nil},
		{"not json", nil},
	}
	for _, tt := range tests {
		got := UnmarshalStringSlice(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("UnmarshalStringSlice(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
