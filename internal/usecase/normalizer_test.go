package usecase

import (
	"reflect"
	"testing"

	"github.com/mealsense/backend/internal/domain"
)

func TestNormalizeExtraction(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []domain.ExtractedMention
	}{
		{
			name: "plain foods list",
			raw:  `{"foods":[{"name":"nasi lemak","portion":"1 plate"},{"name":"teh tarik"}]}`,
			want: []domain.ExtractedMention{
				{Name: "nasi lemak", PortionText: "1 plate"},
				{Name: "teh tarik"},
			},
		},
		{
			name: "json wrapped in prose",
			raw:  "Sure! Here is what I found:\n```json\n{\"foods\":[{\"name\":\"laksa\"}]}\n```\nHope that helps.",
			want: []domain.ExtractedMention{{Name: "laksa"}},
		},
		{
			name: "foods and drinks keys combined",
			raw:  `{"foods":[{"name":"roti canai"}],"drinks":[{"name":"kopi o","portion":"1 cup"}]}`,
			want: []domain.ExtractedMention{
				{Name: "roti canai"},
				{Name: "kopi o", PortionText: "1 cup"},
			},
		},
		{
			name: "string entries become bare names",
			raw:  `{"items":["chicken rice"," satay ",""]}`,
			want: []domain.ExtractedMention{
				{Name: "chicken rice"},
				{Name: "satay"},
			},
		},
		{
			name: "single object without a list key",
			raw:  `{"name":"milo","portion_text":"1 glass","modifiers":["less sugar"]}`,
			want: []domain.ExtractedMention{
				{Name: "milo", PortionText: "1 glass", Modifiers: []string{"less sugar"}},
			},
		},
		{
			name: "numeric quantity coerced to portion text",
			raw:  `{"foods":[{"name":"curry puff","quantity":3}]}`,
			want: []domain.ExtractedMention{{Name: "curry puff", PortionText: "3"}},
		},
		{
			name: "entries without a name are dropped",
			raw:  `{"foods":[{"portion":"1 bowl"},{"name":"mee goreng"}]}`,
			want: []domain.ExtractedMention{{Name: "mee goreng"}},
		},
		{
			name: "braces inside string literals do not break block scanning",
			raw:  `note {"foods":[{"name":"ice kacang {shaved}"}]} trailer`,
			want: []domain.ExtractedMention{{Name: "ice kacang {shaved}"}},
		},
		{
			name: "malformed json degrades to empty",
			raw:  `{"foods":[{"name":"nasi lemak"`,
			want: nil,
		},
		{
			name: "no json at all",
			raw:  "I could not identify any food in the image.",
			want: nil,
		},
		{
			name: "empty input",
			raw:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeExtraction(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeExtraction() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeExtractionDedupes(t *testing.T) {
	raw := `{"foods":[
        {"name":" Teh Tarik ","modifiers":["less sugar"]},
        {"name":"teh tarik","portion":"1 cup","modifiers":["Less Sugar","iced"]}
    ]}`

	got := NormalizeExtraction(raw)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (%+v)", len(got), got)
	}

	m := got[0]
	if m.Name != "Teh Tarik" {
		t.Errorf("Name = %q, want first-seen spelling kept", m.Name)
	}
	if m.PortionText != "1 cup" {
		t.Errorf("PortionText = %q, want first non-empty portion", m.PortionText)
	}
	want := []string{"less sugar", "iced"}
	if !reflect.DeepEqual(m.Modifiers, want) {
		t.Errorf("Modifiers = %v, want %v", m.Modifiers, want)
	}
}
