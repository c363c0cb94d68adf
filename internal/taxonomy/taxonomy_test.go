package taxonomy

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCatalogue(t *testing.T) {
	t.Parallel()

	got := Catalogue()
	if len(got) != 6 {
		t.Fatalf("len(Catalogue()) = %d, want 6", len(got))
	}

	want := []string{"nutrition", "work", "sleep", "mind-body", "ai-tools", "analog-tools"}
	if diff := cmp.Diff(want, IDs()); diff != "" {
		t.Errorf("IDs() mismatch (-want +got):\n%s", diff)
	}

	for _, p := range got {
		if p.Name == "" || p.Tagline == "" || p.Description == "" {
			t.Errorf("pillar %q has empty display fields: %+v", p.ID, p)
		}
	}
}

func TestCatalogue_ReturnsCopy(t *testing.T) {
	t.Parallel()

	first := Catalogue()
	first[0].Name = "mutated"

	if Catalogue()[0].Name == "mutated" {
		t.Error("Catalogue() exposes internal storage")
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id     string
		wantOK bool
	}{
		{"sleep", true},
		{"mind-body", true},
		{"Sleep", false},
		{"meditation", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()
			p, ok := Lookup(tt.id)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.id, ok, tt.wantOK)
			}
			if ok && p.ID != tt.id {
				t.Errorf("Lookup(%q).ID = %q", tt.id, p.ID)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestResolve - Declared identifiers to pillars
// ---------------------------------------------------------------------------

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ids  []string
		want []string
	}{
		{
			name: "nil input yields empty",
			ids:  nil,
			want: []string{},
		},
		{
			name: "declaration order kept",
			ids:  []string{"sleep", "nutrition"},
			want: []string{"sleep", "nutrition"},
		},
		{
			name: "unknown dropped silently",
			ids:  []string{"sleep", "meditation"},
			want: []string{"sleep"},
		},
		{
			name: "all unknown",
			ids:  []string{"yoga", "x"},
			want: []string{},
		},
		{
			name: "duplicates collapse",
			ids:  []string{"work", "work", "ai-tools"},
			want: []string{"work", "ai-tools"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Resolve(tt.ids)
			if got == nil {
				t.Fatal("Resolve returned nil slice")
			}
			ids := make([]string, len(got))
			for i, p := range got {
				ids[i] = p.ID
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Errorf("Resolve(%q) mismatch (-want +got):\n%s", tt.ids, diff)
			}
		})
	}
}

func TestUnknown(t *testing.T) {
	t.Parallel()

	got := Unknown([]string{"sleep", "meditation", "work", "Work"})
	want := []string{"meditation", "Work"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unknown() mismatch (-want +got):\n%s", diff)
	}
}
