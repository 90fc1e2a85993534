package versions

import (
	"testing"

	"github.com/docshost/docshost/internal/db/models"
)

func slugs(list []*models.ProjectVersion) []string {
	out := make([]string, len(list))
	for i, v := range list {
		out[i] = v.Slug
	}
	return out
}

func fromSlugs(in ...string) []*models.ProjectVersion {
	out := make([]*models.ProjectVersion, len(in))
	for i, s := range in {
		out[i] = &models.ProjectVersion{Slug: s}
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"1.0.0", false},
		{"v2.1.3", false},
		{"1.0.0-rc.1", false},
		{"latest", true},
		{"not a version", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := Validate(tt.version)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.version, err, tt.wantErr)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		v1, v2 string
		want   int
	}{
		{"1.0.0", "2.0.0", -1},
		{"2.0.0", "1.0.0", 1},
		{"1.2.3", "1.2.3", 0},
		{"v1.10.0", "v1.9.0", 1},
	}

	for _, tt := range tests {
		got, err := Compare(tt.v1, tt.v2)
		if err != nil {
			t.Fatalf("Compare(%q, %q) error: %v", tt.v1, tt.v2, err)
		}
		if got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.v1, tt.v2, got, tt.want)
		}
	}
}

func TestCompare_InvalidInput(t *testing.T) {
	if _, err := Compare("nope", "1.0.0"); err == nil {
		t.Error("expected error for invalid v1")
	}
	if _, err := Compare("1.0.0", "nope"); err == nil {
		t.Error("expected error for invalid v2")
	}
}

func TestSort_SemverNewestFirstThenSlugs(t *testing.T) {
	list := fromSlugs("latest", "v1.9.0", "stable", "v2.0.0", "v1.10.0")
	Sort(list)

	want := []string{"v2.0.0", "v1.10.0", "v1.9.0", "latest", "stable"}
	got := slugs(list)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sort() = %v, want %v", got, want)
		}
	}
}

func TestSort_AllNonSemverAlphabetical(t *testing.T) {
	list := fromSlugs("main", "develop", "Latest")
	Sort(list)

	want := []string{"develop", "Latest", "main"}
	got := slugs(list)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sort() = %v, want %v", got, want)
		}
	}
}

func TestSort_Empty(t *testing.T) {
	Sort(nil) // must not panic
}

func TestLatest(t *testing.T) {
	list := fromSlugs("latest", "v1.2.0", "v1.10.0", "main")
	best := Latest(list)
	if best == nil || best.Slug != "v1.10.0" {
		t.Errorf("Latest() = %v, want v1.10.0", best)
	}
}

func TestLatest_NoSemver(t *testing.T) {
	if best := Latest(fromSlugs("latest", "main")); best != nil {
		t.Errorf("Latest() = %v, want nil", best)
	}
}
