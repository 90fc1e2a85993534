package gravatar

import (
	"strings"
	"testing"

	"github.com/docshost/docshost/internal/config"
)

func testService() *Service {
	return New(config.GravatarConfig{
		BaseURL:      "https://www.gravatar.com/avatar",
		DefaultStyle: "mp",
		Size:         32,
	})
}

func TestHash_NormalizesEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{"mixed case", "Ada@Acme.Example"},
		{"surrounding whitespace", "  ada@acme.example  "},
		{"already normalized", "ada@acme.example"},
	}

	want := Hash("ada@acme.example")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Hash(tt.email); got != want {
				t.Errorf("Hash(%q) = %s, want %s", tt.email, got, want)
			}
		})
	}
}

func TestHash_KnownDigest(t *testing.T) {
	// Reference digest computed from the canonical normalization.
	got := Hash("MyEmailAddress@example.com ")
	want := "0bc83cb571cd1c50ba6f3e8a78ef1346"
	if got != want {
		t.Errorf("Hash() = %s, want %s", got, want)
	}
}

func TestURL_IncludesStyleAndSize(t *testing.T) {
	svc := testService()
	url := svc.URL("ada@acme.example")

	if !strings.HasPrefix(url, "https://www.gravatar.com/avatar/") {
		t.Errorf("URL = %s, want gravatar prefix", url)
	}
	if !strings.Contains(url, "d=mp") {
		t.Errorf("URL = %s, want default style param", url)
	}
	if !strings.Contains(url, "s=32") {
		t.Errorf("URL = %s, want size param", url)
	}
}

func TestURLWithSize_Override(t *testing.T) {
	svc := testService()
	url := svc.URLWithSize("ada@acme.example", 128)
	if !strings.Contains(url, "s=128") {
		t.Errorf("URL = %s, want s=128", url)
	}
}

func TestURLWithSize_NonPositiveFallsBackToDefault(t *testing.T) {
	svc := testService()
	url := svc.URLWithSize("ada@acme.example", 0)
	if !strings.Contains(url, "s=32") {
		t.Errorf("URL = %s, want configured default size", url)
	}
}

func TestOrigin(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{"default endpoint", "https://www.gravatar.com/avatar", "https://www.gravatar.com"},
		{"caching proxy with port", "http://avatars.internal:8080/avatar", "http://avatars.internal:8080"},
		{"no path", "https://gravatar.example", "https://gravatar.example"},
		{"relative url", "/avatar", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(config.GravatarConfig{BaseURL: tt.baseURL, DefaultStyle: "mp", Size: 32})
			if got := svc.Origin(); got != tt.want {
				t.Errorf("Origin() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	svc := New(config.GravatarConfig{BaseURL: "https://gravatar.example/avatar/", DefaultStyle: "mp", Size: 32})
	url := svc.URL("ada@acme.example")
	if strings.Contains(url, "avatar//") {
		t.Errorf("URL = %s, double slash in path", url)
	}
}
