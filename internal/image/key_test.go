package image

import (
	"errors"
	"regexp"
	"testing"
	"time"
)

func TestObjectKeyLayout(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	tests := []struct {
		name   string
		folder string
		ext    string
		want   string
	}{
		{"with folder", "menu", "png", "menu/1700000000123-tok.png"},
		{"no folder", "", "jpg", "1700000000123-tok.jpg"},
		{"folder slashes trimmed", " /menu/ramen/ ", "gif", "menu/ramen/1700000000123-tok.gif"},
		{"no extension", "menu", "", "menu/1700000000123-tok"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ObjectKey(now, "tok", tc.folder, tc.ext); got != tc.want {
				t.Fatalf("ObjectKey = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"a.png":          "png",
		"photo.tar.webp": "webp",
		"README":         "",
		"trailing.":      "",
		".hidden":        "hidden",
	}
	for name, want := range cases {
		if got := Extension(name); got != want {
			t.Fatalf("Extension(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestRandomTokenIsShortBase36(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-z]{11}$`)
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		tok, err := randomToken()
		if err != nil {
			t.Fatalf("randomToken returned error: %v", err)
		}
		if !re.MatchString(tok) {
			t.Fatalf("unexpected token %q", tok)
		}
		seen[tok] = struct{}{}
	}
	if len(seen) < 50 {
		t.Fatalf("expected distinct tokens, got %d unique of 50", len(seen))
	}
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"provider layout", "https://host/storage/v1/object/public/menu-images/menu/123-abc.png", "menu/123-abc.png"},
		{"path style", "http://localhost:9000/menu-images/123-abc.png", "123-abc.png"},
		{"query ignored", "http://localhost:9000/menu-images/menu/123-abc.png?v=2", "menu/123-abc.png"},
		{"no bucket segment falls back to last", "https://cdn.example.com/menu/123-abc.png", "123-abc.png"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := KeyFromURL(tc.url, "menu-images")
			if err != nil {
				t.Fatalf("KeyFromURL returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("KeyFromURL = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestKeyFromURLRejectsEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "https://host/menu-images/", "http://[::1"} {
		if _, err := KeyFromURL(raw, "menu-images"); !errors.Is(err, ErrUnparseableURL) {
			t.Fatalf("KeyFromURL(%q): expected ErrUnparseableURL, got %v", raw, err)
		}
	}
}

func TestAllowedType(t *testing.T) {
	for _, ct := range []string{"image/jpeg", "image/png", "image/webp", "image/gif", " IMAGE/PNG "} {
		if !AllowedType(ct) {
			t.Fatalf("expected %q to be allowed", ct)
		}
	}
	for _, ct := range []string{"application/pdf", "image/svg+xml", "", "image/bmp"} {
		if AllowedType(ct) {
			t.Fatalf("expected %q to be rejected", ct)
		}
	}
}

func TestPublicURLRoundTripsThroughKeyFromURL(t *testing.T) {
	keys := []string{
		"menu/1700000000123-tok.png",
		"menu #1/1700000000123-tok.png",
		"what?/100%/1700000000123-tok.webp",
		"1700000000123-tok",
	}

	for _, key := range keys {
		u := publicURL("http://localhost:9000", "menu-images", key)
		got, err := KeyFromURL(u, "menu-images")
		if err != nil {
			t.Fatalf("KeyFromURL(%q) returned error: %v", u, err)
		}
		if got != key {
			t.Fatalf("round trip of %q through %q gave %q", key, u, got)
		}
	}
}

func TestPublicURLEscapesReservedCharacters(t *testing.T) {
	got := publicURL("http://localhost:9000", "menu-images", "menu #1/1-a.png")
	want := "http://localhost:9000/menu-images/menu%20%231/1-a.png"
	if got != want {
		t.Fatalf("publicURL = %q, want %q", got, want)
	}
}
