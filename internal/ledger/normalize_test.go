package ledger

import "testing"

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "already normal", in: "gate-1.jpg", want: "gate-1.jpg"},
		{name: "uppercase", in: "IMG_1011.JPG", want: "img_1011.jpg"},
		{name: "spaces", in: "Driveway Gate Denver.png", want: "driveway-gate-denver.png"},
		{name: "punctuation runs", in: "front!!gate??(2).webp", want: "front-gate-2-.webp"},
		{name: "collapsed dashes", in: "a---b.jpg", want: "a-b.jpg"},
		{name: "trimmed", in: "  --gate--  ", want: "gate"},
		{name: "unicode", in: "café gate.jpg", want: "caf-gate.jpg"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeKey(tc.in); got != tc.want {
				t.Fatalf("NormalizeKey(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeKeyStable(t *testing.T) {
	key := NormalizeKey("Iron Gate #4.jpg")
	if NormalizeKey(key) != key {
		t.Fatalf("normalization must be idempotent, %q re-normalized to %q", key, NormalizeKey(key))
	}
}

func TestExtensionForType(t *testing.T) {
	cases := map[string]string{
		"image/jpeg":                  ".jpg",
		"IMAGE/JPEG; charset=binary":  ".jpg",
		"image/png":                   ".png",
		"image/webp":                  ".webp",
		"image/gif":                   ".gif",
		"application/pdf":             "",
		"image/svg+xml":               "",
		"text/html":                   "",
		"":                            "",
	}
	for in, want := range cases {
		if got := ExtensionForType(in); got != want {
			t.Fatalf("ExtensionForType(%q) = %q, want %q", in, got, want)
		}
	}
}
