package links

import (
	"strings"
	"testing"
)

func TestCryptoAliasSource_Generate(t *testing.T) {
	src := NewCryptoAliasSource()

	alias, err := src.Generate(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(alias) != 10 {
		t.Errorf("got length %d, want 10", len(alias))
	}
	for _, r := range alias {
		if !strings.ContainsRune(base62Alphabet, r) {
			t.Errorf("alias %q contains non-base62 rune %q", alias, r)
		}
	}
}

func TestCryptoAliasSource_GenerateDefaultsLength(t *testing.T) {
	src := NewCryptoAliasSource()

	alias, err := src.Generate(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(alias) != DefaultAliasLength {
		t.Errorf("got length %d, want %d", len(alias), DefaultAliasLength)
	}
}

func TestNormalizeAlias(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "my-link", "my-link"},
		{"trims whitespace", "  my-link  ", "my-link"},
		{"strips http prefix", "http://my-link", "my-link"},
		{"strips https prefix", "https://my-link", "my-link"},
		{"strips embedded scheme", "foohttp://bar", "foobar"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeAlias(tt.in); got != tt.want {
				t.Errorf("normalizeAlias(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
