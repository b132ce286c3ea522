package links

import (
	"crypto/rand"
	"strings"
)

const base62Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// DefaultAliasLength matches the 10-character aliases minted for callers that
// do not supply their own (62^10 combinations).
const DefaultAliasLength = 10

type CryptoAliasSource struct{}

func NewCryptoAliasSource() *CryptoAliasSource { return &CryptoAliasSource{} }

func (s *CryptoAliasSource) Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultAliasLength
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	out := make([]byte, length)
	for i := range buf {
		out[i] = base62Alphabet[int(buf[i])%len(base62Alphabet)]
	}

	return string(out), nil
}

// normalizeAlias strips scheme prefixes that users paste in by accident.
func normalizeAlias(alias string) string {
	alias = strings.TrimSpace(alias)
	alias = strings.ReplaceAll(alias, "http://", "")
	alias = strings.ReplaceAll(alias, "https://", "")
	return alias
}
