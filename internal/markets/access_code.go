package markets

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"

	pkgerrors "github.com/tavernkeep/bazaar-backend/pkg/errors"
)

const (
	codeSuffixLen      = 6
	codeSuffixAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"
	maxSlugLen         = 40
)

// GenerateAccessCode derives a shareable code from the market name:
// a lowercase slug plus a random suffix. Codes are not checked for
// uniqueness; the suffix keeps collisions unlikely and lookups return
// the oldest match.
func GenerateAccessCode(name string) (string, error) {
	suffix, err := randomSuffix(codeSuffixLen)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate access code")
	}
	slug := slugify(name)
	if slug == "" {
		return suffix, nil
	}
	return slug + "-" + suffix, nil
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}
	return slug
}

func randomSuffix(n int) (string, error) {
	max := big.NewInt(int64(len(codeSuffixAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = codeSuffixAlphabet[idx.Int64()]
	}
	return string(out), nil
}
