package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/josh-kwaku/topup-ledger/internal/domain"
)

// Verifier authenticates gateway notifications with a shared HMAC-SHA256 secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Configured() bool {
	return len(v.secret) > 0
}

// Verify checks the signature header against the exact body bytes. The
// header may be the bare hex digest, a list of fields such as
// "ts=1700000000,v1=<hex>", or any value that carries the digest, such as
// "sha256:<hex>".
func (v *Verifier) Verify(body []byte, header string) error {
	if !v.Configured() {
		return fmt.Errorf("Verify: %w", domain.ErrConfiguration)
	}

	header = strings.TrimSpace(header)
	if header == "" {
		return fmt.Errorf("Verify: %w", domain.ErrMissingSignature)
	}

	expected := []byte(digest(body, v.secret))
	for _, candidate := range candidates(header) {
		if hmac.Equal(expected, []byte(strings.ToLower(candidate))) {
			return nil
		}
	}
	if strings.Contains(strings.ToLower(header), string(expected)) {
		return nil
	}
	return fmt.Errorf("Verify: %w", domain.ErrInvalidSignature)
}

// Sign returns the hex digest a gateway holding secret would send for body.
func Sign(body []byte, secret string) string {
	return digest(body, []byte(secret))
}

func digest(body, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func candidates(header string) []string {
	fields := strings.FieldsFunc(header, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	})

	out := make([]string, 0, len(fields)+1)
	out = append(out, header)
	for _, f := range fields {
		if _, value, ok := strings.Cut(f, "="); ok {
			f = value
		}
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
