// Package cidutil classifies and validates Filecoin/IPFS content identifiers
// by structural pattern before they are persisted, logged, or handed to a
// storage backend. Candidates are untrusted: they arrive from clients and
// from storage-SDK responses alike, so every string is checked against a
// small set of full-match patterns (CIDv0, PieceCID, CIDv1) rather than
// decoded optimistically.
package cidutil

import (
	"errors"
	"regexp"
	"strings"
)

// Format identifies the structural family a candidate CID belongs to.
type Format string

const (
	// FormatV0 is a legacy CIDv0 (base58btc multihash, "Qm..." form).
	FormatV0 Format = "v0"
	// FormatV1 is a modern CIDv1 (base32 lowercase, "b..." form).
	FormatV1 Format = "v1"
	// FormatPiece is a Filecoin PieceCID ("baga..." form).
	FormatPiece Format = "piece"
	// FormatUnknown is used when the candidate matches no known family.
	FormatUnknown Format = "unknown"
)

// Result is the outcome of a single validation call. Reason is empty when
// Valid is true.
type Result struct {
	Valid  bool
	Format Format
	Reason string
}

const (
	minLen = 46
	maxLen = 100
)

var (
	// Base58btc excludes the visually ambiguous characters 0, O, I and l.
	v0Pattern = regexp.MustCompile(`^Qm[1-9A-HJ-NP-Za-km-z]{44}$`)
	// PieceCIDs use the lowercase base32 alphabet (a-z2-7).
	piecePattern = regexp.MustCompile(`^baga[a-z2-7]{56,}$`)
	v1Pattern    = regexp.MustCompile(`^b[a-z2-7]{58,}$`)
)

// Validate classifies candidate and reports whether it is a structurally
// well-formed CID. The dispatch is ordered: the "baga" PieceCID check runs
// before the generic "b" CIDv1 check, since PieceCIDs also start with "b".
func Validate(candidate string) Result {
	if candidate == "" {
		return Result{Format: FormatUnknown, Reason: "non-empty string required"}
	}

	trimmed := strings.TrimSpace(candidate)
	if len(trimmed) < minLen {
		return Result{Format: FormatUnknown, Reason: "too short"}
	}
	if len(trimmed) > maxLen {
		return Result{Format: FormatUnknown, Reason: "too long"}
	}

	switch {
	case strings.HasPrefix(trimmed, "Qm"):
		if v0Pattern.MatchString(trimmed) {
			return Result{Valid: true, Format: FormatV0}
		}
		return Result{Format: FormatV0, Reason: "invalid CIDv0 format"}
	case strings.HasPrefix(trimmed, "baga"):
		if piecePattern.MatchString(trimmed) {
			return Result{Valid: true, Format: FormatPiece}
		}
		return Result{Format: FormatPiece, Reason: "invalid PieceCID format"}
	case strings.HasPrefix(trimmed, "b"):
		if v1Pattern.MatchString(trimmed) {
			return Result{Valid: true, Format: FormatV1}
		}
		return Result{Format: FormatV1, Reason: "invalid CIDv1 format"}
	}
	return Result{Format: FormatUnknown, Reason: "unrecognized format"}
}

// IsValid reports whether candidate passes Validate.
func IsValid(candidate string) bool {
	return Validate(candidate).Valid
}

// IsPieceCID is a narrower predicate: it tests the PieceCID pattern directly,
// without the length/prefix dispatch of Validate.
func IsPieceCID(candidate string) bool {
	return piecePattern.MatchString(strings.TrimSpace(candidate))
}

// SanitizeForLog shortens a candidate for log output so malformed or
// oversized input cannot flood operator logs. Trimmed strings of 20
// characters or fewer are returned unchanged; longer ones are reduced to
// their first and last 10 characters joined by "...".
func SanitizeForLog(candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if len(trimmed) <= 20 {
		return candidate
	}
	return trimmed[:10] + "..." + trimmed[len(trimmed)-10:]
}

// AssertValid returns an error carrying the validation reason when candidate
// is not a well-formed CID, nil otherwise.
func AssertValid(candidate string) error {
	res := Validate(candidate)
	if !res.Valid {
		return errors.New("invalid CID: " + res.Reason)
	}
	return nil
}

// RequireValid validates candidate and returns its trimmed form, or an error
// when validation fails.
func RequireValid(candidate string) (string, error) {
	if err := AssertValid(candidate); err != nil {
		return "", err
	}
	return strings.TrimSpace(candidate), nil
}
