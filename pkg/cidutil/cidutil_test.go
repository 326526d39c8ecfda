package cidutil

import (
	"strings"
	"testing"
)

const (
	validV0    = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
	validPiece = "baga6ea4seaqao7s73y24kcutaosvacpdjgfe5pw76ooefnyqw4ynr3d2y6x2mpq"
	validV1    = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"
)

func TestValidate_V0(t *testing.T) {
	res := Validate(validV0)
	if !res.Valid || res.Format != FormatV0 {
		t.Fatalf("Validate(%q) = %+v, want valid v0", validV0, res)
	}

	// Base58btc forbids 0, O, I and l.
	bad := "Qm0000Jzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
	res = Validate(bad)
	if res.Valid || res.Format != FormatV0 || res.Reason != "invalid CIDv0 format" {
		t.Fatalf("Validate(%q) = %+v, want invalid v0", bad, res)
	}
}

func TestValidate_PieceBeforeV1(t *testing.T) {
	res := Validate(validPiece)
	if !res.Valid {
		t.Fatalf("Validate(%q) = %+v, want valid", validPiece, res)
	}
	if res.Format != FormatPiece {
		t.Fatalf("PieceCID classified as %q, want %q", res.Format, FormatPiece)
	}
}

func TestValidate_V1(t *testing.T) {
	res := Validate(validV1)
	if !res.Valid || res.Format != FormatV1 {
		t.Fatalf("Validate(%q) = %+v, want valid v1", validV1, res)
	}

	bad := "b" + strings.Repeat("A", 58) // uppercase is outside base32-lowercase
	res = Validate(bad)
	if res.Valid || res.Format != FormatV1 {
		t.Fatalf("Validate(%q) = %+v, want invalid v1", bad, res)
	}
}

func TestValidate_Lengths(t *testing.T) {
	cases := []struct {
		in     string
		reason string
	}{
		{"", "non-empty string required"},
		{"Qmshort", "too short"},
		{strings.Repeat("Q", 101), "too long"},
		{strings.Repeat("x", 46), "unrecognized format"},
	}
	for _, c := range cases {
		res := Validate(c.in)
		if res.Valid || res.Format != FormatUnknown || res.Reason != c.reason {
			t.Fatalf("Validate(%.12q) = %+v, want unknown %q", c.in, res, c.reason)
		}
	}
}

func TestValidate_TrimsWhitespace(t *testing.T) {
	if res := Validate("  " + validV0 + "\n"); !res.Valid || res.Format != FormatV0 {
		t.Fatalf("whitespace-padded CID rejected: %+v", res)
	}
}

func TestIsPieceCID(t *testing.T) {
	if !IsPieceCID(validPiece) {
		t.Fatalf("IsPieceCID(%q) = false, want true", validPiece)
	}
	if IsPieceCID(validV1) {
		t.Fatalf("IsPieceCID(%q) = true, want false", validV1)
	}
}

func TestSanitizeForLog(t *testing.T) {
	short := "Qmabc"
	if got := SanitizeForLog(short); got != short {
		t.Fatalf("SanitizeForLog(%q) = %q, want unchanged", short, got)
	}
	got := SanitizeForLog(validV0)
	want := validV0[:10] + "..." + validV0[len(validV0)-10:]
	if got != want {
		t.Fatalf("SanitizeForLog = %q, want %q", got, want)
	}
	if len(got) != 23 {
		t.Fatalf("sanitized length = %d, want 23", len(got))
	}
}

func TestRequireValid(t *testing.T) {
	got, err := RequireValid("  " + validV0 + "  ")
	if err != nil {
		t.Fatalf("RequireValid returned error: %v", err)
	}
	if got != validV0 {
		t.Fatalf("RequireValid = %q, want trimmed input", got)
	}

	if _, err := RequireValid("not-a-cid"); err == nil {
		t.Fatal("RequireValid accepted malformed input")
	}
}

func TestAssertValid_CarriesReason(t *testing.T) {
	err := AssertValid(strings.Repeat("z", 200))
	if err == nil || !strings.Contains(err.Error(), "too long") {
		t.Fatalf("AssertValid error = %v, want reason 'too long'", err)
	}
}
