package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := CreateWalletRequest{
		Name: "  Cash  ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "Cash", req.Name)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := CreateEntryRequest{
		WalletID: "0b9f8a3e-0000-0000-0000-000000000000",
		Label:    "groceries <script>alert('x')</script>",
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.Label, "&lt;script&gt;")
	assert.NotContains(t, req.Label, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	note := "  monthly rent  "
	req := CreateEntryRequest{
		WalletID: "0b9f8a3e-0000-0000-0000-000000000000",
		Label:    "Rent",
		Note:     &note,
	}
	SanitizeStruct(&req)

	assert.Equal(t, "monthly rent", *req.Note)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := CreateDebtRequest{
		WalletID:     "0b9f8a3e-0000-0000-0000-000000000000",
		Counterparty: "Alice",
		Note:         nil,
	}
	SanitizeStruct(&req)
	assert.Nil(t, req.Note)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestSafeID_Valid(t *testing.T) {
	cases := []string{
		"ref-001",
		"REF_002",
		"a.b.c",
		"simple123",
		"ABC-def_GHI.123",
	}
	for _, tc := range cases {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{
		"ref 001",     // space
		"ref<001>",    // angle brackets
		"ref;DROP",    // semicolon
		"",            // empty
		"hello world", // space
		"ref\n001",    // newline
	}
	for _, tc := range cases {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}
