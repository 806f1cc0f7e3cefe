package util

import "testing"

func TestHashContentDeterministic(t *testing.T) {
	payload := []byte("expediente 2025/0042")
	if HashContent(payload) != HashContent(append([]byte(nil), payload...)) {
		t.Fatal("identical bytes must produce identical fingerprints")
	}
}

func TestHashContentSingleBitChange(t *testing.T) {
	a := []byte("expediente 2025/0042")
	b := append([]byte(nil), a...)
	b[0] ^= 0x01

	if HashContent(a) == HashContent(b) {
		t.Fatal("single-bit change must produce a different fingerprint")
	}
}

func TestHashContentLength(t *testing.T) {
	if got := len(HashContent(nil)); got != 64 {
		t.Fatalf("expected 64 hex chars, got %d", got)
	}
}

func TestSanitizeFileName(t *testing.T) {
	if _, err := SanitizeFileName("../etc/passwd"); err == nil {
		t.Fatal("expected traversal pattern to be rejected")
	}
	got, err := SanitizeFileName("a/b\\c.pdf")
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if got != "a_b_c.pdf" {
		t.Fatalf("unexpected sanitized name: %s", got)
	}
}
