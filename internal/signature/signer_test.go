package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestSignMatchesIndependentHMAC(t *testing.T) {
	t.Parallel()

	secret := strings.Repeat("k", 32)
	payload := []byte(`{"id":"evt-1","type":"application.received","timestamp":"2026-01-02T03:04:05Z","data":{}}`)

	got := Sign(secret, payload)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	want := hex.EncodeToString(mac.Sum(nil))

	if got != want {
		t.Fatalf("Sign() = %s, want %s", got, want)
	}
	if len(got) != 64 {
		t.Fatalf("signature length = %d, want 64 hex chars", len(got))
	}
}

func TestSignDiffersByKeyAndPayload(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt-1"}`)
	first := Sign(strings.Repeat("a", 32), payload)
	second := Sign(strings.Repeat("b", 32), payload)
	if first == second {
		t.Fatal("different secrets must produce different signatures")
	}

	third := Sign(strings.Repeat("a", 32), []byte(`{"id":"evt-2"}`))
	if first == third {
		t.Fatal("different payloads must produce different signatures")
	}
}

func TestVerify(t *testing.T) {
	t.Parallel()

	secret := strings.Repeat("s", 32)
	payload := []byte(`{"ok":true}`)
	sig := Sign(secret, payload)

	if !Verify(secret, payload, sig) {
		t.Fatal("Verify() should accept a signature produced by Sign()")
	}
	if Verify(secret, []byte(`{"ok":false}`), sig) {
		t.Fatal("Verify() should reject a tampered payload")
	}
	if Verify(secret, payload, "not-hex") {
		t.Fatal("Verify() should reject malformed hex")
	}
}
