package utils

import "testing"

func TestHashJSON(t *testing.T) {
	type payload struct {
		ProductID int `json:"product_id"`
	}

	a := HashJSON(payload{ProductID: 1})
	b := HashJSON(payload{ProductID: 1})
	c := HashJSON(payload{ProductID: 2})

	if a != b {
		t.Fatalf("expected equal hashes for equal payloads, got %s and %s", a, b)
	}
	if a == c {
		t.Fatal("expected different hashes for different payloads")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}
