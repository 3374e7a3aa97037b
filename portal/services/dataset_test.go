package services

import (
	"testing"
	"time"
)

func TestDeriveDatasetId(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 30, 9, 0, time.UTC)

	cases := []struct {
		title    string
		expected string
	}{
		{"Wind Tunnel Run 12", "Wind_Tunnel_Run_12_20240305_143009"},
		{"already_sanitized", "already_sanitized_20240305_143009"},
		{"odd, punctuation!  (v2)", "odd_punctuation_v2_20240305_143009"},
		{"  padded  ", "padded_20240305_143009"},
	}

	for _, c := range cases {
		if id := deriveDatasetId(c.title, now); id != c.expected {
			t.Fatalf("deriveDatasetId(%q) = %q, expected %q", c.title, id, c.expected)
		}
	}
}

func TestDeriveDatasetIdChangesWithTime(t *testing.T) {
	first := deriveDatasetId("Run", time.Date(2024, 3, 5, 14, 30, 9, 0, time.UTC))
	second := deriveDatasetId("Run", time.Date(2024, 3, 5, 14, 30, 10, 0, time.UTC))
	if first == second {
		t.Fatal("uploads one second apart must produce distinct ids")
	}
}
