package config

import "testing"

func TestParseGUIDRoundTripsKnownValue(t *testing.T) {
	got, err := ParseGUID("AABBCCDD-1122-3344-5566-778899AABBCC")
	if err != nil {
		t.Fatal(err)
	}
	want := [16]byte{0xAA, 0xBB, 0xCC, 0xDD, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xAA, 0xBB, 0xCC}
	if got != want {
		t.Fatalf("got %x, want %x", got, want)
	}
}

func TestParseGUIDRejectsShortString(t *testing.T) {
	if _, err := ParseGUID("AABB-CCDD"); err == nil {
		t.Fatal("expected error for short guid")
	}
}

func TestParseGUIDRejectsBadHex(t *testing.T) {
	if _, err := ParseGUID("ZZBBCCDD-1122-3344-5566-778899AABBCC"); err == nil {
		t.Fatal("expected error for non-hex digit")
	}
}

func TestBuildFailsOnMissingField(t *testing.T) {
	tree := raw{
		"listen": raw{"address": "::", "port": 47624},
	}
	if _, err := build(tree); err == nil {
		t.Fatal("expected error for missing session section")
	}
}

func TestBuildSucceedsWithDefaults(t *testing.T) {
	tree := raw{
		"listen": raw{"address": "::", "port": 47624},
		"session": raw{
			"name":             "TestRoom",
			"application_guid": "AABBCCDD-1122-3344-5566-778899AABBCC",
			"max_players":      10,
		},
	}
	cfg, err := build(tree)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SessionName != "TestRoom" || cfg.MaxPlayers != 10 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level, got %q", cfg.LogLevel)
	}
}
