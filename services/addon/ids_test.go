package addon

import (
	"errors"
	"testing"
)

func TestEncodeDecodeItemID(t *testing.T) {
	id := EncodeItemID("abc123")
	if id != "lib:abc123" {
		t.Fatalf("encoded: %q", id)
	}

	decoded, err := DecodeID(id)
	if err != nil {
		t.Fatalf("DecodeID: %v", err)
	}
	if decoded.ItemID != "abc123" || decoded.IsEpisode() {
		t.Fatalf("decoded: %+v", decoded)
	}
}

func TestEncodeDecodeEpisodeID(t *testing.T) {
	id := EncodeEpisodeID("ser1", 2, 5, "ep42")
	if id != "lib:ser1:2:5:ep42" {
		t.Fatalf("encoded: %q", id)
	}

	decoded, err := DecodeID(id)
	if err != nil {
		t.Fatalf("DecodeID: %v", err)
	}
	if !decoded.IsEpisode() {
		t.Fatal("expected episode id")
	}
	if decoded.ItemID != "ser1" || decoded.Season != 2 || decoded.Episode != 5 || decoded.EpisodeID != "ep42" {
		t.Fatalf("decoded: %+v", decoded)
	}
}

func TestDecodeID_Malformed(t *testing.T) {
	bad := []string{
		"",
		"tt0078748",
		"lib:",
		"lib:a:b",
		"lib:a:1:2",
		"lib:a:x:2:ep",
		"lib:a:1:y:ep",
		"lib::1:2:ep",
		"lib:a:1:2:",
		"lib:a:1:2:ep:extra",
	}
	for _, id := range bad {
		if _, err := DecodeID(id); !errors.Is(err, ErrBadID) {
			t.Errorf("DecodeID(%q): expected ErrBadID, got %v", id, err)
		}
	}
}

func TestTicksToMinutes(t *testing.T) {
	cases := []struct {
		ticks int64
		want  int
	}{
		{0, 0},
		{-600000000, 0},
		{600000000, 1},          // 60s
		{100000000, 1},          // 10s clamps up
		{36000000000, 60},       // 1h
		{69000000000, 115},      // 1h55m
		{35700000000, 60},       // 59m30s rounds up
		{35690000000, 59},       // 59m29s rounds down
	}
	for _, tc := range cases {
		if got := ticksToMinutes(tc.ticks); got != tc.want {
			t.Errorf("ticksToMinutes(%d): got %d, want %d", tc.ticks, got, tc.want)
		}
	}
}
