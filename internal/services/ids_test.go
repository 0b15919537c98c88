package services

import (
	"errors"
	"testing"

	"github.com/desertthunder/dupx/internal/shared"
)

func TestParsePlaylistID(t *testing.T) {
	const id = "37i9dQZF1DXcBWIGoYBM5M"

	tc := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare id", input: id, want: id},
		{name: "padded id", input: "  " + id + "\n", want: id},
		{name: "uri", input: "spotify:playlist:" + id, want: id},
		{name: "url", input: "https://open.spotify.com/playlist/" + id, want: id},
		{name: "url with query", input: "https://open.spotify.com/playlist/" + id + "?si=abc123", want: id},
		{name: "url without scheme", input: "open.spotify.com/playlist/" + id, want: id},
		{name: "localized url", input: "https://open.spotify.com/intl-de/playlist/" + id, want: id},
		{name: "empty", input: "   ", wantErr: true},
		{name: "too short", input: "abc", wantErr: true},
		{name: "track uri", input: "spotify:track:" + id, wantErr: true},
		{name: "album url", input: "https://open.spotify.com/album/" + id, wantErr: true},
		{name: "other host", input: "https://evil.example/playlist/" + id, wantErr: true},
		{name: "bad characters", input: "37i9dQZF1DXcBWIGoYBM5-", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlaylistID(tt.input)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v (%q)", err, got)
				}
				return
			}

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParsePlaylistID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
