package services

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/desertthunder/dupx/internal/shared"
)

var base62ID = regexp.MustCompile(`^[0-9A-Za-z]{22}$`)

// ParsePlaylistID accepts a bare id, a spotify:playlist:<id> URI, or an open.spotify.com/playlist/<id> URL.
func ParsePlaylistID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: playlist id is empty", shared.ErrInvalidInput)
	}

	candidate := trimmed
	switch {
	case strings.HasPrefix(strings.ToLower(trimmed), "spotify:playlist:"):
		candidate = trimmed[len("spotify:playlist:"):]
	case strings.Contains(trimmed, "open.spotify.com"):
		if !strings.Contains(trimmed, "://") {
			trimmed = "https://" + trimmed
		}
		u, err := url.Parse(trimmed)
		if err != nil || u.Host != "open.spotify.com" {
			return "", fmt.Errorf("%w: %q is not a Spotify playlist URL", shared.ErrInvalidInput, raw)
		}

		parts := strings.Split(strings.Trim(path.Clean(u.Path), "/"), "/")
		candidate = ""
		for i := 0; i+1 < len(parts); i++ {
			if parts[i] == "playlist" {
				candidate = parts[i+1]
				break
			}
		}
	}

	if !base62ID.MatchString(candidate) {
		return "", fmt.Errorf("%w: %q is not a playlist id", shared.ErrInvalidInput, raw)
	}
	return candidate, nil
}
