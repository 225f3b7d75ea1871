package addon

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadID indicates an id that does not follow the bridge's id scheme.
var ErrBadID = errors.New("addon: malformed id")

// idPrefix scopes every id the bridge hands out, so Stremio routes only our
// ids back to us.
const idPrefix = "lib"

// StreamID is the decoded form of an opaque id. A movie (or bare series) id
// carries only ItemID; an episode id carries the full tuple, where season and
// episode are display context only and EpisodeID is authoritative for the
// stream URL.
type StreamID struct {
	ItemID    string
	Season    int
	Episode   int
	EpisodeID string
}

// IsEpisode reports whether the id addresses a single episode.
func (s StreamID) IsEpisode() bool {
	return s.EpisodeID != ""
}

// EncodeItemID builds the opaque id for a movie or series library item.
func EncodeItemID(itemID string) string {
	return idPrefix + ":" + itemID
}

// EncodeEpisodeID builds the opaque id for one episode of a series.
func EncodeEpisodeID(seriesID string, season, episode int, episodeID string) string {
	return fmt.Sprintf("%s:%s:%d:%d:%s", idPrefix, seriesID, season, episode, episodeID)
}

// DecodeID parses an opaque id. The round trip is exact for component values
// containing no ':' characters.
func DecodeID(id string) (StreamID, error) {
	parts := strings.Split(id, ":")
	if parts[0] != idPrefix {
		return StreamID{}, fmt.Errorf("%w: %q", ErrBadID, id)
	}

	switch len(parts) {
	case 2:
		if parts[1] == "" {
			return StreamID{}, fmt.Errorf("%w: %q", ErrBadID, id)
		}
		return StreamID{ItemID: parts[1]}, nil
	case 5:
		season, err := strconv.Atoi(parts[2])
		if err != nil {
			return StreamID{}, fmt.Errorf("%w: season in %q", ErrBadID, id)
		}
		episode, err := strconv.Atoi(parts[3])
		if err != nil {
			return StreamID{}, fmt.Errorf("%w: episode in %q", ErrBadID, id)
		}
		if parts[1] == "" || parts[4] == "" {
			return StreamID{}, fmt.Errorf("%w: %q", ErrBadID, id)
		}
		return StreamID{
			ItemID:    parts[1],
			Season:    season,
			Episode:   episode,
			EpisodeID: parts[4],
		}, nil
	default:
		return StreamID{}, fmt.Errorf("%w: %q", ErrBadID, id)
	}
}

// ticksPerSecond is the Jellyfin runtime unit: one tick is 100 nanoseconds.
const ticksPerSecond = 10_000_000

// ticksToMinutes converts runtime ticks to whole minutes, rounding seconds to
// minutes and clamping any positive duration to at least one minute. Zero or
// negative ticks yield zero, which callers omit.
func ticksToMinutes(ticks int64) int {
	if ticks <= 0 {
		return 0
	}
	seconds := (ticks + ticksPerSecond/2) / ticksPerSecond
	minutes := int((seconds + 30) / 60)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
