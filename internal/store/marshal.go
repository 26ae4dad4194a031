package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/keepmark/internal/shrink"
)

// Stats are stored as one JSON object per run; the counters are only
// ever read back whole.

func marshalStats(stats shrink.Stats) (string, error) {
	data, err := json.Marshal(stats)
	if err != nil {
		return "", fmt.Errorf("marshal stats: %w", err)
	}
	return string(data), nil
}

// unmarshalStats treats an empty column as zero counters.
func unmarshalStats(data string) (shrink.Stats, error) {
	var stats shrink.Stats
	if data == "" {
		return stats, nil
	}
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return shrink.Stats{}, fmt.Errorf("unmarshal stats: %w", err)
	}
	return stats, nil
}

// sqlBool is how certain and explained flags are stored.
func sqlBool(b bool) int {
	if b {
		return 1
	}
	return 0
}
