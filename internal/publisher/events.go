package publisher

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatsImported announces that the player_stats table was replaced.
type StatsImported struct {
	JobID      string    `json:"job_id,omitempty"`
	Rows       int       `json:"rows"`
	Teams      []string  `json:"teams"`
	Source     string    `json:"source"`
	ImportedAt time.Time `json:"imported_at"`
}

func encodeEvent(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"data":      string(data),
		"timestamp": time.Now().Unix(),
	}, nil
}

// DecodeStatsImported parses the values of a stream message.
func DecodeStatsImported(values map[string]any) (StatsImported, error) {
	var ev StatsImported
	raw, ok := values["data"].(string)
	if !ok {
		return ev, fmt.Errorf("stream message has no data field")
	}
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return ev, fmt.Errorf("decode stats imported event: %w", err)
	}
	return ev, nil
}
