package media

import (
	"encoding/json"
	"fmt"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// DurationProber reads the playback length of a local media file in seconds.
type DurationProber interface {
	Duration(path string) (float64, error)
}

// FFProbe shells out to ffprobe through ffmpeg-go.
type FFProbe struct{}

func (FFProbe) Duration(path string) (float64, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbeDuration(out)
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func parseProbeDuration(out string) (float64, error) {
	var p probeOutput
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		return 0, fmt.Errorf("decode probe output: %w", err)
	}
	if p.Format.Duration == "" {
		return 0, nil
	}
	d, err := strconv.ParseFloat(p.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", p.Format.Duration, err)
	}
	return d, nil
}

// NoProbe always reports zero; used when FFPROBE_ENABLED=false.
type NoProbe struct{}

func (NoProbe) Duration(string) (float64, error) { return 0, nil }
