package input

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/racer/internal/core/race/vehicle"
)

// Segment holds one player's controls for ticks [From, To).
type Segment struct {
	Player   int              `yaml:"player"`
	From     uint64           `yaml:"from"`
	To       uint64           `yaml:"to"`
	Controls vehicle.Controls `yaml:",inline"`
}

// Script replays a fixed timeline of segments. Overlapping segments for the
// same player merge their flags.
type Script struct {
	Segments []Segment `yaml:"segments"`
}

var _ Source = (*Script)(nil)

// LoadScript decodes and validates a YAML script.
func LoadScript(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &Script{}, nil
		}
		return nil, fmt.Errorf("decode input script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScriptFile reads a script from path.
func LoadScriptFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input script: %w", err)
	}
	defer f.Close()
	return LoadScript(f)
}

// Validate checks every segment and reports all problems together.
func (s *Script) Validate() error {
	var errs []error
	for i, seg := range s.Segments {
		if seg.Player < 0 || seg.Player >= Players {
			errs = append(errs, fmt.Errorf("%w: segment %d: player %d", ErrInvalidScript, i, seg.Player))
		}
		if seg.From >= seg.To {
			errs = append(errs, fmt.Errorf("%w: segment %d: empty range [%d, %d)", ErrInvalidScript, i, seg.From, seg.To))
		}
	}
	return errors.Join(errs...)
}

// Len is the first tick after which the script presses nothing.
func (s *Script) Len() uint64 {
	var end uint64
	for _, seg := range s.Segments {
		end = max(end, seg.To)
	}
	return end
}

func (s *Script) Controls(tick uint64) [Players]vehicle.Controls {
	var out [Players]vehicle.Controls
	for _, seg := range s.Segments {
		if tick >= seg.From && tick < seg.To {
			out[seg.Player] = out[seg.Player].Or(seg.Controls)
		}
	}
	return out
}
