package replay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Script is a recorded gesture session against one list.
type Script struct {
	Name     string        `yaml:"name"`
	Seed     uint64        `yaml:"seed"`
	Frame    time.Duration `yaml:"frame"`
	Geometry Geometry      `yaml:"geometry"`
	Spring   *Spring       `yaml:"spring"`
	Items    []Item        `yaml:"items"`
	Steps    []Step        `yaml:"steps"`
}

type Geometry struct {
	ActionWidth       float64 `yaml:"actionWidth"`
	Gap               float64 `yaml:"gap"`
	ScreenWidth       float64 `yaml:"screenWidth"`
	VelocityThreshold float64 `yaml:"velocityThreshold"`
}

type Spring struct {
	DampingRatio float64 `yaml:"dampingRatio"`
	Stiffness    float64 `yaml:"stiffness"`
}

type Item struct {
	Key     string   `yaml:"key"`
	Actions []Action `yaml:"actions"`
}

type Action struct {
	Label       string `yaml:"label"`
	Destructive bool   `yaml:"destructive"`
	// Removes drops the row from the list when the action fires, the way a
	// real delete would.
	Removes bool `yaml:"removes"`
}

type Op string

const (
	OpDrag     Op = "drag"
	OpRelease  Op = "release"
	OpTap      Op = "tap"
	OpOpen     Op = "open"
	OpClose    Op = "close"
	OpCloseAll Op = "closeAll"
	OpAdvance  Op = "advance"
	OpSettle   Op = "settle"
	OpRemove   Op = "remove"
	OpResize   Op = "resize"
)

// Step is one host event. Which fields matter depends on Op.
type Step struct {
	Op  Op     `yaml:"op"`
	Key string `yaml:"key"`

	// drag: total dx spread evenly over Frames frames.
	DX     float64 `yaml:"dx"`
	Frames int     `yaml:"frames"`

	// release: explicit velocity; when unset the drag's tracked velocity is used.
	Velocity *float64 `yaml:"velocity"`

	// tap: action button index; when unset the tap lands on row content.
	Action *int `yaml:"action"`

	// advance
	Duration time.Duration `yaml:"duration"`

	// resize
	Width float64 `yaml:"width"`
}

const (
	defaultActionWidth = 60
	defaultGap         = 6
	defaultScreenWidth = 390
	defaultFrame       = time.Second / 60
)

// LoadFile reads and validates a script.
func LoadFile(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a script strictly (unknown fields are errors), fills
// defaults and validates it.
func Parse(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) applyDefaults() {
	if s.Frame <= 0 {
		s.Frame = defaultFrame
	}
	if s.Geometry.ActionWidth <= 0 {
		s.Geometry.ActionWidth = defaultActionWidth
	}
	if s.Geometry.Gap < 0 {
		s.Geometry.Gap = 0
	} else if s.Geometry.Gap == 0 {
		s.Geometry.Gap = defaultGap
	}
	if s.Geometry.ScreenWidth <= 0 {
		s.Geometry.ScreenWidth = defaultScreenWidth
	}
	for i := range s.Steps {
		if s.Steps[i].Op == OpDrag && s.Steps[i].Frames <= 0 {
			s.Steps[i].Frames = 1
		}
	}
}

// Validate checks item keys and that every step is well formed.
func (s *Script) Validate() error {
	keys := map[string]bool{}
	for i, it := range s.Items {
		k := strings.TrimSpace(it.Key)
		if k == "" {
			return fmt.Errorf("items[%d]: missing key", i)
		}
		if keys[k] {
			return fmt.Errorf("items[%d]: duplicate key %q", i, k)
		}
		keys[k] = true
	}
	for i, st := range s.Steps {
		switch st.Op {
		case OpDrag, OpRelease, OpOpen, OpClose, OpRemove:
			if !keys[st.Key] {
				return fmt.Errorf("steps[%d] %s: unknown key %q", i, st.Op, st.Key)
			}
		case OpTap:
			if st.Action != nil && !keys[st.Key] {
				return fmt.Errorf("steps[%d] tap: action tap needs a known key, got %q", i, st.Key)
			}
		case OpAdvance:
			if st.Duration <= 0 {
				return fmt.Errorf("steps[%d] advance: duration must be positive", i)
			}
		case OpResize:
			if st.Width <= 0 {
				return fmt.Errorf("steps[%d] resize: width must be positive", i)
			}
		case OpCloseAll, OpSettle:
		default:
			return fmt.Errorf("steps[%d]: unknown op %q", i, st.Op)
		}
	}
	return nil
}
