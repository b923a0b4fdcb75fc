package event

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/comboer/internal/pid"
)

// ErrBadHandle is returned when a handle does not refer to an object of the event.
var ErrBadHandle = errors.New("handle out of range")

// Detector identifies the calorimeter that measured a shower.
type Detector uint8

const (
	// FCAL is the forward calorimeter. Its showers sit far enough downstream
	// that the photon direction does not depend on where in the target the
	// vertex is.
	FCAL Detector = iota
	// BCAL is the barrel calorimeter surrounding the target.
	BCAL
)

func (d Detector) String() string {
	if d == BCAL {
		return "BCAL"
	}
	return "FCAL"
}

// MarshalText encodes the detector by name.
func (d Detector) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText decodes a detector name.
func (d *Detector) UnmarshalText(b []byte) error {
	switch string(b) {
	case "FCAL", "fcal":
		*d = FCAL
	case "BCAL", "bcal":
		*d = BCAL
	default:
		return fmt.Errorf("unknown detector %q", b)
	}
	return nil
}

// Hypothesis is one PID interpretation of a charged track.
type Hypothesis struct {
	PID      pid.PID `json:"pid"`
	Momentum r3.Vec  `json:"momentum"` // GeV
	// Time is the track time projected to its point of closest approach, ns.
	Time float64 `json:"time"`
}

// Track is a reconstructed charged track with its PID hypotheses.
type Track struct {
	ID         int          `json:"id"`
	Position   r3.Vec       `json:"position"` // cm, point of closest approach to the beamline
	Hypotheses []Hypothesis `json:"hypotheses"`
}

// Hypothesis returns the track's hypothesis for p.
func (t *Track) Hypothesis(p pid.PID) (Hypothesis, bool) {
	for _, h := range t.Hypotheses {
		if h.PID == p {
			return h, true
		}
	}
	return Hypothesis{}, false
}

// Shower is a calorimeter cluster not matched to any track.
type Shower struct {
	ID       int      `json:"id"`
	Detector Detector `json:"detector"`
	Energy   float64  `json:"energy"`   // GeV
	Position r3.Vec   `json:"position"` // cm
	Time     float64  `json:"time"`     // ns
	Tags     []string `json:"tags,omitempty"`
}

// ZIndependent reports whether a photon from this shower has a direction that
// does not depend on the vertex position within the target.
func (s *Shower) ZIndependent() bool { return s.Detector == FCAL }

// HasTag reports whether the shower carries tag.
func (s *Shower) HasTag(tag string) bool { return slices.Contains(s.Tags, tag) }

// Beam is a tagged beam photon candidate.
type Beam struct {
	ID     int     `json:"id"`
	Energy float64 `json:"energy"` // GeV
	Time   float64 `json:"time"`   // ns, at the target centre
}

// Event is the detected content of one triggered event.
type Event struct {
	Number  uint64   `json:"number"`
	RFTime  float64  `json:"rf_time"` // ns, at the target centre
	Tracks  []Track  `json:"tracks"`
	Showers []Shower `json:"showers"`
	Beams   []Beam   `json:"beams"`
	// Skims is nil when the event carries no skim information.
	Skims []string `json:"skims,omitempty"`
}

// Handle identifies a detected object within one event. Tracks occupy
// [0, len(Tracks)) and showers follow, so every physical object has exactly one
// handle no matter how many PID hypotheses it is used under.
type Handle int32

// TrackHandle returns the handle of track i.
func (e *Event) TrackHandle(i int) Handle { return Handle(i) }

// ShowerHandle returns the handle of shower i.
func (e *Event) ShowerHandle(i int) Handle { return Handle(len(e.Tracks) + i) }

// IsTrack reports whether h refers to a track.
func (e *Event) IsTrack(h Handle) bool { return h >= 0 && int(h) < len(e.Tracks) }

// Track returns the track for h.
func (e *Event) Track(h Handle) (*Track, error) {
	if !e.IsTrack(h) {
		return nil, fmt.Errorf("%w: track %d", ErrBadHandle, h)
	}
	return &e.Tracks[h], nil
}

// Shower returns the shower for h.
func (e *Event) Shower(h Handle) (*Shower, error) {
	i := int(h) - len(e.Tracks)
	if i < 0 || i >= len(e.Showers) {
		return nil, fmt.Errorf("%w: shower %d", ErrBadHandle, h)
	}
	return &e.Showers[i], nil
}

// MustShower is Shower for handles produced by the event's own index.
func (e *Event) MustShower(h Handle) *Shower {
	s, err := e.Shower(h)
	if err != nil {
		panic(err)
	}
	return s
}

// MustTrack is Track for handles produced by the event's own index.
func (e *Event) MustTrack(h Handle) *Track {
	t, err := e.Track(h)
	if err != nil {
		panic(err)
	}
	return t
}

// HasSkims reports whether every tag in required is among the event's skims.
// Events without skim information pass.
func (e *Event) HasSkims(required []string) bool {
	if e.Skims == nil {
		return true
	}
	for _, s := range required {
		if !slices.Contains(e.Skims, s) {
			return false
		}
	}
	return true
}
