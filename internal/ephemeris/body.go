package ephemeris

import (
	"fmt"
	"strings"
)

// Body identifies a point the provider can place on the ecliptic.
type Body int

const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
	NorthNode // mean lunar ascending node
)

var bodyNames = [...]string{
	Sun:       "Sun",
	Moon:      "Moon",
	Mercury:   "Mercury",
	Venus:     "Venus",
	Mars:      "Mars",
	Jupiter:   "Jupiter",
	Saturn:    "Saturn",
	Uranus:    "Uranus",
	Neptune:   "Neptune",
	Pluto:     "Pluto",
	NorthNode: "NorthNode",
}

// Bodies lists every body the built-in provider supports, in display order.
var Bodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto, NorthNode}

// Planets lists the bodies reported in daily position tables.
var Planets = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto}

func (b Body) String() string {
	if b < 0 || int(b) >= len(bodyNames) {
		return fmt.Sprintf("Body(%d)", int(b))
	}
	return bodyNames[b]
}

// MarshalText encodes the body by name.
func (b Body) MarshalText() ([]byte, error) {
	if b < 0 || int(b) >= len(bodyNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBody, int(b))
	}
	return []byte(bodyNames[b]), nil
}

// UnmarshalText decodes a body name (see ParseBody).
func (b *Body) UnmarshalText(text []byte) error {
	v, err := ParseBody(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// ParseBody resolves a body name, case-insensitively. "TrueNode", "Node" and
// "North Node" are accepted as aliases of NorthNode.
func ParseBody(name string) (Body, error) {
	n := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
	switch n {
	case "truenode", "meannode", "node":
		return NorthNode, nil
	}
	for i, s := range bodyNames {
		if strings.ToLower(s) == n {
			return Body(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBody, name)
}

// ParseBodies resolves a list of names, failing on the first unknown one.
func ParseBodies(names []string) ([]Body, error) {
	out := make([]Body, 0, len(names))
	for _, n := range names {
		b, err := ParseBody(n)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
