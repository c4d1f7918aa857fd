package curate

import "github.com/thurmanmarka/astrocal/internal/ephemeris"

// Meta describes how often an event recurs and what it is read as.
type Meta struct {
	Frequency  string
	Importance string // generational | major | moderate
	Themes     []string
}

// IngressBodies are the slow movers whose sign changes are major events.
var IngressBodies = []ephemeris.Body{
	ephemeris.Neptune,
	ephemeris.Uranus,
	ephemeris.Saturn,
	ephemeris.Jupiter,
	ephemeris.NorthNode,
}

var ingressMeta = map[ephemeris.Body]Meta{
	ephemeris.Neptune: {
		Frequency:  "Every ~14 years per sign",
		Importance: "generational",
		Themes:     []string{"collective dreams", "spirituality", "illusion", "compassion", "artistic movements"},
	},
	ephemeris.Uranus: {
		Frequency:  "Every ~7 years per sign",
		Importance: "generational",
		Themes:     []string{"innovation", "revolution", "technology", "awakening", "disruption"},
	},
	ephemeris.Saturn: {
		Frequency:  "Every ~2.5 years per sign",
		Importance: "major",
		Themes:     []string{"responsibility", "structure", "lessons", "maturity", "discipline"},
	},
	ephemeris.Jupiter: {
		Frequency:  "Every ~1 year per sign",
		Importance: "major",
		Themes:     []string{"expansion", "growth", "luck", "wisdom", "opportunity"},
	},
	ephemeris.NorthNode: {
		Frequency:  "Every ~18 months per sign",
		Importance: "major",
		Themes:     []string{"collective destiny", "karmic direction", "soul purpose", "evolutionary path"},
	},
}

// pairKey is an unordered body pair.
type pairKey struct{ lo, hi ephemeris.Body }

func keyOf(a, b ephemeris.Body) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// rareConjunctions are the pairs whose conjunctions are major events.
var rareConjunctions = map[pairKey]Meta{
	keyOf(ephemeris.Saturn, ephemeris.Neptune): {
		Frequency:  "Every ~36 years",
		Importance: "generational",
		Themes:     []string{"dissolution of structures", "spiritual awakening", "collective dreams", "institutional reform"},
	},
	keyOf(ephemeris.Saturn, ephemeris.Uranus): {
		Frequency:  "Every ~45 years",
		Importance: "generational",
		Themes:     []string{"revolution vs tradition", "systemic change", "technological disruption", "liberation"},
	},
	keyOf(ephemeris.Saturn, ephemeris.Pluto): {
		Frequency:  "Every ~33-38 years",
		Importance: "generational",
		Themes:     []string{"power structures", "transformation", "endings and beginnings", "karmic reckoning"},
	},
	keyOf(ephemeris.Jupiter, ephemeris.Saturn): {
		Frequency:  "Every ~20 years",
		Importance: "major",
		Themes:     []string{"new era", "social cycles", "expansion meets contraction", "economic shifts"},
	},
	keyOf(ephemeris.Jupiter, ephemeris.Uranus): {
		Frequency:  "Every ~14 years",
		Importance: "major",
		Themes:     []string{"breakthrough", "innovation", "sudden expansion", "freedom", "technological leaps"},
	},
	keyOf(ephemeris.Jupiter, ephemeris.Neptune): {
		Frequency:  "Every ~13 years",
		Importance: "major",
		Themes:     []string{"spiritual expansion", "idealism", "creativity", "compassion", "dreams realized"},
	},
	keyOf(ephemeris.Jupiter, ephemeris.Pluto): {
		Frequency:  "Every ~13 years",
		Importance: "major",
		Themes:     []string{"power expansion", "transformation", "wealth cycles", "truth revealed"},
	},
	keyOf(ephemeris.Uranus, ephemeris.Neptune): {
		Frequency:  "Every ~171 years",
		Importance: "generational",
		Themes:     []string{"cultural renaissance", "consciousness shift", "collective awakening"},
	},
	keyOf(ephemeris.Uranus, ephemeris.Pluto): {
		Frequency:  "Every ~127 years",
		Importance: "generational",
		Themes:     []string{"revolutionary transformation", "power to the people", "radical change"},
	},
	keyOf(ephemeris.Neptune, ephemeris.Pluto): {
		Frequency:  "Every ~492 years",
		Importance: "generational",
		Themes:     []string{"civilization shifts", "spiritual transformation", "collective unconscious"},
	},
	keyOf(ephemeris.Venus, ephemeris.Jupiter): {
		Frequency:  "Every ~1 year",
		Importance: "moderate",
		Themes:     []string{"love", "abundance", "beauty", "harmony", "good fortune"},
	},
	keyOf(ephemeris.Mars, ephemeris.Neptune): {
		Frequency:  "Every ~2 years",
		Importance: "moderate",
		Themes:     []string{"inspired action", "spiritual warrior", "imagination", "creative drive"},
	},
}

// rareConjunction returns the metadata of a curated conjunction of a and b,
// in either order.
func rareConjunction(a, b ephemeris.Body) (Meta, bool) {
	m, ok := rareConjunctions[keyOf(a, b)]
	return m, ok
}
