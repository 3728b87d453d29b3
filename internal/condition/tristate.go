package condition

import "math"

// Tri is a three-valued boolean. Unknown comes from comparisons against an
// undefined operand and survives compound predicates until the signal is
// assembled, where it collapses to false.
type Tri int8

const (
	Unknown Tri = iota
	False
	True
)

// FromBool converts a plain bool.
func FromBool(b bool) Tri {
	if b {
		return True
	}

	return False
}

// Greater compares a > b. Either side undefined yields Unknown.
func Greater(a float64, b float64) Tri {
	if math.IsNaN(a) || math.IsNaN(b) {
		return Unknown
	}

	return FromBool(a > b)
}

// Less compares a < b. Either side undefined yields Unknown.
func Less(a float64, b float64) Tri {
	if math.IsNaN(a) || math.IsNaN(b) {
		return Unknown
	}

	return FromBool(a < b)
}

// And is Kleene conjunction: False dominates, then Unknown.
func (t Tri) And(other Tri) Tri {
	if t == False || other == False {
		return False
	}

	if t == Unknown || other == Unknown {
		return Unknown
	}

	return True
}

// Or is Kleene disjunction: True dominates, then Unknown.
func (t Tri) Or(other Tri) Tri {
	if t == True || other == True {
		return True
	}

	if t == Unknown || other == Unknown {
		return Unknown
	}

	return False
}

// Not negates; Unknown stays Unknown.
func (t Tri) Not() Tri {
	switch t {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

// IsTrue collapses to a plain bool, treating Unknown as false.
func (t Tri) IsTrue() bool {
	return t == True
}

func (t Tri) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "undefined"
	}
}

// MarshalText renders the value for structured traces.
func (t Tri) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
