package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a numeric check-in field. Decoding never fails: numeric strings
// are parsed and anything else becomes 0.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = Number(v)
			return nil
		}
	}
	*n = 0
	return nil
}

// Float returns the value, with NaN and infinities mapped to 0.
func (n Number) Float() float64 {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseNumber coerces raw form input the same way decoding does.
func ParseNumber(raw string) Number {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return Number(v).normalized()
}

func (n Number) normalized() Number {
	return Number(n.Float())
}
