package risk

import (
	"fmt"
	"math"

	"onpointe/prevention/internal/domain"
)

// ComputeLoad is round(minutes × rpe). Missing, non-numeric and negative
// inputs count as 0, so the result is always a finite non-negative integer.
func ComputeLoad(entry domain.CheckIn) int {
	return loadOf(entry.Minutes.Float(), entry.RPE.Float())
}

func loadOf(minutes, rpe float64) int {
	if minutes <= 0 || rpe <= 0 {
		return 0
	}
	return roundLoad(minutes * rpe)
}

// roundLoad rounds a non-negative load, saturating at MaxInt32.
func roundLoad(v float64) int {
	rounded := math.Round(v)
	if math.IsInf(rounded, 0) || rounded > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(rounded)
}

// LoadFor prefers the authoritative server load and falls back to ComputeLoad.
func LoadFor(entry domain.CheckIn) int {
	if entry.Risk != nil && entry.Risk.Load != nil {
		if v := entry.Risk.Load.Float(); v >= 0 {
			return roundLoad(v)
		}
	}
	return ComputeLoad(entry)
}

// FormatACWR renders a ratio for display. Absent or zero ratios render empty.
func FormatACWR(acwr *domain.Number) string {
	if acwr == nil || acwr.Float() == 0 {
		return ""
	}
	return fmt.Sprintf("ACWR %.2f", acwr.Float())
}
