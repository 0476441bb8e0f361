package eeprom

import (
	"math"
)

// --------------------------------------------------------------------------
// Store information
// --------------------------------------------------------------------------

// PageInfo describes one page of the store.
type PageInfo struct {
	Address   uint32     `json:"address"`
	Status    PageStatus `json:"status"`
	UsedSlots int        `json:"used_slots"`
	Erases    uint64     `json:"erases"`
}

// Info is a snapshot of the state of a store.
type Info struct {
	ActivePage  int                 `json:"active_page"` // -1 if no page is active
	Pages       [pageCount]PageInfo `json:"pages"`
	Capacity    int                 `json:"capacity"`
	UsedSlots   int                 `json:"used_slots"`
	FreeSlots   int                 `json:"free_slots"`
	LiveRecords int                 `json:"live_records"`
	Compactions uint64              `json:"compactions"`
	Appended    uint64              `json:"appended"`
	Elided      uint64              `json:"elided"`
	Wear        DistributionStats   `json:"wear"`
}

// Info collects page states and the counters kept since the store was created.
func (e *EEPROM) Info() Info {
	info := Info{
		ActivePage:  -1,
		Capacity:    e.capacity,
		Compactions: e.counters.compactions,
		Appended:    e.counters.appended,
		Elided:      e.counters.elided,
	}

	erases := make([]float64, pageCount)
	for p := 0; p < pageCount; p++ {
		info.Pages[p] = PageInfo{
			Address:   e.pageBase(p),
			Status:    e.pageStatus(p),
			UsedSlots: e.lastWrittenSlot(p),
			Erases:    e.counters.erases[p],
		}
		erases[p] = float64(e.counters.erases[p])
	}
	info.Wear = NewDistributionStats(erases)

	if p, err := e.activePage(); err == nil {
		info.ActivePage = p
		info.UsedSlots = e.lastSlot(p)
		info.FreeSlots = e.capacity - info.UsedSlots
		if entries, err := e.Entries(); err == nil {
			info.LiveRecords = len(entries)
		}
	}
	return info
}

// --------------------------------------------------------------------------
// Statistics helpers
// --------------------------------------------------------------------------

// Stats summarizes a series of values.
type Stats struct {
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// NewStats computes the standard deviation, minimum, maximum and mean of values.
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	min, max := values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(values))

	var sumSquaredDiffs float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiffs += diff * diff
	}

	// population standard deviation
	stdDev := math.Sqrt(sumSquaredDiffs / float64(len(values)))

	minMaxRatio := 1.0
	if max > 0 {
		minMaxRatio = min / max
	}

	return Stats{
		StdDeviation: stdDev,
		Min:          min,
		Max:          max,
		Mean:         mean,
		MinMaxRatio:  minMaxRatio,
	}
}

// DistributionStats extends Stats with a score for how evenly the values are spread.
type DistributionStats struct {
	Stats
	DistributionQuality float64 `json:"distribution_quality"`
}

// NewDistributionStats rates how evenly values (here: erase counts per page) are spread.
// A quality of 1 means perfectly even wear.
func NewDistributionStats(values []float64) DistributionStats {
	stats := NewStats(values)

	var cv float64
	if stats.Mean > 0 {
		cv = stats.StdDeviation / stats.Mean
	}

	// lower coefficient of variation and higher min/max ratio mean better spread
	quality := (1.0-math.Min(1.0, cv))*0.5 + stats.MinMaxRatio*0.5

	return DistributionStats{
		Stats:               stats,
		DistributionQuality: quality,
	}
}
