package coredb

// IntHistogram estimates selectivity of comparison predicates against an
// integer column without scanning the underlying table. Values are
// bucketed into bucketCount equal-width buckets spanning [min, max];
// addValue is O(1); estimateSelectivity is O(1) for equality and O(bucketCount)
// for range predicates.

type IntHistogram struct {
	min, max    int32
	bucketCount int
	bucketWidth int32
	buckets     map[int]int // bucket index -> count; absent means zero
	total       int64
}

// NewIntHistogram builds an empty histogram over [min, max] with bucketCount
// buckets. bucketWidth is ceil((max-min)/bucketCount), clamped to at least 1.
func NewIntHistogram(bucketCount int, min, max int32) *IntHistogram {
	if bucketCount < 1 {
		bucketCount = 1
	}
	span := int64(max) - int64(min)
	width := int32((span + int64(bucketCount) - 1) / int64(bucketCount))
	if width < 1 {
		width = 1
	}
	return &IntHistogram{
		min:         min,
		max:         max,
		bucketCount: bucketCount,
		bucketWidth: width,
		buckets:     make(map[int]int),
	}
}

func (h *IntHistogram) bucketIndex(v int32) int {
	if v < h.min {
		return 0
	}
	if v > h.max {
		return h.bucketCount - 1
	}
	idx := int(int64(v-h.min) / int64(h.bucketWidth))
	if idx >= h.bucketCount {
		idx = h.bucketCount - 1
	}
	return idx
}

// addValue records one occurrence of v.
func (h *IntHistogram) addValue(v int32) {
	h.buckets[h.bucketIndex(v)]++
	h.total++
}

// estimateSelectivity returns the estimated fraction of values in the
// histogram satisfying "field op v" for each of the six comparison
// operators.
func (h *IntHistogram) estimateSelectivity(op BoolOp, v int32) float64 {
	if h.total == 0 {
		return 0
	}
	switch op {
	case OpEquals:
		return h.equalsSelectivity(v)
	case OpNotEquals:
		return 1 - h.equalsSelectivity(v)
	case OpGreaterThan:
		return h.aboveSelectivity(v)
	case OpGreaterThanOrEqual:
		return h.aboveSelectivity(v - 1)
	case OpLessThan:
		return 1 - h.aboveSelectivity(v-1)
	case OpLessThanOrEqual:
		return 1 - h.aboveSelectivity(v)
	}
	return 0
}

// equalsSelectivity estimates P(field = v) as (bucket count / bucket width) / total,
// assuming values are spread evenly within a bucket.
func (h *IntHistogram) equalsSelectivity(v int32) float64 {
	if v < h.min || v > h.max {
		return 0
	}
	idx := h.bucketIndex(v)
	count := h.buckets[idx]
	if count == 0 {
		return 0
	}
	return (float64(count) / float64(h.bucketWidth)) / float64(h.total)
}

// aboveSelectivity estimates P(field > v): buckets strictly above v's bucket
// count in full, v's own bucket contributes the fraction of its width lying
// above v.
func (h *IntHistogram) aboveSelectivity(v int32) float64 {
	if v >= h.max {
		return 0
	}
	if v < h.min {
		return 1
	}
	idx := h.bucketIndex(v)
	bucketLo := h.min + int32(idx)*h.bucketWidth
	bucketHi := bucketLo + h.bucketWidth - 1

	var above int64
	for i := idx + 1; i < h.bucketCount; i++ {
		above += int64(h.buckets[i])
	}

	partial := 0.0
	if count := h.buckets[idx]; count > 0 {
		fractionAbove := float64(bucketHi-v) / float64(h.bucketWidth)
		if fractionAbove < 0 {
			fractionAbove = 0
		}
		partial = float64(count) * fractionAbove
	}

	return (float64(above) + partial) / float64(h.total)
}
