package grid

// DefaultRenderCeiling is the most rows handed to the rendering surface.
const DefaultRenderCeiling = 500

// Governed is the render-bounded slice of the final sequence.
type Governed struct {
	Rendered     []GroupedRecord
	Truncated    bool
	LogicalCount int
}

// Govern caps seq at ceiling rows.
//
// LogicalCount is len(seq), or reportedTotal when it is positive (the
// server-side total of a remote dataset). seq itself is left untouched.
// ceiling <= 0 means DefaultRenderCeiling.
func Govern(seq []GroupedRecord, ceiling int, reportedTotal int) Governed {
	if ceiling <= 0 {
		ceiling = DefaultRenderCeiling
	}
	logical := len(seq)
	if reportedTotal > 0 {
		logical = reportedTotal
	}
	if len(seq) <= ceiling {
		return Governed{Rendered: seq, LogicalCount: logical}
	}
	return Governed{
		Rendered:     seq[:ceiling:ceiling],
		Truncated:    true,
		LogicalCount: logical,
	}
}
