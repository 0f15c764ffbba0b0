package methyl

import "go.uber.org/zap"

// Stats counts what happened to the records of a run. Malformed records are
// not included in Records.
type Stats struct {
	Records      int
	Unmapped     int
	Secondary    int
	Malformed    int
	Calls        int
	Methylated   int
	Unmethylated int
}

func (s *Stats) add(c Call) {
	s.Calls++
	if c.Methylated() {
		s.Methylated++
	} else {
		s.Unmethylated++
	}
}

// Fields renders the counters as structured log fields.
func (s Stats) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("records", s.Records),
		zap.Int("unmapped", s.Unmapped),
		zap.Int("secondary", s.Secondary),
		zap.Int("malformed", s.Malformed),
		zap.Int("calls", s.Calls),
		zap.Int("methylated", s.Methylated),
		zap.Int("unmethylated", s.Unmethylated),
	}
}
