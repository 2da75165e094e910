package proxy

// Stats summarises a set of outcomes for reporting.
type Stats struct {
	Total   int
	Working int
	Failed  int
	Invalid int
	Errors  int
	ByType  map[Label]int

	latencySum   int64
	latencyCount int
}

func Summarize(outcomes []Outcome) Stats {
	s := Stats{ByType: make(map[Label]int)}
	for _, o := range outcomes {
		s.Add(o)
	}
	return s
}

func (s *Stats) Add(o Outcome) {
	if s.ByType == nil {
		s.ByType = make(map[Label]int)
	}
	s.Total++
	s.ByType[o.Type]++

	switch {
	case o.Working:
		s.Working++
		s.latencySum += o.LatencyMs()
		s.latencyCount++
	case o.Type == LabelInvalid:
		s.Invalid++
	case o.Type == LabelError:
		s.Errors++
	default:
		s.Failed++
	}
}

func (s *Stats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Working) / float64(s.Total)
}

func (s *Stats) FailureRate() float64 {
	return 1.0 - s.SuccessRate()
}

// MeanLatency is the average latency in milliseconds over working proxies.
func (s *Stats) MeanLatency() float64 {
	if s.latencyCount == 0 {
		return 0
	}
	return float64(s.latencySum) / float64(s.latencyCount)
}
