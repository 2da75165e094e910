package validator

import (
	"context"
	"slices"
	"time"

	"github.com/aredoff/proxycheck/internal/proxy"
	"github.com/rs/zerolog"
)

// FallbackOrder is the protocol order tried for addresses given without a scheme.
var FallbackOrder = []proxy.Type{proxy.SOCKS5, proxy.SOCKS4, proxy.HTTP}

// Candidates returns the protocols to attempt for an address of type t.
func Candidates(t proxy.Type) []proxy.Type {
	if t == proxy.Unknown {
		return slices.Clone(FallbackOrder)
	}
	return []proxy.Type{t}
}

type State int

const (
	Pending State = iota
	Trying
	Succeeded
	Exhausted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Trying:
		return "trying"
	case Succeeded:
		return "succeeded"
	case Exhausted:
		return "exhausted"
	default:
		return "invalid"
	}
}

// Detection walks the candidate list of one proxy:
// Pending -> Trying(protocol) -> Succeeded | Exhausted.
type Detection struct {
	candidates []proxy.Type
	next       int
	state      State
	current    proxy.Type
}

func NewDetection(t proxy.Type) *Detection {
	return &Detection{candidates: Candidates(t), state: Pending, current: proxy.Unknown}
}

func (d *Detection) State() State {
	return d.state
}

// Current is the protocol being tried, or the one that succeeded.
func (d *Detection) Current() proxy.Type {
	return d.current
}

// Next moves to the next candidate. It returns false once the detection is
// finished.
func (d *Detection) Next() (proxy.Type, bool) {
	if d.state == Succeeded || d.state == Exhausted {
		return d.current, false
	}
	if d.next >= len(d.candidates) {
		d.state = Exhausted
		d.current = proxy.Unknown
		return d.current, false
	}
	d.current = d.candidates[d.next]
	d.next++
	d.state = Trying
	return d.current, true
}

// Record applies the result of the current attempt.
func (d *Detection) Record(ok bool) {
	if d.state != Trying {
		return
	}
	if ok {
		d.state = Succeeded
		return
	}
	if d.next >= len(d.candidates) {
		d.state = Exhausted
		d.current = proxy.Unknown
	}
}

// Abort ends the detection without a working protocol.
func (d *Detection) Abort() {
	if d.state != Succeeded {
		d.state = Exhausted
		d.current = proxy.Unknown
	}
}

// Detector runs a Detection for each proxy against a Prober.
type Detector struct {
	prober Prober
	logger zerolog.Logger
}

func NewDetector(prober Prober, logger zerolog.Logger) *Detector {
	return &Detector{
		prober: prober,
		logger: logger.With().Str("component", "detector").Logger(),
	}
}

// Probe tries the candidate protocols of p in order and stops at the first that
// works. Latency covers the whole sequence. Individual attempt failures are not
// reported; only exhaustion yields a negative outcome.
func (d *Detector) Probe(ctx context.Context, p *proxy.Proxy) proxy.Outcome {
	det := NewDetection(p.Type)
	start := time.Now()

	for {
		t, ok := det.Next()
		if !ok {
			break
		}
		if ctx.Err() != nil {
			det.Abort()
			break
		}
		res := d.prober.Attempt(ctx, p, t)
		det.Record(res.OK)
		if !res.OK {
			d.logger.Debug().Str("proxy", p.Raw).Stringer("protocol", t).Err(res.Err).Msg("protocol failed")
		}
	}

	elapsed := time.Since(start)
	if det.State() == Succeeded {
		d.logger.Debug().Str("proxy", p.Raw).Stringer("protocol", det.Current()).Dur("elapsed", elapsed).Msg("proxy working")
		return proxy.Working(p.Raw, det.Current(), elapsed)
	}
	return proxy.Exhausted(p.Raw, elapsed)
}
