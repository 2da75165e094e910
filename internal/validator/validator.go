package validator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aredoff/proxycheck/internal/proxy"
	"github.com/rs/zerolog"
)

const (
	DefaultTimeout = 5 * time.Second
	// DefaultOracle answers plain HTTP GETs and is the destination of every attempt.
	DefaultOracle = "api.ipify.org:80"
)

var (
	ErrBadStatus           = errors.New("unexpected response status")
	ErrUnsupportedProtocol = errors.New("unsupported probe protocol")
)

// Result is the outcome of a single protocol attempt.
type Result struct {
	OK      bool
	Err     error
	Elapsed time.Duration
}

// Prober attempts one protocol against a proxy.
type Prober interface {
	Attempt(ctx context.Context, p *proxy.Proxy, t proxy.Type) Result
}

type Validator struct {
	timeout     time.Duration
	oracle      string
	testHeaders map[string]string
	logger      zerolog.Logger
}

func NewValidator() *Validator {
	return NewValidatorWithOptions(DefaultTimeout, DefaultOracle, zerolog.Nop())
}

// NewValidatorWithOptions creates validator with custom options
func NewValidatorWithOptions(timeout time.Duration, oracle string, logger zerolog.Logger) *Validator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if oracle == "" {
		oracle = DefaultOracle
	}
	return &Validator{
		timeout: timeout,
		oracle:  oracle,
		testHeaders: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		},
		logger: logger.With().Str("component", "validator").Logger(),
	}
}

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

func (v *Validator) Timeout() time.Duration {
	return v.timeout
}

func (v *Validator) Oracle() string {
	return v.oracle
}

// Attempt tries protocol t against p with the validator timeout. A failure is a
// value, never a panic; the connection used is closed before Attempt returns.
func (v *Validator) Attempt(ctx context.Context, p *proxy.Proxy, t proxy.Type) Result {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	start := time.Now()
	var err error
	switch t {
	case proxy.HTTP:
		err = v.testHTTPProxy(ctx, p.As(t))
	case proxy.SOCKS4, proxy.SOCKS5:
		err = v.testSOCKSProxy(ctx, p.As(t))
	default:
		err = fmt.Errorf("%w: %v", ErrUnsupportedProtocol, t)
	}
	res := Result{OK: err == nil, Err: err, Elapsed: time.Since(start)}

	v.logger.Debug().
		Str("proxy", p.Raw).
		Stringer("protocol", t).
		Bool("ok", res.OK).
		Err(err).
		Dur("elapsed", res.Elapsed).
		Msg("attempt finished")
	return res
}
