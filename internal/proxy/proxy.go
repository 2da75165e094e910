package proxy

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

type Type int

const (
	HTTP Type = iota
	SOCKS4
	SOCKS5
	Unknown
)

// InvalidPort marks a bare host:port whose port segment was missing or did not
// start with a number.
const InvalidPort = -1

const defaultPort = 80

var (
	ErrMalformed           = errors.New("malformed proxy string")
	ErrUnsupportedProtocol = errors.New("unsupported proxy protocol")
)

// ParseError reports a proxy string that cannot be turned into a Proxy.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (t Type) String() string {
	switch t {
	case HTTP:
		return "HTTP"
	case SOCKS4:
		return "SOCKS4"
	case SOCKS5:
		return "SOCKS5"
	default:
		return "UNKNOWN"
	}
}

// Label is the resolved type reported for a protocol that answered.
func (t Type) Label() Label {
	switch t {
	case HTTP:
		return LabelHTTP
	case SOCKS4:
		return LabelSOCKS4
	case SOCKS5:
		return LabelSOCKS5
	default:
		return LabelUnknown
	}
}

func (t Type) scheme() string {
	switch t {
	case HTTP:
		return "http"
	case SOCKS4:
		return "socks4"
	case SOCKS5:
		return "socks5"
	default:
		return ""
	}
}

// Proxy is a parsed proxy address. It is not modified after Parse returns.
type Proxy struct {
	Raw      string
	Host     string
	Port     int
	Type     Type
	Username string
	Password string
}

// Parse converts a raw proxy string into a Proxy.
//
// Strings without "://" are read as host:port with an Unknown type. The port is
// the leading digits of the segment after the first colon. A port segment that
// is missing or does not start with a digit does not fail the parse; the port is
// set to InvalidPort and Probeable reports false. Strings with a scheme must be well-formed URLs using
// http, https, socks4 or socks5.
func Parse(raw string) (*Proxy, error) {
	if !strings.Contains(raw, "://") {
		parts := strings.Split(raw, ":")
		port := InvalidPort
		if len(parts) > 1 {
			if n, ok := leadingPort(parts[1]); ok {
				port = n
			}
		}
		return &Proxy{
			Raw:  raw,
			Host: strings.TrimSpace(parts[0]),
			Port: port,
			Type: Unknown,
		}, nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return nil, &ParseError{Raw: raw, Err: ErrMalformed}
	}

	port := defaultPort
	if s := u.Port(); s != "" {
		port, err = strconv.Atoi(s)
		if err != nil {
			return nil, &ParseError{Raw: raw, Err: ErrMalformed}
		}
	}

	var t Type
	switch u.Scheme {
	case "http", "https":
		t = HTTP
	case "socks4":
		t = SOCKS4
	case "socks5":
		t = SOCKS5
	default:
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("%w: %s", ErrUnsupportedProtocol, u.Scheme)}
	}

	p := &Proxy{
		Raw:  raw,
		Host: u.Hostname(),
		Port: port,
		Type: t,
	}
	if u.User != nil {
		p.Username = u.User.Username()
		p.Password, _ = u.User.Password()
	}
	return p, nil
}

// leadingPort reads the digits at the start of s, ignoring leading blanks and
// whatever follows them, so "3128/" and "3128 #dc" both give 3128.
func leadingPort(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Probeable reports whether the address can be dialed at all.
func (p *Proxy) Probeable() bool {
	return p.Host != "" && p.Port > 0 && p.Port <= 65535
}

// As returns a copy of p addressed with protocol t.
func (p *Proxy) As(t Type) *Proxy {
	c := *p
	c.Type = t
	return &c
}

func (p *Proxy) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

func (p *Proxy) String() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

func (p *Proxy) URL() *url.URL {
	u := &url.URL{
		Scheme: p.Type.scheme(),
		Host:   p.Addr(),
	}

	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}

	return u
}
