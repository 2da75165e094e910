package validator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/aredoff/proxycheck/internal/proxy"
	xproxy "golang.org/x/net/proxy"
	"h12.io/socks"
)

// testSOCKSProxy opens a SOCKS tunnel to the oracle through p and expects a
// 200 status line in reply to a minimal GET.
func (v *Validator) testSOCKSProxy(ctx context.Context, p *proxy.Proxy) error {
	conn, err := v.dialSOCKS(ctx, p)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	err = v.exchange(conn)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (v *Validator) dialSOCKS(ctx context.Context, p *proxy.Proxy) (net.Conn, error) {
	switch p.Type {
	case proxy.SOCKS5:
		var auth *xproxy.Auth
		if p.Username != "" {
			auth = &xproxy.Auth{User: p.Username, Password: p.Password}
		}
		dialer, err := xproxy.SOCKS5("tcp", p.Addr(), auth, &net.Dialer{Timeout: v.timeout})
		if err != nil {
			return nil, err
		}
		cd, ok := dialer.(xproxy.ContextDialer)
		if !ok {
			return nil, errors.New("socks5 dialer does not support context")
		}
		return cd.DialContext(ctx, "tcp", v.oracle)
	case proxy.SOCKS4:
		dialSocksProxy := socks.Dial(fmt.Sprintf("socks4://%s?timeout=%s", p.Addr(), v.timeout))
		if dialSocksProxy == nil {
			return nil, errors.New("failed to create SOCKS proxy dialer")
		}
		return dialWithContext(ctx, dialSocksProxy, "tcp", v.oracle)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedProtocol, p.Type)
	}
}

func (v *Validator) exchange(conn net.Conn) error {
	req := fmt.Sprintf("GET / HTTP/1.1\r\nHost: %s\r\nUser-Agent: %s\r\nConnection: close\r\n\r\n", v.hostHeader(), userAgent)
	if _, err := io.WriteString(conn, req); err != nil {
		return fmt.Errorf("write request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if line == "" && err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if !isStatusOK(line) {
		return fmt.Errorf("%w: %q", ErrBadStatus, strings.TrimSpace(line))
	}
	return nil
}

func (v *Validator) hostHeader() string {
	host, port, err := net.SplitHostPort(v.oracle)
	if err != nil || port != "80" {
		return v.oracle
	}
	return host
}

// isStatusOK accepts "HTTP/1.x 200 ..." status lines.
func isStatusOK(line string) bool {
	fields := strings.Fields(line)
	return len(fields) >= 2 && strings.HasPrefix(fields[0], "HTTP/1.") && fields[1] == "200"
}
