package validator

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/aredoff/proxycheck/internal/proxy"
)

const maxBodyDrain = 64 << 10

func (v *Validator) testHTTPProxy(ctx context.Context, p *proxy.Proxy) error {
	transport := &http.Transport{
		Proxy: http.ProxyURL(p.URL()),
		DialContext: (&net.Dialer{
			Timeout: v.timeout,
		}).DialContext,
		TLSHandshakeTimeout: v.timeout,
		DisableKeepAlives:   true,
	}
	defer transport.CloseIdleConnections()

	client := &http.Client{
		Transport: transport,
		Timeout:   v.timeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+v.oracle+"/", nil)
	if err != nil {
		return err
	}

	for k, v := range v.testHeaders {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyDrain))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}
	return nil
}
