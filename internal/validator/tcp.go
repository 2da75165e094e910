package validator

import (
	"context"
	"net"
)

type dialFunc func(network, addr string) (net.Conn, error)

// dialWithContext runs a context-unaware dial and abandons it when ctx ends.
// A connection that arrives after ctx ended is closed.
func dialWithContext(ctx context.Context, dial dialFunc, network, address string) (net.Conn, error) {
	type dialResult struct {
		conn net.Conn
		err  error
	}

	ch := make(chan dialResult, 1)
	go func() {
		conn, err := dial(network, address)
		ch <- dialResult{conn: conn, err: err}
	}()

	select {
	case r := <-ch:
		if r.err == nil && ctx.Err() != nil {
			r.conn.Close()
			return nil, ctx.Err()
		}
		return r.conn, r.err
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}
