package proxycheck

import (
	"context"
)

// CheckAll checks every proxy and returns the outcomes in completion order.
// When ctx is cancelled the outcomes finished so far are returned.
func (c *Checker) CheckAll(ctx context.Context, raws []string) []Outcome {
	outcomes, _ := c.NewBatch(raws).Run(ctx)
	return outcomes
}

// CheckStream sends outcomes to out as they complete and returns the final
// completed count. out is not closed.
func (c *Checker) CheckStream(ctx context.Context, raws []string, out chan<- Outcome) int {
	b := c.Start(ctx, raws)
	for o := range b.Outcomes() {
		select {
		case out <- o:
		case <-ctx.Done():
		}
	}
	b.Wait()

	completed, _ := b.Progress()
	return completed
}
