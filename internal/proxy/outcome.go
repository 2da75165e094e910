package proxy

import "time"

// Label is the resolved type of a checked proxy as reported to consumers.
type Label string

const (
	LabelHTTP    Label = "HTTP"
	LabelSOCKS4  Label = "SOCKS4"
	LabelSOCKS5  Label = "SOCKS5"
	LabelUnknown Label = "Unknown"
	LabelInvalid Label = "Invalid"
	LabelError   Label = "Error"
)

// Outcome is the result of checking one raw proxy string.
// Latency is in milliseconds and is nil only for Invalid outcomes.
type Outcome struct {
	Proxy   string `json:"proxy"`
	Type    Label  `json:"type"`
	Working bool   `json:"working"`
	Latency *int64 `json:"latency,omitempty"`
}

func latencyMs(d time.Duration) *int64 {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return &ms
}

// Working builds the outcome for a proxy that answered over protocol t.
func Working(raw string, t Type, elapsed time.Duration) Outcome {
	return Outcome{Proxy: raw, Type: t.Label(), Working: true, Latency: latencyMs(elapsed)}
}

// Exhausted builds the outcome for a proxy that failed every candidate protocol.
func Exhausted(raw string, elapsed time.Duration) Outcome {
	return Outcome{Proxy: raw, Type: LabelUnknown, Latency: latencyMs(elapsed)}
}

func Invalid(raw string) Outcome {
	return Outcome{Proxy: raw, Type: LabelInvalid}
}

func Errored(raw string, elapsed time.Duration) Outcome {
	return Outcome{Proxy: raw, Type: LabelError, Latency: latencyMs(elapsed)}
}

// LatencyMs returns the latency or -1 when absent.
func (o Outcome) LatencyMs() int64 {
	if o.Latency == nil {
		return -1
	}
	return *o.Latency
}
