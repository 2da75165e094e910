package api

const (
	TypeStart    = "start"
	TypeCancel   = "cancel"
	TypeStarted  = "started"
	TypeProgress = "progress"
	TypeResult   = "result"
	TypeDone     = "done"
	TypeError    = "error"
)

// TestRequest is the body of POST /test.
type TestRequest struct {
	Proxy string `json:"proxy"`
}

// ClientMessage is sent by WebSocket clients.
type ClientMessage struct {
	Type    string `json:"type"`
	Proxies string `json:"proxies,omitempty"`
}

// Message is sent to WebSocket clients. ID names the batch it belongs to.
type Message struct {
	Type string      `json:"type"`
	ID   string      `json:"id,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

type BatchStatus struct {
	Completed int  `json:"completed"`
	Total     int  `json:"total"`
	Cancelled bool `json:"cancelled,omitempty"`
}

type ErrorBody struct {
	Error string `json:"error"`
}
