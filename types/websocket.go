package types

const (
	TypeWebsocketAsk  = "ask"
	TypeWebsocketPing = "ping"
	TypeWebsocketPong = "pong"
)

type WebsocketRequest struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type WebSocketResponse struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type WebSocketAskPayload struct {
	Question    string   `json:"question"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

type WebSocketAskResponse struct {
	Answer  string         `json:"answer"`
	Sources []EvidenceSpan `json:"sources"`
}
