package ws

import "encoding/json"

type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type JoinPayload struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
}

type SubmitGuessPayload struct {
	Guess int `json:"guess"`
}

type SetPlayersPayload struct {
	Count int `json:"count"`
}

type clientMsg struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
