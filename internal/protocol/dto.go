package protocol

import (
	"encoding/json"
	"time"
)

// JSON payload shapes for the list-carrying kinds (USERLIST, CONV_LIST,
// HISTORY, FRIEND_PENDING_LIST). Kept small and flat so clients in any
// language can decode them.

// ConvSummary describes one conversation in a CONV_LIST payload.
type ConvSummary struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// HistoryMessage describes one message in a HISTORY payload.
type HistoryMessage struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// PendingRequest describes one entry in a FRIEND_PENDING_LIST payload.
type PendingRequest struct {
	From        string    `json:"from"`
	RequestedAt time.Time `json:"requested_at"`
}

func EncodeUserList(users []string) []byte {
	b, _ := json.Marshal(users)
	return b
}

func DecodeUserList(b []byte) ([]string, error) {
	var users []string
	err := json.Unmarshal(b, &users)
	return users, err
}

func EncodeConvList(convs []ConvSummary) []byte {
	b, _ := json.Marshal(convs)
	return b
}

func DecodeConvList(b []byte) ([]ConvSummary, error) {
	var convs []ConvSummary
	err := json.Unmarshal(b, &convs)
	return convs, err
}

func EncodeHistory(msgs []HistoryMessage) []byte {
	b, _ := json.Marshal(msgs)
	return b
}

func DecodeHistory(b []byte) ([]HistoryMessage, error) {
	var msgs []HistoryMessage
	err := json.Unmarshal(b, &msgs)
	return msgs, err
}

func EncodePendingList(reqs []PendingRequest) []byte {
	b, _ := json.Marshal(reqs)
	return b
}

func DecodePendingList(b []byte) ([]PendingRequest, error) {
	var reqs []PendingRequest
	err := json.Unmarshal(b, &reqs)
	return reqs, err
}
