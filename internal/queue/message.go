package queue

import "encoding/json"

// Audit actions emitted by the ingestion pipeline.
const (
	ActionIngested = "document.ingested"
	ActionDeleted  = "document.deleted"
)

// Message is the audit event sent to downstream queue consumers.
type Message struct {
	DocumentID string `json:"documentId"`
	OwnerID    string `json:"ownerId"`
	Action     string `json:"action"`
	RequestID  string `json:"requestId"`
	OccurredAt string `json:"occurredAt"`
	Version    int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
