package dto

// ChatResponse carries the assistant reply.
type ChatResponse struct {
	Text string `json:"text"`
}
