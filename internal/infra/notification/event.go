package notification

// キューに流すメール通知の形
type EmailMessage struct {
	MessageID string `json:"message_id"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	QueuedAt  string `json:"queued_at"`
}
