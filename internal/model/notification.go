package model

// Notification - сообщение клиенту или оператору.
type Notification struct {
	Recipient Actor             `json:"recipient"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Payload   map[string]string `json:"payload,omitempty"`
}
