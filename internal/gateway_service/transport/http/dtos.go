package http

// CreateChannelRequest provisions a new WhatsApp channel.
type CreateChannelRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=128"`
	InstanceName string `json:"instance_name" validate:"required,min=1,max=64,alphanum"`
}

// SendMessageRequest sends a text message on a conversation.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4096"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StateResponse reports a channel's live provider connection state.
type StateResponse struct {
	Status string `json:"status"`
}
