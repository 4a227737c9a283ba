package types

// ErrorEnvelope is the body the storefront API returns on non-2xx
// responses. Details is a string or a field map.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// MessageEnvelope is the body of informational 2xx responses.
type MessageEnvelope struct {
	Message string `json:"message"`
}
