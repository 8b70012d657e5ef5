package response

// Envelope is the JSON shape returned for failed requests.
type Envelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Error(code, message string, data any) Envelope {
	return Envelope{
		Code:    code,
		Message: message,
		Data:    data,
	}
}
