package models

// Envelope wraps every HTTP response body
type Envelope struct {
	Success bool        `json:"success"`
	Result  interface{} `json:"result"`
	Message *string     `json:"message"`
	Code    string      `json:"code,omitempty"`
}

func Success(result interface{}) Envelope {
	return Envelope{Success: true, Result: result}
}

func Failure(code, message string) Envelope {
	return Envelope{Success: false, Message: &message, Code: code}
}
