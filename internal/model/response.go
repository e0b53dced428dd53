package model

// ListResponse is the envelope for HTTP list endpoints, wrapping entities
// in a "resource" array.
type ListResponse struct {
	Resource interface{}  `json:"resource"`
	Meta     ResponseMeta `json:"meta"`
}

// ResponseMeta describes a list response. Schema is set when the list was
// filtered to one schema.
type ResponseMeta struct {
	Count  int    `json:"count"`
	Schema string `json:"schema,omitempty"`
}

// ErrorResponse is the envelope for error responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the status code and message of an error response.
type ErrorDetail struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}
