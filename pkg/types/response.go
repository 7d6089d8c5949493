package types

// SuccessEnvelope wraps every 2xx payload; data may be null (for
// example, GET /markets/active with no running session).
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. Code matches a pkg/errors code;
// Details only appears when the code's metadata allows it.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
