package types

// ErrorResponse is the body of every failed relay response.
type ErrorResponse struct {
	Error string `json:"error"`
}
