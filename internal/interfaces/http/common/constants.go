package common

const (
	// DefaultMaxRequestBody limits relay request bodies. Evidence arrives
	// base64-encoded inside the JSON, so this is well above the file size.
	DefaultMaxRequestBody = 25 << 20

	// MsgBodyTooLarge is returned when a body exceeds the configured cap.
	MsgBodyTooLarge = "request body too large"
	// MsgRateLimited is returned with HTTP 429.
	MsgRateLimited = "rate limit exceeded"
)
