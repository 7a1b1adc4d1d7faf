package hmac

// Credentials records the values a client supplied in order to authenticate a single
// request. Values are copied verbatim from the request and are not validated until
// they reach an Authenticator.
type Credentials struct {
	// ApiKey identifies the caller, and thereby the secret the request was signed with
	ApiKey string
	// Signature is the hex-encoded HMAC computed by the client
	Signature string
	// Timestamp is the client's signing time, formatted per Version
	Timestamp string
	// Version is the protocol version declared by the client
	Version Version
	// Method is the HTTP method of the request, exactly as received
	Method string
	// Path is the escaped request path, followed by '?' and the raw query string
	Path string
}
