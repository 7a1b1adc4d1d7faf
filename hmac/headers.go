package hmac

const (
	// ParamApiKey is the name of the query parameter that identifies the caller: its
	// value is used to look up the shared secret that the request was signed with
	ParamApiKey = "apiKey"

	// HeaderSignature is the name of the header that carries the HMAC signature
	// computed over the request's string-to-sign
	HeaderSignature = "X-Auth-Signature"

	// HeaderTimestamp is the name of the header that carries an RFC3339 timestamp
	// indicating when the request was signed
	HeaderTimestamp = "X-Auth-Timestamp"

	// HeaderVersion is the name of the header that identifies the protocol version,
	// which in turn determines how the string-to-sign is assembled
	HeaderVersion = "X-Auth-Version"

	// HeaderRequestId is the name of the header that carries a unique ID generated for
	// a signed request; it is not covered by the signature
	HeaderRequestId = "x-request-id"
)
