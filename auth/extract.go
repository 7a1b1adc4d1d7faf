package auth

import "github.com/golden-vcr/hmac-auth/hmac"

// ExtractCredentials copies the values a client supplied to authenticate req into a
// Credentials record. The only thing it checks is that a non-empty 'apiKey' query
// parameter is present (returning ErrMissingApiKey otherwise): everything else is
// copied verbatim, with absent headers yielding empty strings, and left for the
// Authenticator to judge.
func ExtractCredentials(req Request) (hmac.Credentials, error) {
	apiKeys := req.QueryValues(hmac.ParamApiKey)
	if len(apiKeys) == 0 || apiKeys[0] == "" {
		return hmac.Credentials{}, ErrMissingApiKey
	}

	uri := req.RequestURI()
	return hmac.Credentials{
		ApiKey:    apiKeys[0],
		Signature: req.Header(hmac.HeaderSignature),
		Timestamp: req.Header(hmac.HeaderTimestamp),
		Version:   hmac.ParseVersion(req.Header(hmac.HeaderVersion)),
		Method:    req.Method(),
		Path:      hmac.RequestPath(uri.EscapedPath(), uri.RawQuery),
	}, nil
}
