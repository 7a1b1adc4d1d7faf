package hmac

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Signer prepares outgoing requests so that they can be authenticated by a service
// that knows the same API key and secret
type Signer interface {
	Sign(req *http.Request) (*http.Request, error)
}

func NewSigner(apiKey, secret string) Signer {
	return &signer{
		apiKey: apiKey,
		secret: secret,
		now:    time.Now,
	}
}

type signer struct {
	apiKey string
	secret string
	now    func() time.Time
}

func (s *signer) Sign(req *http.Request) (*http.Request, error) {
	if req.URL == nil {
		return nil, fmt.Errorf("request has no URL")
	}

	requestId := req.Header.Get(HeaderRequestId)
	if requestId == "" {
		requestId = uuid.NewString()
		req.Header.Set(HeaderRequestId, requestId)
	}

	// The API key travels in the query string, which is itself part of the signed
	// path, so it has to be in place before we compute anything
	query := req.URL.Query()
	if query.Get(ParamApiKey) == "" {
		query.Set(ParamApiKey, s.apiKey)
		req.URL.RawQuery = query.Encode()
	}

	timestamp := req.Header.Get(HeaderTimestamp)
	if timestamp == "" {
		timestamp = s.now().UTC().Format(TimestampFormat)
		req.Header.Set(HeaderTimestamp, timestamp)
	}
	req.Header.Set(HeaderVersion, Version1.String())

	path := RequestPath(req.URL.EscapedPath(), req.URL.RawQuery)
	stringToSign, err := StringToSign(Version1, req.Method, path, timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to build string to sign: %w", err)
	}
	req.Header.Set(HeaderSignature, ComputeSignature([]byte(s.secret), stringToSign))
	return req, nil
}

var _ Signer = (*signer)(nil)
