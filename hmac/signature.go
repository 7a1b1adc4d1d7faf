package hmac

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrUnsupportedVersion is returned when asked to build a string-to-sign for a
// protocol version that this package doesn't implement
var ErrUnsupportedVersion = errors.New("unsupported protocol version")

// TimestampFormat is the layout used for X-Auth-Timestamp values in Version1
const TimestampFormat = time.RFC3339

// StringToSign assembles the canonical string that both client and server feed into
// the HMAC for a request. path must be in the shape produced by RequestPath.
func StringToSign(v Version, method, path, timestamp string) (string, error) {
	switch v {
	case Version1:
		return method + "\n" + path + "\n" + timestamp, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedVersion, v)
}

// ComputeSignature returns the hex-encoded HMAC-SHA256 of stringToSign, keyed with
// secret
func ComputeSignature(secret []byte, stringToSign string) string {
	hash := hmac.New(sha256.New, secret)
	hash.Write([]byte(stringToSign))
	return hex.EncodeToString(hash.Sum(nil))
}

// RequestPath joins an escaped URL path and raw query string into the shape that is
// signed: the '?' separator is always present, even when the query is empty
func RequestPath(escapedPath, rawQuery string) string {
	return escapedPath + "?" + rawQuery
}

// ParseTimestamp parses an X-Auth-Timestamp value as sent by a Version1 client
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampFormat, s)
}
