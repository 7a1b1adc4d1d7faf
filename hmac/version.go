package hmac

// Version identifies one of the protocol versions that a client may declare via the
// X-Auth-Version header
type Version int

const (
	// VersionUnknown is the result of parsing any header value that doesn't name a
	// supported protocol version; requests carrying it are never authenticated
	VersionUnknown Version = iota

	// Version1 signs the concatenation of method, path and timestamp, separated by
	// newlines
	Version1
)

// ParseVersion resolves the value of an X-Auth-Version header to a Version. It never
// fails: unrecognized values (including the empty string) yield VersionUnknown.
func ParseVersion(s string) Version {
	switch s {
	case "1":
		return Version1
	}
	return VersionUnknown
}

// String returns the value that identifies v in an X-Auth-Version header
func (v Version) String() string {
	switch v {
	case Version1:
		return "1"
	}
	return "unknown"
}
