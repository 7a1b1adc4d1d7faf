package hmac

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_ParseVersion(t *testing.T) {
	tests := []struct {
		value string
		want  Version
	}{
		{"1", Version1},
		{"", VersionUnknown},
		{"2", VersionUnknown},
		{"v1", VersionUnknown},
		{" 1", VersionUnknown},
	}
	for _, tt := range tests {
		t.Run("'"+tt.value+"'", func(t *testing.T) {
			assert.Equal(t, tt.want, ParseVersion(tt.value))
		})
	}
}

func Test_StringToSign(t *testing.T) {
	t.Run("version 1 joins method, path and timestamp with newlines", func(t *testing.T) {
		s, err := StringToSign(Version1, "GET", "/pizza?apiKey=fred", "2023-12-06T21:06:04Z")
		assert.NoError(t, err)
		assert.Equal(t, "GET\n/pizza?apiKey=fred\n2023-12-06T21:06:04Z", s)
	})
	t.Run("unknown version is an error", func(t *testing.T) {
		_, err := StringToSign(VersionUnknown, "GET", "/pizza?apiKey=fred", "2023-12-06T21:06:04Z")
		assert.True(t, errors.Is(err, ErrUnsupportedVersion))
	})
}

func Test_ComputeSignature(t *testing.T) {
	got := ComputeSignature([]byte("my-secret"), "GET\n/pizza?\n2023-12-06T21:06:04Z")
	assert.Equal(t, "d7fedd073c5c25220258650879ab8093efb08ab8e0a2b8d84f4bdbcc64f0fa20", got)
}

func Test_RequestPath(t *testing.T) {
	assert.Equal(t, "/pizza?", RequestPath("/pizza", ""))
	assert.Equal(t, "/pizza?apiKey=fred", RequestPath("/pizza", "apiKey=fred"))
	assert.Equal(t, "/a%20b?x=1", RequestPath("/a%20b", "x=1"))
}

func Test_ParseTimestamp(t *testing.T) {
	t.Run("RFC3339 is accepted", func(t *testing.T) {
		ts, err := ParseTimestamp("2023-12-06T21:06:04Z")
		assert.NoError(t, err)
		assert.True(t, ts.Equal(time.Date(2023, 12, 6, 21, 6, 4, 0, time.UTC)))
	})
	t.Run("fractional seconds are accepted", func(t *testing.T) {
		ts, err := ParseTimestamp("2023-12-06T21:06:04.5+00:00")
		assert.NoError(t, err)
		assert.Equal(t, 500*time.Millisecond, time.Duration(ts.Nanosecond()))
	})
	t.Run("other formats are rejected", func(t *testing.T) {
		_, err := ParseTimestamp("Wed, 06 Dec 2023 21:06:04 GMT")
		assert.Error(t, err)
	})
}
