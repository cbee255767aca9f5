// Package iohelper provides bounded reads of HTTP response bodies and
// atomic file output.
package iohelper

import (
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/policyaudit/policyaudit/pkg/defaults"
)

// Body size limits.
const (
	// SmallMaxBodySize is for error pages quoted in messages (4KB)
	SmallMaxBodySize int64 = defaults.BufferSmall

	// MaxBodySize bounds a single API document (64MB)
	MaxBodySize int64 = defaults.BufferMax
)

// ErrBodyTooLarge is returned by ReadBodyStrict when the body exceeds the
// limit. A truncated JSON document would otherwise fail with a misleading
// syntax error.
var ErrBodyTooLarge = errors.New("iohelper: response body exceeds size limit")

// ReadBody reads from r up to maxSize bytes and silently drops the rest.
// If r is nil, returns empty slice and no error.
func ReadBody(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadBodyStrict reads all of r and fails with ErrBodyTooLarge if it holds
// more than maxSize bytes.
func ReadBodyStrict(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return data, err
	}
	if int64(len(data)) > maxSize {
		return data[:maxSize], ErrBodyTooLarge
	}
	return data, nil
}

// ReadBodySmall reads from an io.Reader with the small limit.
func ReadBodySmall(r io.Reader) ([]byte, error) {
	return ReadBody(r, SmallMaxBodySize)
}

// Excerpt returns at most n characters of body with surrounding
// whitespace trimmed, for quoting in error messages.
func Excerpt(body []byte, n int) string {
	s := strings.TrimSpace(string(body))
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// DrainAndClose reads any remaining data from r and closes it if it's a
// ReadCloser so the connection can be reused. Always returns nil to allow
// use in defer.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64*1024))
	if rc, ok := r.(io.ReadCloser); ok {
		_ = rc.Close()
	}
	return nil
}
