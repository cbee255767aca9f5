//go:build !windows

package writers

import "io"

// boxDrawingSupported reports whether w can render box-drawing characters.
// Unix terminals are assumed to be UTF-8.
func boxDrawingSupported(_ io.Writer) bool {
	return true
}
