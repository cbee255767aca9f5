//go:build windows

package writers

import (
	"io"
	"os"

	"golang.org/x/sys/windows"
	"golang.org/x/term"
)

// boxDrawingSupported reports whether w can render box-drawing characters.
// Piped console output is re-encoded with the OEM codepage, so only a
// terminal whose output codepage is UTF-8 qualifies.
func boxDrawingSupported(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return true
	}
	if !term.IsTerminal(int(f.Fd())) {
		return false
	}
	const cpUTF8 = 65001
	cp, err := windows.GetConsoleOutputCP()
	return err == nil && cp == cpUTF8
}
