package source

import "io"

// SwapStdin replaces the stdin replay reader until the returned func runs.
func SwapStdin(r io.ReadCloser) (restore func()) {
	prev := stdin
	stdin = r
	return func() { stdin = prev }
}
