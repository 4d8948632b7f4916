package frame

import "fmt"

// InvalidDataError reports a malformed frame. Data holds the raw bytes
// that failed to decode, if available.
type InvalidDataError struct {
	Msg  string
	Data []byte
}

func (e *InvalidDataError) Error() string {
	if len(e.Data) == 0 {
		return fmt.Sprintf("chanmux: invalid data: %s", e.Msg)
	}
	return fmt.Sprintf("chanmux: invalid data: %s (% x)", e.Msg, truncate(e.Data, 16))
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
