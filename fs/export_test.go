package fs

import "io"

// SetWrite replaces how Save writes artifact bytes.
func SetWrite(s *Store, write func(w io.Writer, data []byte) error) {
	s.write = write
}
