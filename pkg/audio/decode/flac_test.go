// ABOUTME: Tests for FLAC decoder
// ABOUTME: Tests rejection of data that is not a FLAC stream
package decode

import (
	"bytes"
	"testing"
)

func TestDecodeFLACInvalid(t *testing.T) {
	if _, err := DecodeFLAC(bytes.NewReader([]byte("RIFF....WAVEfmt "))); err == nil {
		t.Error("expected error for invalid data")
	}
}
