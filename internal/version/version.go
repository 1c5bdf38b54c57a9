// ABOUTME: Version and product identification for fretwork
// ABOUTME: Reported in the status API, mDNS TXT records and the TUI header
package version

const (
	Product      = "fretwork"
	Manufacturer = "Fretwork"
)

// Version is stamped by release builds with
// -ldflags "-X github.com/fretwork/fretwork-go/internal/version.Version=..."
var Version = "0.3.0"

// String returns "fretwork 0.3.0"
func String() string {
	return Product + " " + Version
}
