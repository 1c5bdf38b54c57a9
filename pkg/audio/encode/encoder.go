// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for all audio encoders
package encode

// Encoder encodes float samples in [-1,1] to a byte format
type Encoder interface {
	// Encode converts samples to encoded audio data
	Encode(samples []float64) ([]byte, error)

	// Close releases encoder resources
	Close() error
}
