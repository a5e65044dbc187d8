//go:build !vips

package images

// DefaultBackend returns the backend used when none is configured.
func DefaultBackend() Backend {
	return NativeBackend{}
}
