package pipeline

import "github.com/nvr-ai/go-imageopt/images"

// Frame is the value passed between stages: either encoded bytes that no
// stage has needed to decode, or an open image handle.
type Frame struct {
	data   []byte
	handle images.Handle
}

// Bytes returns the encoded frame, encoding the handle if one is open.
func (f *Frame) Bytes() ([]byte, error) {
	if f.handle == nil {
		return f.data, nil
	}
	return f.handle.Bytes()
}

// Decoded reports whether the frame holds an open handle.
func (f *Frame) Decoded() bool {
	return f.handle != nil
}

// Close releases the handle, if any.
func (f *Frame) Close() {
	if f != nil && f.handle != nil {
		f.handle.Close()
		f.handle = nil
	}
}
