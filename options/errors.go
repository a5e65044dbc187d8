package options

import "fmt"

// LayerName identifies which option layer an error came from.
type LayerName string

const (
	FileLayer   LayerName = "file query"
	GlobalLayer LayerName = "global config"
)

// ValidationError reports an option that failed schema validation. It is
// raised before any field is resolved.
type ValidationError struct {
	Layer  LayerName
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s option %q: %s", e.Layer, e.Key, e.Reason)
}
