package pipeline

import "fmt"

// Stage names a step of the pipeline in errors, logs and timings.
type Stage string

const (
	StageMerge    Stage = "merge"
	StageFormat   Stage = "format"
	StageResize   Stage = "resize"
	StageCompress Stage = "compress"
	StagePackage  Stage = "package"
)

// CodecError is a failure inside a compressor. There is no fallback codec.
type CodecError struct {
	Codec string
	Err   error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec %s: %v", e.Codec, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// ProbeError is a failure to read the untouched source's dimensions while
// building a placeholder.
type ProbeError struct {
	Err error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe source metadata: %v", e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// StageError is the single failure a Run reports. It names the file and the
// stage that aborted it.
type StageError struct {
	Filename string
	Stage    Stage
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s stage: %v", e.Filename, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
