// Package emit - Writes packaged results to an output directory and records
// inline results in a manifest.
package emit

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"

	"github.com/nvr-ai/go-imageopt/pipeline"
)

// DefaultHashLength is the number of hex digits [hash] expands to.
const DefaultHashLength = 20

var hashToken = regexp.MustCompile(`\[(?:content)?hash(?::(\d+))?\]`)

// Entry is one manifest record.
type Entry struct {
	Source string `json:"source"`
	Kind   string `json:"kind"`
	// File is the written path relative to the emitter root.
	File string `json:"file,omitempty"`
	// Inline holds the text of inline results.
	Inline  string `json:"inline,omitempty"`
	Size    int    `json:"size"`
	Gzip    string `json:"gzip,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}

// Emitter writes file results under Root. It is safe for concurrent use.
type Emitter struct {
	Root string

	mu      sync.Mutex
	entries map[string]Entry
}

// New creates an emitter rooted at dir.
func New(dir string) *Emitter {
	return &Emitter{Root: dir, entries: make(map[string]Entry)}
}

// Emit writes a file result, plus a gzip sidecar when the plan asks for one.
// Inline results, and file results whose plan disables emitFile, are only
// recorded.
func (e *Emitter) Emit(source string, res *pipeline.Result) (Entry, error) {
	entry := Entry{Source: source, Kind: res.Kind.String(), Skipped: res.Skipped}

	if res.Kind != pipeline.KindFile {
		entry.Inline = res.Text
		entry.Size = len(res.Text)
		e.record(entry)
		return entry, nil
	}

	if !res.Plan.EmitFile {
		entry.Skipped = true
		entry.Size = len(res.Data)
		e.record(entry)
		return entry, nil
	}

	name := ExpandName(res.Plan.Name, res.Filename, res.Data)
	rel, err := e.resolve(res.Plan.OutputPath, name)
	if err != nil {
		return entry, err
	}
	target := filepath.Join(e.Root, rel)
	if err := writeFile(target, res.Data); err != nil {
		return entry, err
	}
	entry.File = filepath.ToSlash(rel)
	entry.Size = len(res.Data)

	if res.Plan.Gzip {
		if err := writeGzip(target+".gz", res.Data); err != nil {
			return entry, err
		}
		entry.Gzip = entry.File + ".gz"
	}

	e.record(entry)
	return entry, nil
}

// resolve joins outputPath and name into a path relative to Root, rejecting
// absolute paths and any that climb out of Root.
func (e *Emitter) resolve(outputPath, name string) (string, error) {
	rel := filepath.Join(outputPath, name)
	if filepath.IsAbs(outputPath) || filepath.IsAbs(name) || filepath.IsAbs(rel) {
		return "", errors.Errorf("output path %q is absolute", rel)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("output path %q escapes %s", rel, e.Root)
	}
	return rel, nil
}

func (e *Emitter) record(entry Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries[entry.Source] = entry
}

// Entries returns the recorded entries sorted by source.
func (e *Emitter) Entries() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Entry, 0, len(e.entries))
	for _, entry := range e.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// WriteManifest writes the recorded entries as JSON to name under Root.
func (e *Emitter) WriteManifest(name string) error {
	data, err := json.MarshalIndent(e.Entries(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode manifest")
	}
	return writeFile(filepath.Join(e.Root, name), append(data, '\n'))
}

// ExpandName fills a naming template. [name] is the basename without its
// extension, [ext] the extension without the dot, and [hash], [contenthash]
// or [hash:N] the BLAKE3 digest of data in hex.
func ExpandName(template, filename string, data []byte) string {
	ext := filepath.Ext(filename)
	out := strings.ReplaceAll(template, "[name]", strings.TrimSuffix(filename, ext))
	out = strings.ReplaceAll(out, "[ext]", strings.TrimPrefix(ext, "."))

	if !hashToken.MatchString(out) {
		return out
	}
	sum := blake3.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	return hashToken.ReplaceAllStringFunc(out, func(tok string) string {
		n := DefaultHashLength
		if m := hashToken.FindStringSubmatch(tok); m[1] != "" {
			if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
				n = min(v, len(digest))
			}
		}
		return digest[:n]
	})
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

func writeGzip(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	zw, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		return err
	}
	if _, err := zw.Write(data); err != nil {
		return errors.Wrapf(err, "gzip %s", path)
	}
	if err := zw.Close(); err != nil {
		return errors.Wrapf(err, "gzip %s", path)
	}
	return f.Close()
}
