// Package importer parses bank CSV exports into rows the ledger can record.
package importer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/apt777/finance-app/internal/model"
)

// DefaultFormat is used when no format is named.
const DefaultFormat = "generic"

// ProcessedDir is the subdirectory imported files are moved to.
const ProcessedDir = "processed"

// Parser converts a bank CSV file into ImportRows. Amounts are signed:
// money in is positive.
type Parser interface {
	Parse(r io.Reader) ([]model.ImportRow, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// DefaultRegistry returns a registry with all built-in parsers. Rows from
// formats that do not name a currency take the account's.
func DefaultRegistry() *Registry {
	return RegistryFor("")
}

// RegistryFor is DefaultRegistry with formats that do not name a currency
// declaring their rows to be in cur. Importing such a file into an account
// of another currency then fails instead of mixing currencies.
func RegistryFor(cur string) *Registry {
	r := NewRegistry()
	r.Register(&GenericParser{})
	r.Register(&ChaseParser{Currency: cur})
	return r
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats lists the registered format names in order.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Lookup is Get with DefaultFormat for an empty name and a
// model.ValidationError for an unknown one.
func (r *Registry) Lookup(format string) (Parser, error) {
	if format == "" {
		format = DefaultFormat
	}
	p := r.Get(format)
	if p == nil {
		return nil, model.ValidationError{
			Field:   "format",
			Message: fmt.Sprintf("unknown format %q (available: %s)", format, strings.Join(r.Formats(), ", ")),
		}
	}
	return p, nil
}

// Parse reads rd with the named parser. An unknown format and unreadable
// input are both reported as model.ValidationError so callers can hand them
// straight back to a user.
func (r *Registry) Parse(format string, rd io.Reader) ([]model.ImportRow, error) {
	p, err := r.Lookup(format)
	if err != nil {
		return nil, err
	}
	rows, err := p.Parse(rd)
	if err != nil {
		return nil, model.ValidationError{Field: "file", Message: err.Error()}
	}
	return rows, nil
}

// FileInfo describes a CSV file waiting in an import directory.
type FileInfo struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Scan returns the CSV files directly inside dir, oldest first so statements
// are applied in the order they were dropped in. Hidden files such as editor
// lock files are ignored. A missing dir has no files.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		files = append(files, FileInfo{
			Name:    name,
			Path:    filepath.Join(dir, name),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.Before(files[j].ModTime)
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// MarkProcessed moves dir/fileName into dir/processed and returns its new
// path. A file already processed under the same name is kept; the newcomer
// gets a numbered name such as bank-2.csv.
func MarkProcessed(dir, fileName string) (string, error) {
	src := filepath.Join(dir, fileName)
	dstDir := filepath.Join(dir, ProcessedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", fmt.Errorf("creating processed dir: %w", err)
	}

	ext := filepath.Ext(fileName)
	stem := strings.TrimSuffix(fileName, ext)
	dst := filepath.Join(dstDir, fileName)
	for n := 2; ; n++ {
		_, err := os.Stat(dst)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", dst, err)
		}
		dst = filepath.Join(dstDir, fmt.Sprintf("%s-%d%s", stem, n, ext))
	}

	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return dst, nil
}
