// Package input decides which company identifiers a run processes. Sources
// are tried in order and the first one that applies wins.
package input

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Conventional files consulted when no identifier or file is given.
const (
	DefaultCompaniesFile = "companies"
	DefaultCompanyFile   = "company"
)

// ErrNoInput is returned when no source yields any identifier.
var ErrNoInput = errors.New("no company identifiers supplied")

// Source produces identifiers. ok reports whether the source applies at all;
// a source that applies but fails stops the search with err.
type Source interface {
	Name() string
	Load() (ids []string, ok bool, err error)
}

// Literal is a single identifier given on the command line.
type Literal string

// Name implements Source.
func (l Literal) Name() string {
	return "command line"
}

// Load implements Source.
func (l Literal) Load() ([]string, bool, error) {
	id := strings.TrimSpace(string(l))
	if id == "" {
		return nil, false, nil
	}
	return []string{id}, true, nil
}

// File is an explicitly named file with one identifier per line. A missing
// file is an input error, not a reason to fall through.
type File string

// Name implements Source.
func (f File) Name() string {
	return string(f)
}

// Load implements Source.
func (f File) Load() ([]string, bool, error) {
	if strings.TrimSpace(string(f)) == "" {
		return nil, false, nil
	}
	ids, err := readLines(string(f), false)
	if err != nil {
		return nil, true, err
	}
	return ids, true, nil
}

// FallbackFile is a conventionally named file that applies only when it exists.
type FallbackFile struct {
	Path string
	// FirstLineOnly keeps just the first non-blank line.
	FirstLineOnly bool
}

// Name implements Source.
func (f FallbackFile) Name() string {
	return f.Path
}

// Load implements Source.
func (f FallbackFile) Load() ([]string, bool, error) {
	ids, err := readLines(f.Path, f.FirstLineOnly)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, true, err
	}
	return ids, true, nil
}

// Defaults returns the standard source chain: a literal identifier, then an
// explicit file, then the conventional multi-line and single-line files.
func Defaults(company, companiesFile string) []Source {
	return []Source{
		Literal(company),
		File(companiesFile),
		FallbackFile{Path: DefaultCompaniesFile},
		FallbackFile{Path: DefaultCompanyFile, FirstLineOnly: true},
	}
}

// Resolve returns the identifiers of the first applicable source and that
// source's name. It returns ErrNoInput when nothing applies or the chosen
// source is empty.
func Resolve(sources ...Source) ([]string, string, error) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		ids, ok, err := src.Load()
		if !ok {
			continue
		}
		if err != nil {
			return nil, src.Name(), fmt.Errorf("load companies from %s: %w", src.Name(), err)
		}
		if len(ids) == 0 {
			return nil, src.Name(), fmt.Errorf("%w: %s is empty", ErrNoInput, src.Name())
		}
		return ids, src.Name(), nil
	}
	return nil, "", ErrNoInput
}

func readLines(path string, firstOnly bool) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ids = append(ids, line)
		if firstOnly {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ids, nil
}
