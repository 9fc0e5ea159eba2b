// Package imports finds the auxiliary files an entry file depends on.
//
// A Scanner extracts raw import specifiers from source text, a Resolver
// maps the specifiers starting with a recognized prefix to absolute paths in
// the auxiliary directory, and a Finder glues both to the entry file on disk.
// The scan is best-effort: text does not need to parse and anything which
// does not look like an import is skipped.
package imports

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// extRx matches what is treated as a file extension of a specifier, dots in
// names such as "Mr. Smith" are not.
var extRx = regexp.MustCompile(`^\.[A-Za-z0-9]+$`)

// Scanner extracts import specifiers from source text. The returned slice
// may contain duplicates and specifiers which do not reference the
// auxiliary directory.
type Scanner interface {
	Specifiers(ctx context.Context, src []byte) []string
}

// Set is a set of absolute file paths.
type Set map[string]struct{}

func (s Set) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	ret := make([]string, 0, len(s))
	for p := range s {
		ret = append(ret, p)
	}
	slices.Sort(ret)
	return ret
}

// Resolver maps import specifiers to files in Dir.
type Resolver struct {
	Dir       string   // absolute auxiliary directory
	Prefixes  []string // e.g. "./challenges/", "@challenges/"
	Extension string   // canonical extension with the dot, e.g. ".ts"
}

// Resolve returns the absolute path for spec and true when spec starts with
// one of the prefixes. An extension of the last segment of the specifier
// (a dot followed by letters and digits) is replaced by the canonical one.
func (r Resolver) Resolve(spec string) (string, bool) {
	for _, prefix := range r.Prefixes {
		rest, ok := strings.CutPrefix(spec, prefix)
		if !ok || rest == "" {
			continue
		}
		if ext := path.Ext(rest); extRx.MatchString(ext) {
			rest = strings.TrimSuffix(rest, ext)
		}
		if rest == "" || strings.HasSuffix(rest, "/") {
			return "", false
		}
		return filepath.Join(r.Dir, filepath.FromSlash(rest+r.Extension)), true
	}
	return "", false
}

// ImportSet resolves every specifier src imports through s.
func (r Resolver) ImportSet(ctx context.Context, s Scanner, src []byte) Set {
	set := make(Set)
	for _, spec := range s.Specifiers(ctx, src) {
		if p, ok := r.Resolve(spec); ok {
			set[p] = struct{}{}
		}
	}
	return set
}

// Finder computes the import set of Entry.
type Finder struct {
	Entry    string
	Scanner  Scanner
	Resolver Resolver
}

// Find reads the entry file and returns its import set. The set is always
// non-nil: when the entry file can't be read, the condition is logged and
// an empty set is returned together with the error.
func (f Finder) Find(ctx context.Context) (Set, error) {
	src, err := os.ReadFile(f.Entry)
	if err != nil {
		slog.WarnContext(ctx, "can't read entry file: assuming no imports", "path", f.Entry, "error", err)
		return make(Set), fmt.Errorf("reading entry file: %w", err)
	}
	return f.Resolver.ImportSet(ctx, f.Scanner, src), nil
}
