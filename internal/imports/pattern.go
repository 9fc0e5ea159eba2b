package imports

import (
	"context"
	"regexp"
	"strings"
)

// PatternScanner matches import statements with a regular expression. It
// understands `import 'spec'` and `import <clause> from 'spec'` when the
// statement sits on a single line, and only reports specifiers starting
// with one of the prefixes.
type PatternScanner struct {
	rx *regexp.Regexp
}

func NewPatternScanner(prefixes []string) *PatternScanner {
	quoted := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		quoted = append(quoted, regexp.QuoteMeta(p))
	}
	expr := `import\s+(?:.*?\s+from\s+)?['"]((?:` + strings.Join(quoted, "|") + `)[^'"]+)['"]`
	return &PatternScanner{rx: regexp.MustCompile(expr)}
}

func (s *PatternScanner) Specifiers(_ context.Context, src []byte) []string {
	matches := s.rx.FindAllSubmatch(src, -1)
	ret := make([]string, 0, len(matches))
	for _, m := range matches {
		ret = append(ret, string(m[1]))
	}
	return ret
}
