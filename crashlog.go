package obfmap

import "strings"

// CrashlogOptions control ProcessCrashlog.
type CrashlogOptions struct {
	// FilterPrefix strips one leading token from every line, as in
	// SearchOptions.
	FilterPrefix bool

	// Rewrite, when set, transforms each line before it is searched.
	Rewrite func(line string) string
}

// ProcessCrashlog resolves every non-empty line of text as a renamed-name
// query with substitution enabled. Lines may end in CRLF, LF or CR. The
// result has exactly one entry per non-empty line, in input order; lines that
// fail to parse or match carry an empty match sequence.
func (x *Index) ProcessCrashlog(text string, opts CrashlogOptions) []*SearchResults {
	lines := splitLines(text)
	results := make([]*SearchResults, 0, len(lines))
	for _, line := range lines {
		query := line
		if opts.Rewrite != nil {
			query = opts.Rewrite(line)
		}
		res := x.Search(query, SearchOptions{Substitute: true, FilterPrefix: opts.FilterPrefix})
		res.Query = line
		results = append(results, res)
	}
	return results
}

// ProcessCrashlogText is ProcessCrashlog rendered one result per line.
func (x *Index) ProcessCrashlogText(text string, opts CrashlogOptions) string {
	var sb strings.Builder
	for _, res := range x.ProcessCrashlog(text, opts) {
		sb.WriteString(res.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func splitLines(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
}
