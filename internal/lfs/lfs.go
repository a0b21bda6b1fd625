// Package lfs maintains the Git LFS tracking rules in .gitattributes.
package lfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/akedrou/textdiff"
	"github.com/gobwas/glob"

	assetfs "github.com/quran-assets/assetsync/internal/fs"
)

// AttributesFile is the name of the attributes file at the repository root.
const AttributesFile = ".gitattributes"

// Attributes written for every tracked pattern, as produced by `git lfs track`.
const trackAttributes = "filter=lfs diff=lfs merge=lfs -text"

// Rule is one line of a .gitattributes file.
type Rule struct {
	Pattern    string
	Attributes []string
}

// LFS reports whether the rule routes matching files through the LFS filter.
func (r Rule) LFS() bool {
	return slices.Contains(r.Attributes, "filter=lfs")
}

// TrackLine renders the attributes line tracking pattern.
func TrackLine(pattern string) string {
	return pattern + " " + trackAttributes
}

// Parse reads the rules of a .gitattributes document. Blank lines and
// comments are skipped.
func Parse(data string) []Rule {
	var rules []Rule
	for line := range strings.Lines(data) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		rules = append(rules, Rule{Pattern: fields[0], Attributes: fields[1:]})
	}
	return rules
}

// Update is the result of Ensure.
type Update struct {
	Added []string // patterns appended to the file
	Diff  string   // unified diff of the change, empty when nothing was added
}

// Changed reports whether the attributes file was modified.
func (u Update) Changed() bool {
	return len(u.Added) > 0
}

// Ensure makes sure .gitattributes under root contains an LFS tracking line
// for every pattern. Existing lines are never rewritten; missing ones are
// appended in order. A pattern already tracked by an LFS rule is left alone.
func Ensure(root string, patterns []string) (Update, error) {
	filename := filepath.Join(root, AttributesFile)

	var current string
	bs, err := os.ReadFile(filename)
	switch {
	case err == nil:
		current = string(bs)
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Update{}, err
	}

	rules := Parse(current)
	tracked := func(pattern string) bool {
		return slices.ContainsFunc(rules, func(r Rule) bool { return r.Pattern == pattern && r.LFS() })
	}

	var u Update
	next := current
	for _, pattern := range patterns {
		if tracked(pattern) || slices.Contains(u.Added, pattern) {
			continue
		}
		if next != "" && !strings.HasSuffix(next, "\n") {
			next += "\n"
		}
		next += TrackLine(pattern) + "\n"
		u.Added = append(u.Added, pattern)
	}

	if !u.Changed() {
		return u, nil
	}

	if err := assetfs.WriteFileAtomic(filename, []byte(next)); err != nil {
		return Update{}, fmt.Errorf("write %s: %w", AttributesFile, err)
	}
	u.Diff = textdiff.Unified("a/"+AttributesFile, "b/"+AttributesFile, current, next)

	return u, nil
}

// Matcher decides which repository paths fall under a set of LFS patterns.
type Matcher struct {
	patterns []pattern
}

type pattern struct {
	g        glob.Glob
	basename bool
}

// NewMatcher compiles patterns using gitattributes conventions: a pattern
// without a slash matches the file name at any depth, otherwise it is
// matched against the full slash separated path.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		g, err := glob.Compile(strings.TrimPrefix(p, "/"), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, pattern{g: g, basename: !strings.Contains(p, "/")})
	}
	return m, nil
}

// Tracks reports whether the slash separated repository path is covered.
func (m *Matcher) Tracks(p string) bool {
	for _, x := range m.patterns {
		if x.basename && x.g.Match(path.Base(p)) {
			return true
		}
		if !x.basename && x.g.Match(p) {
			return true
		}
	}
	return false
}
