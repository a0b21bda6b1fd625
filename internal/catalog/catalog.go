// Package catalog enumerates the assets a sync job is expected to hold.
//
// A catalog is derived purely from configuration: the same job always yields
// the same descriptors in the same order, which is what makes re-runs
// idempotent.
package catalog

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/quran-assets/assetsync/internal/config"
)

// Asset describes one remote file and where it lives in the repository.
// LocalPath is slash separated and relative to the repository root.
type Asset struct {
	SourceURL string
	LocalPath string
	Category  config.Category
	Source    string // empty for single-source collections
	Index     int    // 1-based
}

func (a Asset) String() string {
	return a.LocalPath
}

// Catalog is the ordered list of assets for one job run.
type Catalog struct {
	Job    string
	Assets []Asset

	dirs []string
}

// Index renders i as the three digit, zero padded form used in both URLs
// and file names.
func Index(i int) string {
	return fmt.Sprintf("%03d", i)
}

// Build enumerates the catalog of job: collections in configuration order,
// sources in configuration order within a collection, then ascending index.
func Build(job *config.Job) (*Catalog, error) {
	c := &Catalog{Job: job.Name}

	for ci, coll := range job.Collections {
		if coll.Count < 1 || coll.Count > config.MaxCount {
			return nil, fmt.Errorf("collection %d: count %d out of range [1, %d]", ci, coll.Count, config.MaxCount)
		}

		if len(coll.Sources) == 0 {
			dir := path.Join(coll.Dir, coll.Subdir)
			c.addDir(dir)
			for i := 1; i <= coll.Count; i++ {
				c.Assets = append(c.Assets, Asset{
					SourceURL: expand(coll.URL, i),
					LocalPath: path.Join(dir, fileName(coll, i)),
					Category:  coll.Category,
					Index:     i,
				})
			}
			continue
		}

		for _, src := range coll.Sources {
			dir := path.Join(coll.Dir, src.Name)
			c.addDir(dir)
			for i := 1; i <= coll.Count; i++ {
				c.Assets = append(c.Assets, Asset{
					SourceURL: expand(src.URL, i),
					LocalPath: path.Join(dir, fileName(coll, i)),
					Category:  coll.Category,
					Source:    src.Name,
					Index:     i,
				})
			}
		}
	}

	return c, nil
}

// Len returns the number of assets in the catalog.
func (c *Catalog) Len() int {
	return len(c.Assets)
}

// Dirs returns the distinct output directories in first-seen order.
func (c *Catalog) Dirs() []string {
	return slices.Clone(c.dirs)
}

func (c *Catalog) addDir(dir string) {
	if !slices.Contains(c.dirs, dir) {
		c.dirs = append(c.dirs, dir)
	}
}

// Summary describes the catalog scope for commit messages, for example
// "audio: 6 sources x 114 (hazza, husr, ...)" or "image: 604".
func (c *Catalog) Summary() string {
	type group struct {
		category config.Category
		sources  []string
		count    int
	}

	var groups []*group
	for _, a := range c.Assets {
		var g *group
		for _, x := range groups {
			if x.category == a.Category {
				g = x
				break
			}
		}
		if g == nil {
			g = &group{category: a.Category}
			groups = append(groups, g)
		}
		g.count++
		if a.Source != "" && !slices.Contains(g.sources, a.Source) {
			g.sources = append(g.sources, a.Source)
		}
	}

	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		if len(g.sources) == 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", g.category, g.count))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d sources x %d (%s)", g.category, len(g.sources), g.count/len(g.sources), strings.Join(g.sources, ", ")))
	}

	return strings.Join(parts, "; ")
}

func expand(tmpl string, i int) string {
	return strings.ReplaceAll(tmpl, config.Placeholder, Index(i))
}

func fileName(coll config.Collection, i int) string {
	return coll.Prefix + Index(i) + "." + coll.Extension
}
