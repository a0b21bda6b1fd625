package lfs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/quran-assets/assetsync/internal/lfs"
)

func TestParse(t *testing.T) {
	rules := lfs.Parse("# media\n*.mp3 filter=lfs diff=lfs merge=lfs -text\n\n*.txt text eol=lf\n")

	exp := []lfs.Rule{
		{Pattern: "*.mp3", Attributes: []string{"filter=lfs", "diff=lfs", "merge=lfs", "-text"}},
		{Pattern: "*.txt", Attributes: []string{"text", "eol=lf"}},
	}
	if diff := cmp.Diff(exp, rules); diff != "" {
		t.Fatalf("unexpected rules (-want +got):\n%s", diff)
	}
	if !rules[0].LFS() || rules[1].LFS() {
		t.Fatal("unexpected LFS classification")
	}
}

func TestEnsure(t *testing.T) {
	cases := []struct {
		note     string
		existing *string
		patterns []string
		exp      string
		added    []string
	}{
		{
			note:     "missing file",
			patterns: []string{"*.mp3"},
			exp:      "*.mp3 filter=lfs diff=lfs merge=lfs -text\n",
			added:    []string{"*.mp3"},
		},
		{
			note:     "already tracked",
			existing: ptr("*.svg filter=lfs diff=lfs merge=lfs -text\n"),
			patterns: []string{"*.svg"},
			exp:      "*.svg filter=lfs diff=lfs merge=lfs -text\n",
		},
		{
			note:     "no trailing newline",
			existing: ptr("*.txt text"),
			patterns: []string{"*.svg"},
			exp:      "*.txt text\n*.svg filter=lfs diff=lfs merge=lfs -text\n",
			added:    []string{"*.svg"},
		},
		{
			note:     "pattern present without lfs",
			existing: ptr("*.mp3 binary\n"),
			patterns: []string{"*.mp3", "*.mp3"},
			exp:      "*.mp3 binary\n*.mp3 filter=lfs diff=lfs merge=lfs -text\n",
			added:    []string{"*.mp3"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			root := t.TempDir()
			filename := filepath.Join(root, lfs.AttributesFile)
			if tc.existing != nil {
				if err := os.WriteFile(filename, []byte(*tc.existing), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			u, err := lfs.Ensure(root, tc.patterns)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.added, u.Added); diff != "" {
				t.Fatalf("unexpected added patterns (-want +got):\n%s", diff)
			}
			if u.Changed() != (len(tc.added) > 0) {
				t.Fatalf("unexpected changed flag %v", u.Changed())
			}
			if u.Changed() && !strings.Contains(u.Diff, "+"+tc.added[0]) {
				t.Fatalf("expected diff to show the added rule, got:\n%s", u.Diff)
			}

			bs, err := os.ReadFile(filename)
			if err != nil && tc.existing != nil {
				t.Fatal(err)
			}
			if exp, act := tc.exp, string(bs); exp != act {
				t.Fatalf("expected:\n%q\ngot:\n%q", exp, act)
			}

			// A second pass must leave the file untouched.
			again, err := lfs.Ensure(root, tc.patterns)
			if err != nil {
				t.Fatal(err)
			}
			if again.Changed() {
				t.Fatalf("expected idempotent ensure, added %v", again.Added)
			}
		})
	}
}

func TestMatcher(t *testing.T) {
	m, err := lfs.NewMatcher([]string{"*.mp3", "quran-pages/*.svg"})
	if err != nil {
		t.Fatal(err)
	}

	for path, exp := range map[string]bool{
		"audio/hazza/001.mp3":      true,
		"001.mp3":                  true,
		"quran-pages/page-001.svg": true,
		"images/001.svg":           false,
		"quran-pages/x/001.svg":    false,
		"README.md":                false,
	} {
		if act := m.Tracks(path); act != exp {
			t.Errorf("Tracks(%q): expected %v, got %v", path, exp, act)
		}
	}

	if _, err := lfs.NewMatcher([]string{"*.[mp3"}); err == nil {
		t.Fatal("expected invalid pattern error")
	}
}

func ptr(s string) *string {
	return &s
}
