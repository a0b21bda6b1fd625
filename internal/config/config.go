package config

import (
	"bytes"
	"cmp"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Placeholder is substituted with the zero padded asset index in URL templates.
const Placeholder = "{num}"

// MaxCount keeps every index renderable as exactly three digits.
const MaxCount = 999

const (
	DefaultTimeout   = 60 * time.Second
	DefaultRemote    = "origin"
	DefaultServerURL = "https://github.com"
)

//go:embed defaults.yaml
var defaults []byte

// Root is the top-level configuration structure: a set of named sync jobs
// and the settings shared by their publish step.
type Root struct {
	Jobs    map[string]*Job `json:"jobs"`
	Publish Publish         `json:"publish,omitzero"`

	_ struct{} `additionalProperties:"false"`
}

// Job describes one sync job: the collections making up its catalog and
// the policies applied when storing and publishing them.
type Job struct {
	Name        string       `json:"-"`
	Collections []Collection `json:"collections" minItems:"1" required:"true"`
	LFS         LFS          `json:"lfs,omitzero"`
	Stage       StageScope   `json:"stage,omitempty" enum:"narrow,broad"`
	Overwrite   Overwrite    `json:"overwrite,omitempty" enum:"detect,force"`
	Timeout     Duration     `json:"timeout,omitzero"`
	Message     string       `json:"message,omitempty"`

	_ struct{} `additionalProperties:"false"`
}

// Collection is a run of Count assets sharing a category, an output
// directory and a file naming scheme. Exactly one of URL (single-source)
// or Sources (multi-source) is set.
type Collection struct {
	Category  Category `json:"category" required:"true" enum:"audio,image"`
	Dir       string   `json:"dir" required:"true" minLength:"1"`
	Subdir    string   `json:"subdir,omitempty"`
	Prefix    string   `json:"prefix,omitempty"`
	Extension string   `json:"extension" required:"true" minLength:"1"`
	Count     int      `json:"count" required:"true" minimum:"1" maximum:"999"`
	URL       string   `json:"url,omitempty"`
	Sources   []Source `json:"sources,omitempty"`

	_ struct{} `additionalProperties:"false"`
}

type Source struct {
	Name string `json:"name" required:"true" minLength:"1"`
	URL  string `json:"url" required:"true" minLength:"1"`

	_ struct{} `additionalProperties:"false"`
}

// LFS lists the patterns that must be routed through Git LFS.
type LFS struct {
	Patterns []string `json:"patterns,omitempty"`

	_ struct{} `additionalProperties:"false"`
}

type Publish struct {
	Remote    string `json:"remote,omitempty"`
	ServerURL string `json:"server_url,omitempty"`

	_ struct{} `additionalProperties:"false"`
}

type Category string

const (
	CategoryAudio Category = "audio"
	CategoryImage Category = "image"
)

// StageScope selects what is staged before committing.
type StageScope string

const (
	StageNarrow StageScope = "narrow" // output directories and .gitattributes only
	StageBroad  StageScope = "broad"  // all working tree changes
)

// Overwrite selects how fetched content is stored.
type Overwrite string

const (
	OverwriteDetect Overwrite = "detect"
	OverwriteForce  Overwrite = "force"
)

// Instead of marshaling and unmarshaling as int64 it uses strings, like "5m" or "0.5s".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	val, err := time.ParseDuration(str)
	*d = Duration(val)
	return err
}

func (d *Duration) UnmarshalYAML(bs []byte) error {
	var s string
	if err := yaml.Unmarshal(bs, &s); err != nil {
		return err
	}
	val, err := time.ParseDuration(s)
	*d = Duration(val)
	return err
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// ValidationError reports a semantic problem the JSON schema cannot express.
type ValidationError struct {
	Job   string
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("job %q: %s", e.Job, e.Msg)
	}
	return fmt.Sprintf("job %q: %s: %s", e.Job, e.Field, e.Msg)
}

// Default returns the built-in job configuration.
func Default() *Root {
	root, err := Parse(defaults)
	if err != nil {
		panic(fmt.Sprintf("built-in configuration is invalid: %v", err))
	}
	return root
}

// Load reads the configuration file at filename, or returns the built-in
// configuration when filename is empty.
func Load(filename string) (*Root, error) {
	if filename == "" {
		return Default(), nil
	}
	return ParseFile(filename)
}

func ParseFile(filename string) (*Root, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	return Parse(bs)
}

func Parse(bs []byte) (*Root, error) {
	if err := Validate(bs); err != nil {
		return nil, err
	}

	var root Root
	if err := yaml.Unmarshal(bs, &root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := root.unmarshal(); err != nil {
		return nil, err
	}

	return &root, nil
}

// Validate checks the raw document against the configuration schema.
func Validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}

	// The schema validator expects JSON-decoded values, so YAML scalars are
	// normalized through a JSON round trip.
	bs, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(bs))
	if err != nil {
		return err
	}

	return rootSchema.Validate(inst)
}

func (r *Root) unmarshal() error {
	r.Publish.Remote = cmp.Or(r.Publish.Remote, DefaultRemote)
	r.Publish.ServerURL = strings.TrimSuffix(cmp.Or(r.Publish.ServerURL, DefaultServerURL), "/")

	for name, job := range r.Jobs {
		if job == nil {
			return &ValidationError{Job: name, Msg: "empty job definition"}
		}
		if err := job.Prepare(name); err != nil {
			return err
		}
	}

	return nil
}

// SortedJobs iterates the jobs in name order.
func (r *Root) SortedJobs() iter.Seq2[int, *Job] {
	return func(yield func(int, *Job) bool) {
		for i, name := range slices.Sorted(maps.Keys(r.Jobs)) {
			if !yield(i, r.Jobs[name]) {
				return
			}
		}
	}
}

// Job looks up a job by name.
func (r *Root) Job(name string) (*Job, error) {
	job, ok := r.Jobs[name]
	if !ok {
		return nil, fmt.Errorf("unknown job %q (available: %s)", name, strings.Join(slices.Sorted(maps.Keys(r.Jobs)), ", "))
	}
	return job, nil
}

// Prepare names the job, applies defaults to unset fields and validates the
// result. Jobs decoded from a configuration file are prepared by Parse; jobs
// assembled in code must be prepared before use.
func (j *Job) Prepare(name string) error {
	j.Name = name
	j.Stage = cmp.Or(j.Stage, StageNarrow)
	j.Overwrite = cmp.Or(j.Overwrite, OverwriteDetect)
	if j.Timeout == 0 {
		j.Timeout = Duration(DefaultTimeout)
	}
	return j.validate()
}

func (j *Job) validate() error {
	if len(j.Collections) == 0 {
		return &ValidationError{Job: j.Name, Field: "collections", Msg: "at least one collection is required"}
	}
	if j.Timeout < 0 {
		return &ValidationError{Job: j.Name, Field: "timeout", Msg: "must not be negative"}
	}
	if j.Stage != StageNarrow && j.Stage != StageBroad {
		return &ValidationError{Job: j.Name, Field: "stage", Msg: fmt.Sprintf("unknown stage scope %q", j.Stage)}
	}
	if j.Overwrite != OverwriteDetect && j.Overwrite != OverwriteForce {
		return &ValidationError{Job: j.Name, Field: "overwrite", Msg: fmt.Sprintf("unknown overwrite policy %q", j.Overwrite)}
	}

	for i := range j.Collections {
		if err := j.Collections[i].validate(); err != nil {
			return &ValidationError{Job: j.Name, Field: fmt.Sprintf("collections[%d]", i), Msg: err.Error()}
		}
	}

	for _, pattern := range j.LFS.Patterns {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return &ValidationError{Job: j.Name, Field: "lfs.patterns", Msg: fmt.Sprintf("invalid pattern %q: %v", pattern, err)}
		}
	}

	return nil
}

// Force reports whether the job always overwrites fetched assets.
func (j *Job) Force() bool {
	return j.Overwrite == OverwriteForce
}

func (c *Collection) validate() error {
	if c.Category != CategoryAudio && c.Category != CategoryImage {
		return fmt.Errorf("unknown category %q", c.Category)
	}
	if c.Count < 1 || c.Count > MaxCount {
		return fmt.Errorf("count %d out of range [1, %d]", c.Count, MaxCount)
	}
	if c.Dir == "" || !filepath.IsLocal(c.Dir) {
		return fmt.Errorf("dir %q must be a relative path inside the repository", c.Dir)
	}
	if c.Subdir != "" && !isPathElement(c.Subdir) {
		return fmt.Errorf("subdir %q must be a single path element", c.Subdir)
	}
	if strings.ContainsAny(c.Prefix, `/\`) {
		return fmt.Errorf("prefix %q must not contain path separators", c.Prefix)
	}
	if !isPathElement(c.Extension) || strings.HasPrefix(c.Extension, ".") {
		return fmt.Errorf("extension %q must be a bare extension such as \"mp3\"", c.Extension)
	}

	switch {
	case c.URL != "" && len(c.Sources) > 0:
		return errors.New("url and sources are mutually exclusive")
	case c.URL != "":
		return validateTemplate(c.URL)
	case len(c.Sources) == 0:
		return errors.New("either url or sources must be set")
	}

	if c.Subdir != "" {
		return errors.New("subdir is only supported for single-source collections")
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for _, src := range c.Sources {
		if !isPathElement(src.Name) {
			return fmt.Errorf("source name %q must be a single path element", src.Name)
		}
		if _, ok := seen[src.Name]; ok {
			return fmt.Errorf("duplicate source %q", src.Name)
		}
		seen[src.Name] = struct{}{}
		if err := validateTemplate(src.URL); err != nil {
			return fmt.Errorf("source %q: %w", src.Name, err)
		}
	}

	return nil
}

func validateTemplate(tmpl string) error {
	if !strings.Contains(tmpl, Placeholder) {
		return fmt.Errorf("url template %q lacks the %s placeholder", tmpl, Placeholder)
	}
	u, err := url.Parse(strings.ReplaceAll(tmpl, Placeholder, "001"))
	if err != nil {
		return fmt.Errorf("url template %q: %w", tmpl, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url template %q must be http or https", tmpl)
	}
	return nil
}

func isPathElement(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
