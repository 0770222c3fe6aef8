// Package prompts holds the model prompt templates. Templates live in JSON
// files embedded at compile time, keyed by name, with {{.Name}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

var placeholderRe = regexp.MustCompile(`\{\{\.([A-Za-z][A-Za-z0-9_]*)\}\}`)

// Template is one named prompt
type Template struct {
	Name string
	Text string
	// Placeholders lists the distinct {{.Key}} names in order of first use
	Placeholders []string
}

func newTemplate(name, text string) *Template {
	t := &Template{Name: name, Text: text}
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			t.Placeholders = append(t.Placeholders, m[1])
		}
	}
	return t
}

// Render substitutes every placeholder in a single pass, so placeholder
// syntax inside values is left as is. A placeholder without a value is an
// error; extra keys in data are ignored.
func (t *Template) Render(data map[string]string) (string, error) {
	pairs := make([]string, 0, 2*len(t.Placeholders))
	var missing []string
	for _, key := range t.Placeholders {
		value, ok := data[key]
		if !ok {
			missing = append(missing, key)
			continue
		}
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %s: no value for %s", t.Name, strings.Join(missing, ", "))
	}
	return strings.NewReplacer(pairs...).Replace(t.Text), nil
}

// catalog maps file name to its templates; parsed once on first use
var catalog = sync.OnceValues(func() (map[string]map[string]*Template, error) {
	entries, err := promptFiles.ReadDir(".")
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]*Template, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := promptFiles.ReadFile(e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", e.Name(), err)
		}

		var raw map[string]string
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", e.Name(), err)
		}

		file := make(map[string]*Template, len(raw))
		for key, text := range raw {
			file[key] = newTemplate(key, text)
		}
		out[e.Name()] = file
	}
	return out, nil
})

// Lookup returns the template stored under key in filename (e.g. "outreach.json").
func Lookup(filename, key string) (*Template, error) {
	file, err := fileTemplates(filename)
	if err != nil {
		return nil, err
	}
	t, ok := file[key]
	if !ok {
		return nil, fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return t, nil
}

// MustLookup is Lookup for templates that ship with the binary; a missing
// template panics.
func MustLookup(filename, key string) *Template {
	t, err := Lookup(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return t
}

// Keys returns the template names in filename, sorted.
func Keys(filename string) ([]string, error) {
	file, err := fileTemplates(filename)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(file))
	for key := range file {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func fileTemplates(filename string) (map[string]*Template, error) {
	all, err := catalog()
	if err != nil {
		return nil, err
	}
	file, ok := all[filename]
	if !ok {
		return nil, fmt.Errorf("prompt file %s not found", filename)
	}
	return file, nil
}
