package record

import (
	"embed"
	"io/fs"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed layouts/*.yaml
var layoutFS embed.FS

// Field is one fixed-offset slice of an extract line. Offsets are
// character positions, [Start, End), taken verbatim from the Division's
// published record layout.
type Field struct {
	Name  string `yaml:"name"`
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
}

// Layout describes one record kind's fixed-width schema. Layouts are
// embedded as versioned YAML so an offset change between extract cycles is
// a reviewable data edit, not a code change.
type Layout struct {
	Kind       Kind    `yaml:"kind"`
	Version    string  `yaml:"version"`
	MinLineLen int     `yaml:"min_line_len"`
	Fields     []Field `yaml:"fields"`
}

// LoadLayouts parses and validates every embedded layout, keyed by kind.
func LoadLayouts() (map[Kind]*Layout, error) {
	entries, err := fs.ReadDir(layoutFS, "layouts")
	if err != nil {
		return nil, eris.Wrap(err, "record: read layout dir")
	}

	layouts := make(map[Kind]*Layout, len(entries))
	for _, entry := range entries {
		data, err := layoutFS.ReadFile("layouts/" + entry.Name())
		if err != nil {
			return nil, eris.Wrapf(err, "record: read layout %s", entry.Name())
		}

		var l Layout
		if err := yaml.Unmarshal(data, &l); err != nil {
			return nil, eris.Wrapf(err, "record: parse layout %s", entry.Name())
		}
		if err := l.Validate(); err != nil {
			return nil, eris.Wrapf(err, "record: invalid layout %s", entry.Name())
		}
		if _, dup := layouts[l.Kind]; dup {
			return nil, eris.Errorf("record: duplicate layout for kind %s", l.Kind)
		}
		layouts[l.Kind] = &l
	}

	for _, k := range Kinds() {
		if _, ok := layouts[k]; !ok {
			return nil, eris.Errorf("record: no layout for kind %s", k)
		}
	}
	return layouts, nil
}

// LayoutFor returns the embedded layout for one kind.
func LayoutFor(kind Kind) (*Layout, error) {
	layouts, err := LoadLayouts()
	if err != nil {
		return nil, err
	}
	l, ok := layouts[kind]
	if !ok {
		return nil, eris.Errorf("record: no layout for kind %s", kind)
	}
	return l, nil
}

// Validate checks the layout's internal consistency: every field is a
// well-formed slice inside the declared minimum width, and the fields the
// parser depends on are present.
func (l *Layout) Validate() error {
	if l.Kind == "" {
		return eris.New("layout: missing kind")
	}
	if l.Version == "" {
		return eris.New("layout: missing version")
	}
	if l.MinLineLen <= 0 {
		return eris.New("layout: min_line_len must be positive")
	}

	seen := make(map[string]bool, len(l.Fields))
	required := map[string]bool{"doc_number": false, "name": false}
	for _, f := range l.Fields {
		if f.Name == "" {
			return eris.New("layout: field with empty name")
		}
		if seen[f.Name] {
			return eris.Errorf("layout: duplicate field %s", f.Name)
		}
		seen[f.Name] = true
		if f.Start < 0 || f.End <= f.Start {
			return eris.Errorf("layout: field %s has bad offsets [%d, %d)", f.Name, f.Start, f.End)
		}
		if f.End > l.MinLineLen {
			return eris.Errorf("layout: field %s ends at %d past min_line_len %d", f.Name, f.End, l.MinLineLen)
		}
		if _, ok := required[f.Name]; ok {
			required[f.Name] = true
		}
	}
	for name, ok := range required {
		if !ok {
			return eris.Errorf("layout: missing required field %s", name)
		}
	}
	return nil
}

func (l *Layout) field(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
