package bindings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	toml "github.com/pelletier/go-toml/v2"
)

type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// Source is the file a Map was read from. Path names the default location
// when no file exists.
type Source struct {
	Path   string
	Format Format
}

type ActionID string

// Binding is a resolved key sequence of one or two steps.
type Binding struct {
	Action ActionID
	Steps  []string
}

type chordKey struct{ prefix, next string }

// Map resolves normalized key strings to actions. A key is either a
// standalone shortcut or a chord prefix, never both.
type Map struct {
	single   map[string]ActionID
	chords   map[chordKey]ActionID
	prefixes map[string]bool
	seqs     map[ActionID][][]string
}

var decoders = map[Format]func([]byte, any) error{
	FormatTOML: toml.Unmarshal,
	FormatJSON: json.Unmarshal,
}

// Load reads bindings.toml, then bindings.json, from dir. Actions missing
// from the file keep their defaults; an action listed in the file loses all
// of its defaults.
func Load(dir string) (*Map, Source, error) {
	sources := []Source{
		{Path: filepath.Join(dir, "bindings.toml"), Format: FormatTOML},
		{Path: filepath.Join(dir, "bindings.json"), Format: FormatJSON},
	}
	var readErrs error
	for _, src := range sources {
		data, err := os.ReadFile(src.Path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			readErrs = errors.Join(readErrs, fmt.Errorf("read bindings %q: %w", src.Path, err))
			continue
		}
		overrides, err := decodeOverrides(data, src.Format)
		if err != nil {
			return nil, Source{}, fmt.Errorf("parse bindings %q: %w", src.Path, err)
		}
		m, err := newMap(overrides)
		if err != nil {
			return nil, Source{}, fmt.Errorf("apply bindings %q: %w", src.Path, err)
		}
		return m, src, nil
	}
	if readErrs != nil {
		return nil, Source{}, readErrs
	}
	m, err := newMap(nil)
	return m, sources[0], err
}

func DefaultMap() *Map {
	m, err := newMap(nil)
	if err != nil {
		panic(err)
	}
	return m
}

func decodeOverrides(data []byte, format Format) (map[ActionID][][]string, error) {
	decode, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	var file struct {
		Bindings map[string][]string `json:"bindings" toml:"bindings"`
	}
	if len(data) > 0 {
		if err := decode(data, &file); err != nil {
			return nil, err
		}
	}
	out := make(map[ActionID][][]string, len(file.Bindings))
	for name, specs := range file.Bindings {
		id := ActionID(name)
		if _, ok := definitionLookup[id]; !ok {
			return nil, fmt.Errorf("unknown action %q", name)
		}
		seqs := make([][]string, 0, len(specs))
		for _, spec := range specs {
			var seq []string
			for _, field := range strings.Fields(spec) {
				step := NormalizeKeyString(field)
				if step == "" {
					return nil, fmt.Errorf("action %q: invalid key %q", name, field)
				}
				seq = append(seq, step)
			}
			if len(seq) == 0 {
				return nil, fmt.Errorf("action %q: empty binding", name)
			}
			seqs = append(seqs, seq)
		}
		out[id] = seqs
	}
	return out, nil
}

func newMap(overrides map[ActionID][][]string) (*Map, error) {
	m := &Map{
		single:   make(map[string]ActionID),
		chords:   make(map[chordKey]ActionID),
		prefixes: make(map[string]bool),
		seqs:     make(map[ActionID][][]string, len(definitions)),
	}
	for _, def := range definitions {
		seqs, ok := overrides[def.id]
		if !ok {
			seqs = def.defaults
		}
		for _, seq := range seqs {
			if err := m.bind(def, seq); err != nil {
				return nil, err
			}
		}
	}
	for prefix := range m.prefixes {
		if id, ok := m.single[prefix]; ok {
			return nil, fmt.Errorf("key %q starts a chord and is also bound to %s", prefix, id)
		}
	}
	return m, nil
}

func (m *Map) bind(def definition, seq []string) error {
	for _, have := range m.seqs[def.id] {
		if strings.Join(have, " ") == strings.Join(seq, " ") {
			return fmt.Errorf("action %s: duplicate binding %q", def.id, strings.Join(seq, " "))
		}
	}
	switch len(seq) {
	case 1:
		if id, ok := m.single[seq[0]]; ok {
			return fmt.Errorf("key %q bound to both %s and %s", seq[0], id, def.id)
		}
		m.single[seq[0]] = def.id
	case 2:
		if def.singleStep {
			return fmt.Errorf("action %s only supports single keys", def.id)
		}
		k := chordKey{seq[0], seq[1]}
		if id, ok := m.chords[k]; ok {
			return fmt.Errorf("chord %q bound to both %s and %s", seq[0]+" "+seq[1], id, def.id)
		}
		m.chords[k] = def.id
		m.prefixes[seq[0]] = true
	default:
		return fmt.Errorf("action %s: bindings have one or two steps, got %d", def.id, len(seq))
	}
	m.seqs[def.id] = append(m.seqs[def.id], append([]string(nil), seq...))
	return nil
}

func (m *Map) MatchSingle(key string) (Binding, bool) {
	if m == nil {
		return Binding{}, false
	}
	id, ok := m.single[key]
	return Binding{Action: id, Steps: []string{key}}, ok
}

func (m *Map) HasChordPrefix(key string) bool {
	return m != nil && m.prefixes[key]
}

func (m *Map) ResolveChord(prefix, next string) (Binding, bool) {
	if m == nil {
		return Binding{}, false
	}
	id, ok := m.chords[chordKey{prefix, next}]
	return Binding{Action: id, Steps: []string{prefix, next}}, ok
}

// Label is the first binding of action as shown in hints, e.g. "g d".
func (m *Map) Label(action ActionID) string {
	if labels := m.Labels(action); len(labels) > 0 {
		return labels[0]
	}
	return ""
}

func (m *Map) Labels(action ActionID) []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, seq := range m.seqs[action] {
		shown := make([]string, len(seq))
		for i, step := range seq {
			shown[i] = displayStep(step)
		}
		out = append(out, strings.Join(shown, " "))
	}
	return out
}

func displayStep(step string) string {
	if step == "shift+/" {
		return "?"
	}
	if rest, ok := strings.CutPrefix(step, "shift+"); ok && len(rest) == 1 {
		return strings.ToUpper(rest)
	}
	return step
}

var modifierRank = map[string]int{"ctrl": 0, "alt": 1, "shift": 2}

var modifierAlias = map[string]string{
	"ctrl": "ctrl", "control": "ctrl",
	"alt": "alt", "option": "alt",
	"shift": "shift",
}

// NormalizeKeyString turns a key as written in config, or as reported by
// the terminal, into the form used for lookup: lower case, modifiers in
// ctrl, alt, shift order, and an upper case letter as shift+letter. It
// returns "" for an unusable key.
func NormalizeKeyString(raw string) string {
	switch raw {
	case " ":
		return "space"
	case "?":
		return "shift+/"
	case "+":
		return "+"
	}
	raw = strings.TrimSpace(raw)
	if r := []rune(raw); len(r) == 1 && unicode.IsUpper(r[0]) {
		return "shift+" + strings.ToLower(raw)
	}

	var mods [3]bool
	key := ""
	for _, part := range strings.Split(raw, "+") {
		part = strings.ToLower(strings.TrimSpace(part))
		if mod, ok := modifierAlias[part]; ok {
			mods[modifierRank[mod]] = true
			continue
		}
		if part == "" || key != "" {
			return ""
		}
		key = part
	}
	if key == "" {
		return ""
	}
	var b strings.Builder
	for _, mod := range []string{"ctrl", "alt", "shift"} {
		if mods[modifierRank[mod]] {
			b.WriteString(mod + "+")
		}
	}
	b.WriteString(key)
	return b.String()
}
