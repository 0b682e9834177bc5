package theme

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	toml "github.com/pelletier/go-toml/v2"
)

const defaultKey = "default"

// Definition is a named theme. Path is empty for the built-in theme.
type Definition struct {
	Key         string
	DisplayName string
	Author      string
	Path        string
	Theme       Theme
}

// Catalog holds the built-in theme first, then user themes ordered by name.
type Catalog struct {
	defs []Definition
}

func builtinDefinition() Definition {
	return Definition{Key: defaultKey, DisplayName: "Default", Theme: DefaultTheme()}
}

// Resolve returns the theme stored under key. An empty or unknown key yields
// the built-in default; ok is false only for an unknown key.
func (c Catalog) Resolve(key string) (Definition, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = defaultKey
	}
	if i := c.index(key); i >= 0 {
		return c.defs[i], true
	}
	if i := c.index(defaultKey); i >= 0 {
		return c.defs[i], false
	}
	return builtinDefinition(), false
}

// Next returns the theme after key, wrapping around. An unknown key starts
// over at the first theme.
func (c Catalog) Next(key string) Definition {
	if len(c.defs) == 0 {
		return builtinDefinition()
	}
	return c.defs[(c.index(key)+1)%len(c.defs)]
}

func (c Catalog) index(key string) int {
	for i, def := range c.defs {
		if def.Key == key {
			return i
		}
	}
	return -1
}

var specDecoders = map[string]func([]byte, *ThemeSpec) error{
	".toml": func(data []byte, spec *ThemeSpec) error {
		return toml.Unmarshal(data, spec)
	},
	".json": func(data []byte, spec *ThemeSpec) error {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(spec)
	},
}

// LoadCatalog reads every .toml and .json theme in dirs. Missing directories
// are skipped. A broken theme file is left out and reported in the returned
// error while the rest of the catalog still loads.
func LoadCatalog(dirs []string) (Catalog, error) {
	var (
		user []Definition
		errs error
	)
	taken := map[string]bool{defaultKey: true}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("themes: read directory %q: %w", dir, err))
			continue
		}
		for _, entry := range entries {
			decode, ok := specDecoders[strings.ToLower(filepath.Ext(entry.Name()))]
			if entry.IsDir() || !ok {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			def, err := readTheme(path, decode)
			if err != nil {
				errs = errors.Join(errs, fmt.Errorf("themes: load %q: %w", path, err))
				continue
			}
			def.Key = claimKey(def.Key, taken)
			user = append(user, def)
		}
	}

	sort.SliceStable(user, func(i, j int) bool {
		a, b := strings.ToLower(user[i].DisplayName), strings.ToLower(user[j].DisplayName)
		if a == b {
			return user[i].Key < user[j].Key
		}
		return a < b
	})
	return Catalog{defs: append([]Definition{builtinDefinition()}, user...)}, errs
}

func readTheme(path string, decode func([]byte, *ThemeSpec) error) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, err
	}
	var spec ThemeSpec
	if err := decode(data, &spec); err != nil {
		return Definition{}, err
	}
	th, err := ApplySpec(DefaultTheme(), spec)
	if err != nil {
		return Definition{}, err
	}

	def := Definition{Path: path, Theme: th}
	if spec.Metadata != nil {
		def.DisplayName = strings.TrimSpace(spec.Metadata.Name)
		def.Author = spec.Metadata.Author
	}
	def.Key = slugify(def.DisplayName)
	if def.Key == "" {
		def.Key = slugify(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	if def.DisplayName == "" {
		def.DisplayName = titleFromSlug(def.Key)
	}
	return def, nil
}

// claimKey returns key, or key-N for the first free N when key is taken.
func claimKey(key string, taken map[string]bool) string {
	if key == "" {
		key = "theme"
	}
	out := key
	for n := 1; taken[out]; n++ {
		out = fmt.Sprintf("%s-%d", key, n)
	}
	taken[out] = true
	return out
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !dash {
				b.WriteRune('-')
				dash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func titleFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' })
	for i, w := range words {
		r := []rune(w)
		words[i] = string(unicode.ToUpper(r[0])) + string(r[1:])
	}
	if len(words) == 0 {
		return "Theme"
	}
	return strings.Join(words, " ")
}
