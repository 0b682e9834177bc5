// Package vars expands {{name}} placeholders in requests built on the command
// line. Values come from -var flags, a dotenv file and the process
// environment, plus a few dynamic helpers such as {{$uuid}}.
package vars

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Provider interface {
	Resolve(name string) (string, bool)
	Label() string
}

// Resolver asks its providers in order; the first hit wins.
type Resolver struct {
	providers []Provider
	now       func() time.Time
}

func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{providers: providers, now: time.Now}
}

// Resolve looks name up directly and then as "label.name", so
// "env.HOME" reaches the environment provider even when another provider
// defines HOME.
func (r *Resolver) Resolve(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, p := range r.providers {
		if v, ok := p.Resolve(name); ok {
			return v, true
		}
	}
	label, subject, ok := strings.Cut(name, ".")
	if !ok || subject == "" {
		return "", false
	}
	for _, p := range r.providers {
		if !strings.EqualFold(strings.TrimSpace(p.Label()), label) {
			continue
		}
		if v, ok := p.Resolve(subject); ok {
			return v, true
		}
	}
	return "", false
}

var placeholder = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Expand replaces every placeholder in input. Unknown names stay in place
// and are reported together in the returned error.
func (r *Resolver) Expand(input string) (string, error) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(input, func(match string) string {
		name := strings.TrimSpace(placeholder.FindStringSubmatch(match)[1])
		if v, ok := r.Resolve(name); ok {
			return v
		}
		if strings.HasPrefix(name, "$") {
			if v, ok := r.dynamic(name); ok {
				return v
			}
		}
		missing = append(missing, name)
		return match
	})
	if len(missing) > 0 {
		return out, fmt.Errorf("undefined variable: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// ExpandAll expands every target in place and joins the failures.
func (r *Resolver) ExpandAll(targets ...*string) error {
	var errs []error
	for _, t := range targets {
		if t == nil || !strings.Contains(*t, "{{") {
			continue
		}
		v, err := r.Expand(*t)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*t = v
	}
	return errors.Join(errs...)
}

func (r *Resolver) dynamic(name string) (string, bool) {
	now := r.now()
	switch strings.ToLower(name) {
	case "$timestamp":
		return fmt.Sprintf("%d", now.Unix()), true
	case "$timestampiso8601":
		return now.UTC().Format(time.RFC3339), true
	case "$randomint":
		n, err := rand.Int(rand.Reader, big.NewInt(1<<62))
		if err != nil {
			return "", false
		}
		return n.String(), true
	case "$uuid", "$guid":
		return uuid.NewString(), true
	default:
		return "", false
	}
}

type MapProvider struct {
	values map[string]string
	label  string
}

// NewMapProvider lowercases keys so lookups are case-insensitive.
func NewMapProvider(label string, values map[string]string) *MapProvider {
	normalized := make(map[string]string, len(values))
	for k, v := range values {
		normalized[strings.ToLower(k)] = v
	}
	return &MapProvider{values: normalized, label: label}
}

func (p *MapProvider) Resolve(name string) (string, bool) {
	v, ok := p.values[strings.ToLower(name)]
	return v, ok
}

func (p *MapProvider) Label() string { return p.label }

type EnvProvider struct{}

func (EnvProvider) Resolve(name string) (string, bool) {
	if v, ok := os.LookupEnv(name); ok {
		return v, true
	}
	return os.LookupEnv(strings.ToUpper(name))
}

func (EnvProvider) Label() string { return "env" }

// ParseAssignments turns repeated -var key=value flags into a map.
func ParseAssignments(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	var errs []error
	for _, item := range raw {
		key, value, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			errs = append(errs, fmt.Errorf("variable %q: expected key=value", item))
			continue
		}
		out[key] = value
	}
	return out, errors.Join(errs...)
}
