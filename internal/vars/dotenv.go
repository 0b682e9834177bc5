package vars

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadDotEnv reads KEY=value pairs from path. Later lines may reference
// earlier keys (or the process environment) with $NAME or ${NAME}; values in
// single quotes are kept literally.
func LoadDotEnv(path string) (values map[string]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open env file %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close env file %s: %w", path, cerr)
		}
	}()
	values, err = parseDotEnv(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}

type lineError struct {
	line int
	msg  string
}

func (e *lineError) Error() string { return fmt.Sprintf("line %d: %s", e.line, e.msg) }

func parseDotEnv(r io.Reader) (map[string]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	values := make(map[string]string)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "export"); ok && rest != "" && (rest[0] == ' ' || rest[0] == '\t') {
			line = strings.TrimSpace(rest)
		}
		key, raw, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok {
			return nil, &lineError{n, "expected KEY=value"}
		}
		if key == "" {
			return nil, &lineError{n, "missing key"}
		}
		value, literal, err := dotEnvValue(strings.TrimLeft(raw, " \t"))
		if err != nil {
			return nil, &lineError{n, err.Error()}
		}
		if !literal {
			if value, err = interpolate(value, values); err != nil {
				return nil, &lineError{n, err.Error()}
			}
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return values, nil
}

// dotEnvValue unquotes raw. literal reports a single-quoted value.
func dotEnvValue(raw string) (value string, literal bool, err error) {
	if raw == "" {
		return "", false, nil
	}
	quote := raw[0]
	if quote != '"' && quote != '\'' {
		return stripComment(raw), false, nil
	}
	var b strings.Builder
	for i := 1; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case ch == '\\':
			if i+1 >= len(raw) {
				return "", false, fmt.Errorf("unfinished escape")
			}
			i++
			if quote == '"' {
				b.WriteByte(unescape(raw[i]))
			} else {
				b.WriteByte(raw[i])
			}
		case ch == quote:
			tail := strings.TrimSpace(raw[i+1:])
			if tail != "" && tail[0] != '#' && tail[0] != ';' {
				return "", false, fmt.Errorf("unexpected content after quoted value")
			}
			return b.String(), quote == '\'', nil
		default:
			b.WriteByte(ch)
		}
	}
	return "", false, fmt.Errorf("unterminated quoted value")
}

// stripComment drops a trailing # or ; comment that follows whitespace.
func stripComment(v string) string {
	for i := 0; i < len(v); i++ {
		if (v[i] == '#' || v[i] == ';') && (i == 0 || v[i-1] == ' ' || v[i-1] == '\t') {
			return strings.TrimSpace(v[:i])
		}
	}
	return strings.TrimSpace(v)
}

func interpolate(v string, seen map[string]string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		ch := v[i]
		if ch == '\\' && i+1 < len(v) && v[i+1] == '$' {
			b.WriteByte('$')
			i++
			continue
		}
		if ch != '$' || i+1 >= len(v) {
			b.WriteByte(ch)
			continue
		}
		var name string
		switch {
		case v[i+1] == '{':
			end := strings.IndexByte(v[i+2:], '}')
			if end < 0 {
				return "", fmt.Errorf("missing closing brace for ${")
			}
			name = strings.TrimSpace(v[i+2 : i+2+end])
			if name == "" {
				return "", fmt.Errorf("empty variable name")
			}
			i += end + 2
		case isNameChar(v[i+1]):
			j := i + 1
			for j < len(v) && isNameChar(v[j]) {
				j++
			}
			name = v[i+1 : j]
			i = j - 1
		default:
			b.WriteByte(ch)
			continue
		}
		val, ok := seen[name]
		if !ok {
			val, ok = EnvProvider{}.Resolve(name)
		}
		if !ok {
			return "", fmt.Errorf("variable %q is not defined", name)
		}
		b.WriteString(val)
	}
	return b.String(), nil
}

func isNameChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case '0':
		return 0
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	}
	return c
}
