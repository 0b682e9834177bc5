package curl

import (
	"fmt"
	"strings"
)

// tokenState tracks shell quoting while a command is split into words.
type tokenState struct {
	inSingle bool
	inDouble bool
	inANSI   bool
	escape   bool
	skipLF   bool
}

func (s *tokenState) open() bool { return s.inSingle || s.inDouble || s.inANSI }

// step consumes rs[*i]. It reports whether the rune was handled by the
// quoting rules and, if so, whether r belongs to the current word.
func (s *tokenState) step(rs []rune, i *int) (r rune, emit, handled bool, err error) {
	r = rs[*i]

	if s.skipLF {
		s.skipLF = false
		if r == '\n' {
			return 0, false, true, nil
		}
	}

	if s.escape {
		s.escape = false
		switch {
		case s.inANSI:
			v, err := ansiEscape(rs, i)
			return v, err == nil, true, err
		case r == '\n' || r == '\r':
			// line continuation
			s.skipLF = r == '\r'
			return 0, false, true, nil
		case s.inDouble && !strings.ContainsRune(`"\$`+"`", r):
			// inside double quotes only a few characters are escapable
			*i--
			return '\\', true, true, nil
		}
		return r, true, true, nil
	}

	switch {
	case s.inANSI:
		switch r {
		case '\\':
			s.escape = true
			return 0, false, true, nil
		case '\'':
			s.inANSI = false
			return 0, false, true, nil
		}
		return r, true, true, nil
	case s.inSingle:
		if r == '\'' {
			s.inSingle = false
			return 0, false, true, nil
		}
		return r, true, true, nil
	case r == '\\':
		s.escape = true
		return 0, false, true, nil
	case r == '"':
		s.inDouble = !s.inDouble
		return 0, false, true, nil
	case s.inDouble:
		return r, true, true, nil
	case r == '\'':
		s.inSingle = true
		return 0, false, true, nil
	case r == '$' && *i+1 < len(rs) && rs[*i+1] == '\'':
		s.inANSI = true
		*i++
		return 0, false, true, nil
	}
	return r, false, false, nil
}

// splitWords splits a shell command line the way a POSIX shell would for
// the subset of syntax people paste: quotes, $'...', backslash escapes and
// line continuations. Variables and globs are left as written.
func splitWords(input string) ([]string, error) {
	var (
		st    tokenState
		out   []string
		word  strings.Builder
		inTok bool
	)
	flush := func() {
		if inTok {
			out = append(out, word.String())
			word.Reset()
			inTok = false
		}
	}

	rs := []rune(input)
	for i := 0; i < len(rs); i++ {
		wasOpen := st.open()
		r, emit, handled, err := st.step(rs, &i)
		if err != nil {
			return nil, err
		}
		if handled {
			if emit || wasOpen != st.open() {
				inTok = true
			}
			if emit {
				word.WriteRune(r)
			}
			continue
		}
		if isSpace(r) {
			flush()
			continue
		}
		inTok = true
		word.WriteRune(r)
	}
	if st.escape {
		return nil, fmt.Errorf("unterminated escape sequence")
	}
	if st.open() {
		return nil, fmt.Errorf("unterminated quoted string")
	}
	flush()
	return out, nil
}

func ansiEscape(rs []rune, i *int) (rune, error) {
	switch r := rs[*i]; r {
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case 'x':
		return readHex(rs, i, 2)
	case 'u':
		return readHex(rs, i, 4)
	default:
		return r, nil
	}
}

func readHex(rs []rune, i *int, n int) (rune, error) {
	if *i+n >= len(rs) {
		return 0, fmt.Errorf("invalid hex escape")
	}
	var v rune
	for _, r := range rs[*i+1 : *i+1+n] {
		var d rune
		switch {
		case r >= '0' && r <= '9':
			d = r - '0'
		case r >= 'a' && r <= 'f':
			d = r - 'a' + 10
		case r >= 'A' && r <= 'F':
			d = r - 'A' + 10
		default:
			return 0, fmt.Errorf("invalid hex escape")
		}
		v = v*16 + d
	}
	*i += n
	return v, nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
