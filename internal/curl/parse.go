// Package curl converts between curl command lines and captured requests.
package curl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/unkn0wn-root/netscope/internal/transaction"
)

const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	mimeJSON          = "application/json"
	mimeForm          = "application/x-www-form-urlencoded"
)

var errNotCurl = errors.New("not a curl command")

// Result is a parsed command. Insecure, Follow and Timeout carry the
// transport flags curl would have applied; Warnings lists options that were
// recognised but have no effect on a capture.
type Result struct {
	Request  *transaction.Request
	Insecure bool
	Follow   bool
	Timeout  time.Duration
	Warnings []string
}

type optKind int

const (
	optNone optKind = iota
	optValue
)

type parseState struct {
	res     Result
	method  string
	url     string
	headers http.Header
	data    []string
	json    bool
	get     bool
	head    bool
}

type optFn func(*parseState, string) error

type optDef struct {
	kind optKind
	fn   optFn
}

var longOpts = map[string]optDef{
	"request":        {optValue, func(st *parseState, v string) error { st.method = strings.ToUpper(v); return nil }},
	"header":         {optValue, optHeader},
	"user":           {optValue, optUser},
	"user-agent":     {optValue, optHeaderKey("User-Agent")},
	"referer":        {optValue, optHeaderKey("Referer")},
	"cookie":         {optValue, optHeaderKey("Cookie")},
	"url":            {optValue, func(st *parseState, v string) error { st.url = v; return nil }},
	"data":           {optValue, optData(true)},
	"data-ascii":     {optValue, optData(true)},
	"data-raw":       {optValue, optData(false)},
	"data-binary":    {optValue, optData(false)},
	"data-urlencode": {optValue, optDataURLEncode},
	"json":           {optValue, optJSON},
	"get":            {optNone, func(st *parseState, _ string) error { st.get = true; return nil }},
	"head":           {optNone, func(st *parseState, _ string) error { st.head = true; return nil }},
	"location":       {optNone, func(st *parseState, _ string) error { st.res.Follow = true; return nil }},
	"insecure":       {optNone, func(st *parseState, _ string) error { st.res.Insecure = true; return nil }},
	"max-time":       {optValue, optMaxTime},
	"compressed": {optNone, func(st *parseState, _ string) error {
		st.headers.Set("Accept-Encoding", "gzip, deflate, br")
		return nil
	}},
	"silent":  {optNone, optIgnore},
	"verbose": {optNone, optIgnore},
	"include": {optNone, optIgnore},
	"output":  {optValue, optIgnore},
}

var shortOpts = map[byte]string{
	'X': "request",
	'H': "header",
	'u': "user",
	'A': "user-agent",
	'e': "referer",
	'b': "cookie",
	'd': "data",
	'G': "get",
	'I': "head",
	'L': "location",
	'k': "insecure",
	'm': "max-time",
	's': "silent",
	'S': "silent",
	'v': "verbose",
	'i': "include",
	'o': "output",
}

// Parse reads a single curl invocation. Shell prompts and wrappers such as
// "$ " or "sudo" before curl are skipped.
func Parse(command string) (Result, error) {
	words, err := splitWords(command)
	if err != nil {
		return Result{}, err
	}
	idx := -1
	for i, w := range words {
		if w == "curl" || strings.HasSuffix(w, "/curl") {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Result{}, errNotCurl
	}

	st := &parseState{headers: make(http.Header)}
	positional := false
	args := words[idx+1:]
	for i := 0; i < len(args); i++ {
		w := args[i]
		switch {
		case positional || w == "-" || !strings.HasPrefix(w, "-"):
			if st.url == "" {
				st.url = w
			} else {
				st.res.Warnings = append(st.res.Warnings, fmt.Sprintf("ignored extra URL %s", w))
			}
		case w == "--":
			positional = true
		case strings.HasPrefix(w, "--"):
			if err := st.long(w[2:], args, &i); err != nil {
				return Result{}, err
			}
		default:
			if err := st.short(w[1:], args, &i); err != nil {
				return Result{}, err
			}
		}
	}
	return st.finish()
}

func (st *parseState) long(name string, args []string, i *int) error {
	name, val, hasVal := strings.Cut(name, "=")
	def, ok := longOpts[name]
	if !ok {
		st.res.Warnings = append(st.res.Warnings, "unsupported option --"+name)
		return nil
	}
	if def.kind == optValue && !hasVal {
		v, err := next(args, i, "--"+name)
		if err != nil {
			return err
		}
		val = v
	}
	return def.fn(st, val)
}

// short handles clustered flags such as -sSL and attached values such as
// -XPOST.
func (st *parseState) short(cluster string, args []string, i *int) error {
	for j := 0; j < len(cluster); j++ {
		name, ok := shortOpts[cluster[j]]
		if !ok {
			st.res.Warnings = append(st.res.Warnings, "unsupported option -"+string(cluster[j]))
			continue
		}
		def := longOpts[name]
		if def.kind == optNone {
			if err := def.fn(st, ""); err != nil {
				return err
			}
			continue
		}
		val := cluster[j+1:]
		if val == "" {
			v, err := next(args, i, "-"+string(cluster[j]))
			if err != nil {
				return err
			}
			val = v
		}
		return def.fn(st, val)
	}
	return nil
}

func next(args []string, i *int, flag string) (string, error) {
	if *i+1 >= len(args) {
		return "", fmt.Errorf("%s requires a value", flag)
	}
	*i++
	return args[*i], nil
}

func (st *parseState) finish() (Result, error) {
	if strings.TrimSpace(st.url) == "" {
		return Result{}, fmt.Errorf("curl command has no URL")
	}
	rawURL := st.url
	if !strings.Contains(rawURL, "://") && !strings.HasPrefix(rawURL, "{{") {
		rawURL = "http://" + rawURL
	}
	body := strings.Join(st.data, "&")

	method := st.method
	switch {
	case method != "":
	case st.head:
		method = http.MethodHead
	case st.get || len(st.data) == 0:
		method = http.MethodGet
	default:
		method = http.MethodPost
	}

	if st.get && body != "" {
		// -G moves the data into the query string
		u, err := url.Parse(rawURL)
		if err != nil {
			return Result{}, fmt.Errorf("parse url: %w", err)
		}
		if u.RawQuery != "" {
			u.RawQuery += "&"
		}
		u.RawQuery += body
		rawURL = u.String()
		body = ""
	}

	if body != "" && st.headers.Get(headerContentType) == "" {
		if st.json {
			st.headers.Set(headerContentType, mimeJSON)
		} else {
			st.headers.Set(headerContentType, mimeForm)
		}
	}

	req := &transaction.Request{
		Method:          method,
		URL:             rawURL,
		Headers:         st.headers,
		Timeout:         st.res.Timeout,
		FollowRedirects: st.res.Follow,
	}
	if body != "" {
		req.Body = []byte(body)
	}
	st.res.Request = req
	return st.res, nil
}

func optHeader(st *parseState, v string) error {
	name, value, ok := strings.Cut(v, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("invalid header %q", v)
	}
	if !ok {
		// "Name;" sends an empty header, a bare "Name" removes it
		if trimmed, empty := strings.CutSuffix(name, ";"); empty {
			st.headers.Set(trimmed, "")
		} else {
			st.headers.Del(name)
		}
		return nil
	}
	st.headers.Add(name, strings.TrimSpace(value))
	return nil
}

func optHeaderKey(key string) optFn {
	return func(st *parseState, v string) error {
		st.headers.Set(key, v)
		return nil
	}
}

func optUser(st *parseState, v string) error {
	token := base64.StdEncoding.EncodeToString([]byte(v))
	st.headers.Set("Authorization", "Basic "+token)
	return nil
}

// optData returns the handler for the -d family. Only --data and
// --data-ascii strip newlines, as curl does. "@path" values are kept as
// written; reading the file is up to the caller.
func optData(stripNewlines bool) optFn {
	return func(st *parseState, v string) error {
		if stripNewlines {
			v = strings.NewReplacer("\r", "", "\n", "").Replace(v)
		}
		st.data = append(st.data, v)
		return nil
	}
}

func optDataURLEncode(st *parseState, v string) error {
	name, value, ok := strings.Cut(v, "=")
	if !ok {
		st.data = append(st.data, url.QueryEscape(v))
		return nil
	}
	st.data = append(st.data, name+"="+url.QueryEscape(value))
	return nil
}

func optJSON(st *parseState, v string) error {
	st.json = true
	if st.headers.Get(headerAccept) == "" {
		st.headers.Set(headerAccept, mimeJSON)
	}
	st.data = append(st.data, v)
	return nil
}

func optMaxTime(st *parseState, v string) error {
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs < 0 {
		return fmt.Errorf("invalid --max-time %q", v)
	}
	st.res.Timeout = time.Duration(secs * float64(time.Second))
	return nil
}

func optIgnore(*parseState, string) error { return nil }
