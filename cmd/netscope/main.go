package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/unkn0wn-root/netscope/internal/bindings"
	"github.com/unkn0wn-root/netscope/internal/capture"
	"github.com/unkn0wn-root/netscope/internal/config"
	"github.com/unkn0wn-root/netscope/internal/curl"
	"github.com/unkn0wn-root/netscope/internal/history"
	"github.com/unkn0wn-root/netscope/internal/inspector"
	"github.com/unkn0wn-root/netscope/internal/nettrace"
	"github.com/unkn0wn-root/netscope/internal/telemetry"
	"github.com/unkn0wn-root/netscope/internal/theme"
	"github.com/unkn0wn-root/netscope/internal/transaction"
	"github.com/unkn0wn-root/netscope/internal/ui"
	"github.com/unkn0wn-root/netscope/internal/vars"
	"github.com/unkn0wn-root/netscope/internal/watcher"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (f *multiFlag) String() string { return strings.Join(*f, ", ") }

func (f *multiFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

type cliOptions struct {
	method   string
	headers  multiFlag
	data     string
	timeout  time.Duration
	insecure bool
	follow   bool
	// followSet is true when -follow was given explicitly, so the settings
	// value only applies otherwise.
	followSet bool

	device         string
	theme          string
	fixtures       string
	historyBackend string
	noColor        bool

	assignments multiFlag
	envFile     string
	curlCmd     string
	warnings    []string

	telemetry   telemetry.Config
	showVersion bool

	url string
}

var usage = heredoc.Doc(`
	Usage: netscope [flags] [URL]

	Captures URL (if given) and opens the inspector. Earlier captures and
	imported fixtures are listed in the history view.

	Examples:
	  netscope https://example.com
	  netscope -X POST -H 'Content-Type: application/json' -d @body.json {{base}}/items -var base=https://api.test
	  netscope -fixtures captures.yaml -device wearable

	Flags:
`)

func parseFlags(args []string, getenv func(string) string, out io.Writer) (cliOptions, error) {
	opts := cliOptions{telemetry: telemetry.ConfigFromEnv(getenv)}
	fs := flag.NewFlagSet("netscope", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		_, _ = fmt.Fprint(out, usage)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.method, "X", "", "HTTP method (defaults to GET, or POST when -d is set)")
	fs.Var(&opts.headers, "H", "Request header 'Name: value' (repeatable)")
	fs.StringVar(&opts.data, "d", "", "Request body; @path reads it from a file")
	fs.DurationVar(&opts.timeout, "timeout", 0, "Request timeout (overrides settings)")
	fs.BoolVar(&opts.insecure, "insecure", false, "Skip TLS certificate verification")
	fs.BoolVar(&opts.follow, "follow", true, "Follow redirects")
	fs.StringVar(&opts.device, "device", "", "Device class: auto, large, wearable or living-room")
	fs.StringVar(&opts.theme, "theme", "", "Theme key")
	fs.StringVar(&opts.fixtures, "fixtures", "", "YAML fixtures to import and watch")
	fs.StringVar(&opts.historyBackend, "history-backend", "", "History storage: json or sqlite")
	fs.BoolVar(&opts.noColor, "no-color", getenv("NO_COLOR") != "", "Disable colors")
	fs.Var(&opts.assignments, "var", "Template variable key=value (repeatable)")
	fs.StringVar(&opts.envFile, "env-file", "", "Dotenv file with template variables")
	fs.StringVar(&opts.curlCmd, "curl", "", "Capture the request described by a curl command line")
	fs.StringVar(
		&opts.telemetry.Endpoint,
		"trace-otel-endpoint",
		opts.telemetry.Endpoint,
		"OTLP collector endpoint for capture spans",
	)
	fs.BoolVar(
		&opts.telemetry.Insecure,
		"trace-otel-insecure",
		opts.telemetry.Insecure,
		"Disable TLS for OTLP trace export",
	)
	fs.StringVar(
		&opts.telemetry.ServiceName,
		"trace-otel-service",
		opts.telemetry.ServiceName,
		"Override service.name resource attribute for exported spans",
	)
	fs.BoolVar(&opts.showVersion, "version", false, "Show netscope version")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "follow" {
			opts.followSet = true
		}
	})
	switch fs.NArg() {
	case 0:
	case 1:
		opts.url = strings.TrimSpace(fs.Arg(0))
	default:
		return opts, fmt.Errorf("expected at most one URL, got %d arguments", fs.NArg())
	}

	if opts.curlCmd != "" {
		if opts.url != "" {
			return opts, fmt.Errorf("-curl and a URL argument are mutually exclusive")
		}
		if err := applyCurl(&opts); err != nil {
			return opts, err
		}
	}

	opts.telemetry.Endpoint = strings.TrimSpace(opts.telemetry.Endpoint)
	opts.telemetry.ServiceName = strings.TrimSpace(opts.telemetry.ServiceName)
	opts.telemetry.Version = version
	return opts, nil
}

// applyCurl folds a -curl command into the request flags. Explicit flags
// such as -timeout still win over the command's own options.
func applyCurl(opts *cliOptions) error {
	res, err := curl.Parse(opts.curlCmd)
	if err != nil {
		return fmt.Errorf("-curl: %w", err)
	}
	req := res.Request
	opts.url = req.URL
	if opts.method == "" {
		opts.method = req.Method
	}
	names := make([]string, 0, len(req.Headers))
	for name := range req.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range req.Headers[name] {
			opts.headers = append(opts.headers, name+": "+v)
		}
	}
	if opts.data == "" {
		opts.data = string(req.Body)
	}
	opts.insecure = opts.insecure || res.Insecure
	if res.Follow && !opts.followSet {
		opts.follow, opts.followSet = true, true
	}
	if opts.timeout == 0 {
		opts.timeout = res.Timeout
	}
	opts.warnings = append(opts.warnings, res.Warnings...)
	return nil
}

// buildRequest assembles the startup request and expands {{name}}
// placeholders in its URL, headers and body. It returns nil without a URL.
func buildRequest(opts cliOptions, r *vars.Resolver, readFile func(string) ([]byte, error)) (*transaction.Request, error) {
	if opts.url == "" {
		return nil, nil
	}
	var errs []error

	body := opts.data
	if path, ok := strings.CutPrefix(body, "@"); ok {
		data, err := readFile(path)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		body = string(data)
	}

	method := strings.ToUpper(strings.TrimSpace(opts.method))
	if method == "" {
		method = http.MethodGet
		if opts.data != "" {
			method = http.MethodPost
		}
	}

	rawURL := opts.url
	if !strings.Contains(rawURL, "://") && !strings.HasPrefix(rawURL, "{{") {
		rawURL = "http://" + rawURL
	}

	headers := make(http.Header)
	for _, h := range opts.headers {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			errs = append(errs, fmt.Errorf("header %q: expected 'Name: value'", h))
			continue
		}
		value = strings.TrimSpace(value)
		if r != nil {
			if err := r.ExpandAll(&value); err != nil {
				errs = append(errs, fmt.Errorf("header %s: %w", name, err))
			}
		}
		headers.Add(name, value)
	}

	if r != nil {
		if err := r.ExpandAll(&rawURL, &body); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	req := &transaction.Request{
		Method:  method,
		URL:     rawURL,
		Headers: headers,
	}
	if body != "" {
		req.Body = []byte(body)
	}
	return req, nil
}

func newResolver(opts cliOptions) (*vars.Resolver, error) {
	flagVars, err := vars.ParseAssignments(opts.assignments)
	if err != nil {
		return nil, err
	}
	providers := []vars.Provider{vars.NewMapProvider("var", flagVars)}
	if opts.envFile != "" {
		fileVars, err := vars.LoadDotEnv(opts.envFile)
		if err != nil {
			return nil, err
		}
		providers = append(providers, vars.NewMapProvider("file", fileVars))
	}
	providers = append(providers, vars.EnvProvider{})
	return vars.NewResolver(providers...), nil
}

// captureOptions merges settings with flag overrides.
func captureOptions(opts cliOptions, s config.CaptureSettings) (capture.Options, error) {
	out := capture.Options{
		Timeout:            s.TimeoutDuration(),
		FollowRedirects:    s.FollowRedirects,
		MaxRedirects:       s.MaxRedirects,
		InsecureSkipVerify: opts.insecure,
		MaxBodyBytes:       s.MaxBodyBytes,
	}
	if opts.timeout > 0 {
		out.Timeout = opts.timeout
	}
	if opts.followSet {
		out.FollowRedirects = opts.follow
	}

	total, tolerance, phases, err := s.Budget()
	if err != nil {
		return out, err
	}
	if total > 0 || len(phases) > 0 {
		budget := &nettrace.Budget{Total: total, Tolerance: tolerance}
		if len(phases) > 0 {
			budget.Phases = make(map[nettrace.PhaseKind]time.Duration, len(phases))
			for name, d := range phases {
				budget.Phases[nettrace.PhaseKind(name)] = d
			}
		}
		out.TraceBudget = budget
	}
	return out, nil
}

func openHistory(backend config.HistoryBackend, maxEntries int) (history.Store, error) {
	if backend == config.HistoryBackendSQLite {
		store, err := history.OpenSQLStore(config.HistoryDBPath(), maxEntries)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store := history.NewFileStore(config.HistoryPath(), maxEntries)
	// A damaged history file still leaves a usable, empty store.
	return store, store.Load()
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, err := parseFlags(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "netscope: %v\n", err)
		return 2
	}

	if opts.showVersion {
		fmt.Printf("netscope %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		return 0
	}

	if opts.noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	if os.Getenv("NETSCOPE_DEBUG") != "" {
		f, err := tea.LogToFile("netscope-debug.log", "netscope")
		if err != nil {
			log.Printf("debug log: %v", err)
			return 1
		}
		defer func() { _ = f.Close() }()
	}

	for _, w := range opts.warnings {
		log.Printf("-curl: %s", w)
	}

	resolver, err := newResolver(opts)
	if err != nil {
		log.Printf("variables: %v", err)
		return 2
	}
	req, err := buildRequest(opts, resolver, os.ReadFile)
	if err != nil {
		log.Printf("request: %v", err)
		return 2
	}

	settings, _, err := config.LoadSettings()
	if err != nil {
		log.Printf("settings load error: %v", err)
		settings = config.DefaultSettings()
	}

	device, err := inspector.ParseDeviceClass(settings.Inspector.Device)
	if err != nil {
		log.Printf("settings: %v", err)
		device = inspector.DeviceAuto
	}
	if opts.device != "" {
		if device, err = inspector.ParseDeviceClass(opts.device); err != nil {
			log.Printf("-device: %v", err)
			return 2
		}
	}

	backend := settings.History.Backend
	if opts.historyBackend != "" {
		if backend, err = config.ParseHistoryBackend(opts.historyBackend); err != nil {
			log.Printf("-history-backend: %v", err)
			return 2
		}
	}
	store, err := openHistory(backend, settings.History.MaxEntries)
	if err != nil {
		if store == nil {
			log.Printf("history: %v", err)
			return 1
		}
		log.Printf("history load error: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("history close: %v", err)
		}
	}()

	bindingMap, _, err := bindings.Load(config.Dir())
	if err != nil {
		log.Printf("bindings load error: %v", err)
		bindingMap = bindings.DefaultMap()
	}

	catalog, err := theme.LoadCatalog([]string{config.ThemeDir()})
	if err != nil {
		log.Printf("theme load error: %v", err)
	}
	themeKey := opts.theme
	if themeKey == "" {
		themeKey = settings.DefaultTheme
	}
	def, ok := catalog.Resolve(themeKey)
	if !ok {
		log.Printf("theme %q not found; using %s", themeKey, def.DisplayName)
	}

	client := capture.NewClient()
	provider, err := telemetry.New(opts.telemetry)
	if err != nil {
		if opts.telemetry.Enabled() {
			log.Printf("telemetry init error: %v", err)
		}
	} else {
		client.SetTelemetry(provider)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(ctx); err != nil {
				log.Printf("telemetry shutdown: %v", err)
			}
		}()
	}

	captureOpts, err := captureOptions(opts, settings.Capture)
	if err != nil {
		log.Printf("settings: %v", err)
	}

	var w *watcher.Watcher
	if opts.fixtures != "" {
		w = watcher.New(watcher.Options{})
	}

	model := ui.New(ui.Config{
		Theme:     def.Theme,
		ThemeKey:  def.Key,
		ThemeName: def.DisplayName,
		Catalog:   catalog,
		Bindings:  bindingMap,
		Device:    device,
		Inspector: settings.Inspector,
		Client:    client,
		Options:   captureOpts,
		Store:     store,
		Request:   req,
		Fixtures:  opts.fixtures,
		Watcher:   w,
	})

	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if m, ok := final.(ui.Model); ok {
		m.Close()
	} else {
		model.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
