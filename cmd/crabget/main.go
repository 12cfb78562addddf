// Command crabget sends one HTTP request through the crabhttp handle API and
// prints the response.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/term"

	"github.com/wippyai/crabhttp/ffi"
)

type listFlag []string

func (l *listFlag) String() string     { return strings.Join(*l, ",") }
func (l *listFlag) Set(v string) error { *l = append(*l, v); return nil }

type options struct {
	req        request
	include    bool
	fail       bool
	trace      bool
	logPath    string
	outputPath string
}

func main() {
	var (
		method    = flag.String("X", "", "Request method (default GET)")
		data      = flag.String("d", "", "Request body")
		profile   = flag.String("profile", "", "YAML request profile")
		timeout   = flag.Uint64("timeout", 0, "Total timeout in milliseconds (0 disables)")
		insecure  = flag.Bool("k", false, "Accept invalid TLS certificates")
		include   = flag.Bool("i", false, "Print status line and headers")
		fail      = flag.Bool("f", false, "Exit non-zero on 4xx and 5xx responses")
		jq        = flag.String("jq", "", "jq filter applied to a JSON response body")
		traceOut  = flag.Bool("trace", false, "Write OpenTelemetry spans to stderr")
		logPath   = flag.String("log", "", "Write debug logs to this file")
		output    = flag.String("o", "", "Write the body to a file")
		headers   listFlag
		queryArgs listFlag
	)
	flag.Var(&headers, "H", "Request header 'Name: value' (repeatable)")
	flag.Var(&queryArgs, "q", "Query parameter key=value (repeatable)")
	flag.Parse()

	var req request
	if *profile != "" {
		p, err := loadProfile(*profile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		req = p
	}
	if flag.NArg() > 0 {
		req.URL = flag.Arg(0)
	}
	if req.URL == "" {
		fmt.Fprintln(os.Stderr, "Usage: crabget [flags] <url>")
		fmt.Fprintln(os.Stderr, "       crabget -profile request.yaml")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if err := applyFlags(&req, *method, *data, *jq, *timeout, *insecure, headers, queryArgs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	opts := options{
		req:        req,
		include:    *include,
		fail:       *fail,
		trace:      *traceOut,
		logPath:    *logPath,
		outputPath: *output,
	}
	code, err := run(context.Background(), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}

func applyFlags(r *request, method, data, jq string, timeout uint64, insecure bool, headers, query []string) error {
	if method != "" {
		r.Method = strings.ToUpper(method)
	}
	if data != "" {
		r.Body = data
		if r.Method == "" {
			r.Method = "POST"
		}
	}
	if jq != "" {
		r.JQ = jq
	}
	if timeout > 0 {
		r.TimeoutMS = timeout
	}
	if insecure {
		r.Insecure = true
	}
	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return fmt.Errorf("header %q is not 'Name: value'", h)
		}
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	for _, q := range query {
		key, value, _ := strings.Cut(q, "=")
		r.Query = append(r.Query, queryParam{Key: key, Value: value})
	}
	return nil
}

func run(ctx context.Context, opts options) (int, error) {
	if opts.logPath != "" {
		if err := ffi.InitializeLogging(opts.logPath); err != nil {
			return 1, fmt.Errorf("logging: %w", err)
		}
	}

	var bopts []ffi.Option
	if opts.trace {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return 1, fmt.Errorf("trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
		defer tp.Shutdown(ctx)
		bopts = append(bopts, ffi.WithTracerProvider(tp))
	}
	b := ffi.New(bopts...)
	defer b.Close()

	work := func() (*result, error) { return fetch(b, opts.req) }
	tty := term.IsTerminal(int(os.Stderr.Fd()))

	var (
		res *result
		err error
	)
	if tty && !opts.trace {
		res, err = withSpinner(os.Stderr, opts.req.URL, work)
	} else {
		res, err = work()
	}
	if err != nil {
		return 1, err
	}

	stdoutTTY := term.IsTerminal(int(os.Stdout.Fd()))
	if opts.include {
		printHead(os.Stdout, res, stdoutTTY)
	}
	if err := writeBody(os.Stdout, opts, res); err != nil {
		return 1, err
	}
	if opts.fail && res.status >= 400 {
		return 22, nil
	}
	return 0, nil
}

func writeBody(stdout io.Writer, opts options, res *result) error {
	w := stdout
	if opts.outputPath != "" {
		f, err := os.Create(opts.outputPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if opts.req.JQ != "" {
		return filterJSON(w, res.body, opts.req.JQ)
	}
	_, err := w.Write(res.body)
	return err
}
