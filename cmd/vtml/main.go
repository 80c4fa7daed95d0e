package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-sod/vtml/internal/integration"
	"github.com/go-sod/vtml/internal/logging"
	"github.com/kelseyhightower/envconfig"
)

const usage = `usage: vtml [flags] <command> [file]

commands:
  detect FILE        post a JSON array of GPS points to /anomaly-detection
  optimize FILE      post a {vehicle_id, points} document to /route-optimization
  maintenance FILE   post a vehicle usage document to /predictive-maintenance
  health             query /health

FILE may be - to read standard input.
`

type config struct {
	Addr    string        `envconfig:"VTML_CLI_ADDR" default:"localhost:8000"`
	Timeout time.Duration `envconfig:"VTML_CLI_TIMEOUT" default:"60s"`
}

var errStatus = errors.New("request failed")

func main() {
	ctx := context.Background()
	logger := logging.FromContext(ctx)

	cfg := config{}
	if err := envconfig.Process("", &cfg); err != nil {
		logger.Fatalf("error loading environment variables: %v", err)
	}

	fs := flag.NewFlagSet("vtml", flag.ExitOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "service address host:port")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "request timeout")
	fs.Usage = func() {
		_, _ = fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	err := run(ctx, integration.NewClient(cfg.Addr), fs.Args(), os.Stdin, os.Stdout)
	switch {
	case errors.Is(err, errStatus):
		os.Exit(1)
	case err != nil:
		_, _ = fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		os.Exit(2)
	}
}

func run(ctx context.Context, client *integration.Client, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command")
	}

	var (
		resp *integration.Response
		err  error
	)
	switch cmd := args[0]; cmd {
	case "health":
		resp, err = client.Health(ctx)
	case "detect", "optimize", "maintenance":
		if len(args) < 2 {
			return fmt.Errorf("%s: missing input file", cmd)
		}
		body, cerr := open(args[1], stdin)
		if cerr != nil {
			return cerr
		}
		defer body.Close()

		switch cmd {
		case "detect":
			resp, err = client.Detect(ctx, body)
		case "optimize":
			resp, err = client.Optimize(ctx, body)
		default:
			resp, err = client.Maintenance(ctx, body)
		}
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, resp.Body, "", "  "); err != nil {
		out.Reset()
		out.Write(resp.Body)
	}
	out.WriteByte('\n')
	if _, err := out.WriteTo(stdout); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: status %d", errStatus, resp.StatusCode)
	}
	return nil
}

func open(name string, stdin io.Reader) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}
