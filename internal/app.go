package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"github.com/medoro/medoro-go/config"
	"github.com/medoro/medoro-go/pkg/medoro"
	"github.com/medoro/medoro-go/pkg/policy"
)

func SetupLogger(cfg config.Log) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// Run executes one CLI command against the configured bucket.
func Run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	SetupLogger(cfg.Log)

	client, err := medoro.NewClientFromConfig(cfg, medoro.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return fmt.Errorf("usage: medoro <put|get|del|sign> ...")
	}

	ctx := context.Background()
	switch args[0] {
	case "put":
		return runPut(ctx, client, args[1:])
	case "get":
		return runGet(ctx, client, args[1:])
	case "del":
		return runDel(ctx, client, args[1:])
	case "sign":
		return runSign(client, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// runPut uploads a file: medoro put <key> <file> [public|private]
func runPut(ctx context.Context, client *medoro.Client, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: medoro put <key> <file> [public|private]")
	}
	key, file := args[0], args[1]

	access := policy.AccessPrivate
	if len(args) > 2 && args[2] == "public" {
		access = policy.AccessPublic
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	pol := policy.New(access).With("contentLength", policy.LTE(float64(len(content))))
	data, err := client.Store(ctx, key, content, pol)
	if err != nil {
		return err
	}
	return printJSON(data)
}

// runGet downloads an object to stdout: medoro get <key>
func runGet(ctx context.Context, client *medoro.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: medoro get <key>")
	}

	res, err := client.Fetch(ctx, args[0])
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if _, err := io.Copy(os.Stdout, res.Body); err != nil {
		return fmt.Errorf("stream object: %w", err)
	}
	return nil
}

// runDel removes an object: medoro del <key>
func runDel(ctx context.Context, client *medoro.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: medoro del <key>")
	}
	data, err := client.Remove(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(data)
}

// runSign prints a shareable signed fetch URL: medoro sign <key> [expirySeconds]
func runSign(client *medoro.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: medoro sign <key> [expirySeconds]")
	}

	var expiry time.Duration
	if len(args) > 1 {
		seconds, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("parse expiry: %w", err)
		}
		expiry = time.Duration(seconds) * time.Second
	}

	signed, err := client.CreateSignedURL(medoro.NewFetch(args[0]), expiry)
	if err != nil {
		return err
	}
	fmt.Println(signed.URL)
	return nil
}

func printJSON(data any) error {
	out, err := sonic.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
