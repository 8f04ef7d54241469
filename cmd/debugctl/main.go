package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/af-corp/debug-relay/internal/config"
	"github.com/af-corp/debug-relay/internal/debugclient"
	"github.com/af-corp/debug-relay/internal/types"
)

func main() {
	endpoint := flag.String("url", "http://localhost:8080/functions/v1/debug-analyze", "analysis endpoint URL")
	typ := flag.String("type", "analyze", "analysis type: analyze, logs, stacktrace, review")
	language := flag.String("lang", "", "language hint (optional, e.g. Go, Python)")
	token := flag.String("token", "", "session access token (default $DEBUG_RELAY_TOKEN)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: debugctl [flags] [file]\n\nReads content from file, or stdin when omitted.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	_ = godotenv.Load()
	if *token == "" {
		*token = os.Getenv("DEBUG_RELAY_TOKEN")
	}
	if *token == "" {
		log.Fatal("no token: pass -token or set DEBUG_RELAY_TOKEN")
	}

	t, ok := types.ParseAnalysisType(*typ)
	if !ok {
		log.Fatalf("invalid type %q", *typ)
	}

	content, err := readContent(flag.Arg(0))
	if err != nil {
		log.Fatalf("read content: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := debugclient.NewClient(*endpoint, os.Getenv(config.EnvAnonKey), nil)
	_, err = client.Analyze(ctx, *token, types.AnalysisRequest{
		Type:     t,
		Content:  content,
		Language: types.Language(*language),
	}, func(p debugclient.Progress) {
		io.WriteString(os.Stdout, p.Delta)
		if !p.Streaming {
			fmt.Println()
		}
	})
	switch {
	case err == nil:
	case errors.Is(err, debugclient.ErrRateLimited):
		log.Fatal("rate limit exceeded, wait a moment before trying again")
	case errors.Is(err, debugclient.ErrCreditsExhausted):
		log.Fatal("credits exhausted")
	default:
		log.Fatal(err)
	}
}

func readContent(path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}
