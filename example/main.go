package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"log"
	"net/http/httptest"
	"time"

	"github.com/medoro/medoro-go/internal/medorotest"
	"github.com/medoro/medoro-go/pkg/httpsig"
	"github.com/medoro/medoro-go/pkg/medoro"
	"github.com/medoro/medoro-go/pkg/policy"
)

func main() {
	// Generate a key pair and run the service double in-process.
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		log.Fatalf("generate key: %v", err)
	}
	server := httptest.NewServer(medorotest.New(map[string]ed25519.PublicKey{
		"example-key": pub,
	}).Handler())
	defer server.Close()

	client, err := medoro.NewClient(server.URL, "example-key", httpsig.NewEd25519Signer(priv))
	if err != nil {
		log.Fatalf("create client: %v", err)
	}

	ctx := context.Background()

	// Store under a policy bound into the signature.
	pol := policy.New(policy.AccessPublic).
		With("contentLength", policy.LTE(1<<20)).
		With("contentType", policy.StartsWith("text/"))

	cmd, err := medoro.NewStore("reports/hello.txt", []byte("hello medoro"), pol)
	if err != nil {
		log.Fatalf("build store command: %v", err)
	}
	cmd = cmd.WithHeader("Content-Type", "text/plain")

	result, err := client.Send(ctx, cmd)
	if err != nil {
		log.Fatalf("store failed: %v", err)
	}
	fmt.Printf("stored: %v\n", result.Data)

	// A signed URL can also be handed to another process.
	signed, err := client.CreateSignedURL(medoro.NewFetch("reports/hello.txt"), 5*time.Minute)
	if err != nil {
		log.Fatalf("sign url: %v", err)
	}
	fmt.Printf("signed fetch url: %s\n", signed.URL)

	// Fetch the raw payload back.
	fetched, err := client.Fetch(ctx, "reports/hello.txt")
	if err != nil {
		log.Fatalf("fetch failed: %v", err)
	}
	content, err := io.ReadAll(fetched.Body)
	fetched.Body.Close()
	if err != nil {
		log.Fatalf("read body: %v", err)
	}
	fmt.Printf("fetched: %s\n", content)

	// Remove it again.
	data, err := client.Remove(ctx, "reports/hello.txt")
	if err != nil {
		log.Fatalf("remove failed: %v", err)
	}
	fmt.Printf("removed: %v\n", data)
}
