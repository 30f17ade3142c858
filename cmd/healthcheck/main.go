// Package main is a container health check. It exits 0 when the server's
// liveness endpoint answers 200; pass "ready" to check readiness instead.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/garyellow/companion-nlu-go/internal/config"
)

func main() {
	port := os.Getenv(config.EnvPort)
	if port == "" {
		port = "10000"
	}

	path := "/healthz"
	if len(os.Args) > 1 && os.Args[1] == "ready" {
		path = "/ready"
	}

	client := &http.Client{Timeout: config.ReadinessCheck + 2*time.Second}
	resp, err := client.Get(fmt.Sprintf("http://localhost:%s%s", port, path))
	if err != nil {
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
