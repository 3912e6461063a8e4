// Command sercha-rag ingests documents into per-conversation scopes and
// retrieves relevant passages for chat context.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	defer logger.Sync()

	app, err := newApp(os.Getenv("SERCHA_RAG_CONFIG_DIR"))
	if err != nil {
		return err
	}
	defer app.Close()

	cli.Configure(app.services)
	cli.SetVersion(version)
	return cli.Execute()
}
