// agent-memory: Persistent memory MCP server for autonomous agents
//
// A scope-aware memory store: agents save guidelines, knowledge, tool
// notes, and experience records at a scope (session, project, org, or
// global) and query them back with inheritance, full-text search, and
// ranked results.
//
// Usage:
//
//	agent-memory serve [--config path]   # Start MCP server (stdio transport)
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	memserver "github.com/coccobas/agent-memory/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		fs := flag.NewFlagSet("serve", flag.ExitOnError)
		configPath := fs.String("config", "", "path to a YAML config file")
		_ = fs.Parse(os.Args[2:])

		if err := run(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("agent-memory v%s\n", memserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run(configPath string) error {
	s, cleanup, err := memserver.New(configPath)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt. The stdio server ends when stdin
	// closes; the signal handler covers direct termination.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ServeStdio(s)
	}()

	select {
	case <-sigCh:
		return nil
	case err := <-errCh:
		return err
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `agent-memory v%s — Persistent memory MCP server

Usage:
  agent-memory serve [--config path]   Start the MCP server (stdio transport)

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "agent-memory": {
        "command": "agent-memory",
        "args": ["serve"]
      }
    }
  }
`, memserver.Version)
}
