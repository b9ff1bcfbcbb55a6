// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the concrete stores, the
// resolver, the query engine, and injects them into the tools. No
// business logic lives here — only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/coccobas/agent-memory/internal/config"
	"github.com/coccobas/agent-memory/internal/entry"
	"github.com/coccobas/agent-memory/internal/logging"
	"github.com/coccobas/agent-memory/internal/memtools"
	"github.com/coccobas/agent-memory/internal/permission"
	"github.com/coccobas/agent-memory/internal/query"
	"github.com/coccobas/agent-memory/internal/scope"
	"github.com/coccobas/agent-memory/internal/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all memory tools
// registered. This is the single place where dependencies are resolved.
//
// The returned cleanup function flushes the logger and closes the
// database connection; it must be called on shutdown (typically via
// defer) and is always non-nil.
func New(configPath string) (*server.MCPServer, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, noop, err
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, noop, fmt.Errorf("server: logger: %w", err)
	}

	db, err := storage.Open(cfg.DataDir)
	if err != nil {
		_ = log.Sync()
		return nil, noop, err
	}
	cache := scope.NewChainCache(cfg.ChainCacheTTL.Std())

	cleanup := func() {
		cache.Clear()
		if err := db.Close(); err != nil {
			log.Warn("closing database", zap.Error(err))
		}
		_ = log.Sync()
	}

	// --- Stores and the query engine ---

	scopes, err := scope.NewStore(db, cache, log)
	if err != nil {
		cleanup()
		return nil, noop, err
	}

	entries, err := entry.NewStore(db)
	if err != nil {
		cleanup()
		return nil, noop, err
	}

	resolver := scope.NewResolver(scopes, cache, log)
	engine := query.NewEngine(cfg, resolver, entries, permission.ForMode(cfg.PermissionMode), log)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"agent-memory",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register memory tools ---

	queryTool := memtools.NewQueryTool(engine)
	s.AddTool(queryTool.Definition(), queryTool.Handle)

	contextTool := memtools.NewContextTool(engine)
	s.AddTool(contextTool.Definition(), contextTool.Handle)

	saveTool := memtools.NewSaveTool(entries)
	s.AddTool(saveTool.Definition(), saveTool.Handle)

	deactivateTool := memtools.NewDeactivateTool(entries)
	s.AddTool(deactivateTool.Definition(), deactivateTool.Handle)

	scopeTool := memtools.NewScopeTool(scopes)
	s.AddTool(scopeTool.Definition(), scopeTool.Handle)

	statsTool := memtools.NewStatsTool(entries, scopes, cache)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	log.Info("server ready",
		zap.String("data_dir", cfg.DataDir),
		zap.String("permission_mode", cfg.PermissionMode),
	)

	return s, cleanup, nil
}

// noop is the cleanup returned when initialization fails before any
// resource was opened.
func noop() {}

// serverInstructions tells the connected agent how to use the memory
// store effectively.
func serverInstructions() string {
	return `You have access to a persistent, scope-aware memory store.

## Scopes
Memory lives in a hierarchy: session → project → org → global. An entry
saved at a scope is visible to that scope and every scope below it.
Save at the most specific scope that still covers everyone who needs
the entry: a personal working note belongs to the session, a team
convention to the project, a company policy to the org.

## Entry kinds
- guideline: a rule of behavior ("always run the linter before commit")
- knowledge: a fact about the world or the codebase
- tool: usage notes for a tool or service
- experience: a record of past work — what was tried, what happened

## Typical workflow
1. At session start, call memory_context for your session scope. It
   returns active guidelines, knowledge, and tools — local entries plus
   everything inherited from the project, org, and global scopes.
2. During work, call memory_query with a search term when you need
   something specific. Results are ranked by priority, recency, scope
   specificity, and text relevance.
3. When you learn something durable, call memory_save. Set priority
   for importance and confidence for how sure you are; both default
   to 0.5.
4. When an entry is wrong or obsolete, call memory_deactivate with its
   ID. Deactivation is how corrections work — save the replacement,
   deactivate the original.

## Pagination
Responses include hasMore and, when more results exist, a nextCursor
token. Pass it back as the cursor argument to fetch the next page.
Never construct cursor values yourself.

## Diagnostics
Pass explain=true to memory_query or memory_context to get a
stage-by-stage trace: which scopes were searched, how many entries
each stage kept, and the score breakdown of the top results. Use it
when results look wrong, not on every call.`
}
