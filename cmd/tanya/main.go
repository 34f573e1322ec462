// Package main is the tanya CLI entry point.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/tanya/internal/agent"
	"github.com/hyperjump/tanya/internal/cli"
	"github.com/hyperjump/tanya/internal/client"
	"github.com/hyperjump/tanya/internal/config"
	"github.com/hyperjump/tanya/internal/embedding"
	"github.com/hyperjump/tanya/internal/eval"
	"github.com/hyperjump/tanya/internal/indexer"
	"github.com/hyperjump/tanya/internal/llm"
	"github.com/hyperjump/tanya/internal/models"
	"github.com/hyperjump/tanya/internal/pii"
	"github.com/hyperjump/tanya/internal/search"
	"github.com/hyperjump/tanya/internal/server"
	"github.com/hyperjump/tanya/internal/session"
	"github.com/hyperjump/tanya/internal/vector"
	"github.com/hyperjump/tanya/internal/watcher"
	"github.com/hyperjump/tanya/pkg/utils"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/tanya/config.yaml"
	defaultServerURL  = "http://localhost:8000"
	clientTimeout     = 2 * time.Minute
)

// loadConfig loads config from path and validates it. When path is the default, a
// config.yaml in the current directory takes precedence, so "tanya server" run from
// a project directory uses that project's config.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				path = fallback
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config %s:\n%w", path, err)
	}
	return cfg, path, nil
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]
	switch command {
	case "server":
		runServer(args)
	case "ask":
		runAsk(args)
	case "chat":
		runChat(args)
	case "history":
		runHistory(args)
	case "sessions":
		runSessions(args)
	case "status":
		runStatus(args)
	case "reindex":
		runReindex(args)
	case "eval":
		runEval(args)
	case "version", "--version", "-v":
		fmt.Printf("tanya version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func runServer(args []string) {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("corpus", cfg.Corpus.Directory),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("sessions_backend", cfg.Sessions.Backend),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Serve even if the first build fails; /healthz reports 503 until a rebuild succeeds.
	if _, err := components.Indexer.Build(ctx); err != nil {
		logger.Error("initial index build failed", zap.Error(err))
	}

	if cfg.Corpus.Watch {
		watchSvc, err := startWatcher(ctx, components.Indexer, logger)
		if err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(
		components.Engine,
		components.Agent,
		components.Indexer,
		components.Sessions,
		cfg,
		logger,
		version,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// localSession starts the components in-process for commands run with --server "".
func localSession(configPath string, build bool) (*config.Config, *Components, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	if build {
		if _, err := components.Indexer.Build(context.Background()); err != nil {
			components.Close()
			fatalf("Index build failed: %v", err)
		}
	}
	return cfg, components, logger
}

func parseOutput(s string) cli.OutputFormat {
	format, err := cli.ParseFormat(s)
	if err != nil {
		fatalf("%v", err)
	}
	return format
}

func runAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (in-process mode)")
	serverURL := fs.String("server", defaultServerURL, `server URL (empty = run in-process)`)
	k := fs.Int("k", 0, "number of chunks to retrieve (0 = configured default)")
	output := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: tanya ask [flags] <question>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(args))
	format := parseOutput(*output)

	query := buildQuery(fs.Args())
	if query == "" {
		fs.Usage()
		os.Exit(1)
	}
	ctx := context.Background()

	var resp *models.AskResponse
	if *serverURL != "" {
		r, err := client.New(*serverURL, clientTimeout).Ask(ctx, query, *k)
		if err != nil {
			fatalf("Ask failed: %v", err)
		}
		resp = r
	} else {
		cfg, components, logger := localSession(*configPath, true)
		defer logger.Sync()
		defer components.Close()
		if *k == 0 {
			*k = components.Engine.DefaultK()
		}
		result, err := components.Engine.Retrieve(ctx, pii.New(&cfg.PII).Mask(query), *k)
		if err != nil {
			fatalf("Ask failed: %v", err)
		}
		resp = models.NewAskResponse(result, search.ComposeExtractive(result))
	}
	if err := cli.WriteAsk(os.Stdout, resp, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// chatter sends one chat message either to a server or to an in-process agent.
type chatter func(ctx context.Context, req models.ChatRequest) (*models.ChatReply, error)

func runChat(args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (in-process mode)")
	serverURL := fs.String("server", defaultServerURL, `server URL (empty = run in-process)`)
	sessionID := fs.String("session", models.DefaultSessionID, "session id")
	k := fs.Int("k", 0, "number of chunks to retrieve (0 = configured default)")
	output := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: tanya chat [flags] [message]\n\nWithout a message, reads one message per line from stdin.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(args))
	format := parseOutput(*output)

	var send chatter
	if *serverURL != "" {
		send = client.New(*serverURL, clientTimeout).Chat
	} else {
		_, components, logger := localSession(*configPath, true)
		defer logger.Sync()
		defer components.Close()
		send = components.Agent.Chat
	}

	ctx := context.Background()
	if msg := buildQuery(fs.Args()); msg != "" {
		if err := chatOnce(ctx, send, os.Stdout, models.ChatRequest{Message: msg, SessionID: *sessionID, K: *k}, format); err != nil {
			fatalf("Chat failed: %v", err)
		}
		return
	}
	if err := chatLoop(ctx, send, os.Stdin, os.Stdout, *sessionID, *k, format); err != nil {
		fatalf("Chat failed: %v", err)
	}
}

func chatOnce(ctx context.Context, send chatter, w io.Writer, req models.ChatRequest, format cli.OutputFormat) error {
	reply, err := send(ctx, req)
	if err != nil {
		return err
	}
	return cli.WriteChat(w, reply, format)
}

// chatLoop reads messages line by line until EOF or "exit". Errors for a single
// message are printed and the loop continues.
func chatLoop(ctx context.Context, send chatter, in io.Reader, out io.Writer, sessionID string, k int, format cli.OutputFormat) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		msg := strings.TrimSpace(scanner.Text())
		switch msg {
		case "":
		case "exit", "quit":
			return nil
		default:
			if err := chatOnce(ctx, send, out, models.ChatRequest{Message: msg, SessionID: sessionID, K: k}, format); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func runHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	limit := fs.Int("limit", 0, "number of most recent turns (0 = server default)")
	clearHistory := fs.Bool("clear", false, "delete the session history instead of printing it")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(args))
	format := parseOutput(*output)

	sessionID := models.DefaultSessionID
	if fs.NArg() > 0 {
		sessionID = fs.Arg(0)
	}
	c := client.New(*serverURL, clientTimeout)
	ctx := context.Background()
	if *clearHistory {
		if err := c.ClearHistory(ctx, sessionID); err != nil {
			fatalf("Clear failed: %v", err)
		}
		fmt.Printf("History cleared: %s\n", sessionID)
		return
	}
	resp, err := c.History(ctx, sessionID, *limit)
	if err != nil {
		fatalf("History failed: %v", err)
	}
	if err := cli.WriteHistory(os.Stdout, resp, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// startWatcher rebuilds idx whenever a corpus file changes.
func startWatcher(ctx context.Context, idx *indexer.Indexer, logger *zap.Logger, opts ...watcher.WatcherOption) (*watcher.Watcher, error) {
	opts = append([]watcher.WatcherOption{watcher.WithLogger(logger)}, opts...)
	w := watcher.NewWatcher(idx.Directory(), idx.Extensions(),
		func(ctx context.Context) {
			if _, err := idx.Build(ctx); err != nil {
				logger.Warn("rebuild after corpus change failed", zap.Error(err))
			}
		},
		opts...)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	logger.Info("watching corpus", zap.String("directory", w.Directory()))
	return w, nil
}

func runSessions(args []string) {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(args)

	ids, err := client.New(*serverURL, clientTimeout).Sessions(context.Background())
	if err != nil {
		fatalf("Sessions failed: %v", err)
	}
	for _, id := range ids {
		fmt.Println(id)
	}
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (in-process mode)")
	serverURL := fs.String("server", defaultServerURL, `server URL (empty = build the index in-process)`)
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)
	format := parseOutput(*output)

	var st *models.IndexStatus
	if *serverURL != "" {
		s, err := client.New(*serverURL, clientTimeout).Status(context.Background())
		if err != nil {
			fatalf("Status failed: %v", err)
		}
		st = s
	} else {
		_, components, logger := localSession(*configPath, true)
		defer logger.Sync()
		defer components.Close()
		s := components.Indexer.Status()
		st = &s
	}
	if err := cli.WriteStatus(os.Stdout, st, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runReindex(args []string) {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)
	format := parseOutput(*output)

	st, err := client.New(*serverURL, clientTimeout).Rebuild(context.Background())
	if err != nil {
		fatalf("Reindex failed: %v", err)
	}
	if err := cli.WriteStatus(os.Stdout, st, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runEval(args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (in-process mode)")
	serverURL := fs.String("server", "", `server URL (empty = run in-process)`)
	file := fs.String("file", "eval.jsonl", "JSONL file of {\"q\", \"ans_contains\"} cases")
	k := fs.Int("k", 3, "number of chunks retrieved per question")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)
	format := parseOutput(*output)

	cases, err := eval.Load(*file)
	if err != nil {
		fatalf("Failed to load eval file: %v", err)
	}

	var (
		src    eval.Source
		logger = zap.NewNop()
	)
	if *serverURL != "" {
		src = eval.FromClient(client.New(*serverURL, clientTimeout))
	} else {
		_, components, l := localSession(*configPath, true)
		defer l.Sync()
		defer components.Close()
		src = eval.FromRetriever(components.Engine)
		logger = l
	}
	report, err := eval.Run(context.Background(), src, cases, *k, logger)
	if err != nil {
		fatalf("Eval failed: %v", err)
	}
	if err := cli.WriteEvalReport(os.Stdout, report, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// buildQuery joins positional args into a single query. Multi-word queries work
// with or without quotes.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves flags (and their values) that appear after positional args
// to the front so that flag.Parse sees them. Go's flag package stops at the first
// non-flag argument. Boolean flags must use the -flag=value form when trailing.
func argsReorder(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "-") && len(a) > 1 {
			flags = append(flags, a)
			if !strings.Contains(a, "=") && !isBoolFlag(a) && i+1 < len(args) {
				flags = append(flags, args[i+1])
				i++
			}
			continue
		}
		positional = append(positional, a)
	}
	return append(flags, positional...)
}

func isBoolFlag(a string) bool {
	name := strings.TrimLeft(a, "-")
	return name == "clear" || name == "debug"
}

// Components holds initialized services.
type Components struct {
	Embedder embedding.Embedder
	Holder   *vector.Holder
	Indexer  *indexer.Indexer
	Engine   *search.Engine
	Model    llm.LanguageModel
	Sessions session.Store
	Agent    *agent.Agent
}

// Close releases the session store and the embedder.
func (c *Components) Close() {
	if c.Sessions != nil {
		_ = c.Sessions.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	logger = utils.OrNop(logger)

	embedder, err := embedding.New(&cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	holder := vector.NewHolder()
	idx, err := indexer.NewIndexer(cfg, embedder, holder, indexer.WithLogger(logger))
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize indexer: %w", err)
	}
	engine := search.NewEngine(embedder, holder, cfg, search.WithLogger(logger))

	model, err := llm.New(&cfg.LLM)
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize language model: %w", err)
	}

	store, err := session.Open(&cfg.Sessions)
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	ag := agent.New(engine, model, store, cfg, agent.WithLogger(logger))
	logger.Info("components initialized",
		zap.String("embedding_model", embedder.Model()),
		zap.Int("dimensions", embedder.Dimensions()),
		zap.String("llm", model.Name()),
		zap.String("sessions_backend", cfg.Sessions.Backend))

	return &Components{
		Embedder: embedder,
		Holder:   holder,
		Indexer:  idx,
		Engine:   engine,
		Model:    model,
		Sessions: store,
		Agent:    ag,
	}, nil
}

func printUsage() {
	fmt.Println(`tanya - grounded question answering over a document corpus

Usage:
  tanya server [flags]              Start the HTTP server
  tanya ask [flags] <question>      Ask a single question
  tanya chat [flags] [message]      Chat with the agent (interactive without a message)
  tanya history [flags] [session]   Show or clear a session's history
  tanya sessions [flags]            List sessions with history
  tanya status [flags]              Show index status
  tanya reindex [flags]             Rebuild the server's index from the corpus
  tanya eval [flags]                Measure hit rate and precision@k
  tanya version                     Show version
  tanya help                        Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/tanya/config.yaml,
                     or ./config.yaml when present)
  --debug            Enable debug logging

Client Flags (ask, chat, history, sessions, status, reindex):
  --server string    Server URL (default: http://localhost:8000). ask, chat and status
                     accept --server "" to run in-process with --config.
  --output string    Output format: text or json (default: text)
  --k int            Chunks to retrieve (ask, chat)
  --session string   Session id (chat; default: default)
  --limit int        Most recent turns to show (history)
  --clear            Delete the session history (history)

Eval Flags:
  --file string      JSONL cases, one {"q": ..., "ans_contains": ...} per line (default: eval.jsonl)
  --k int            Chunks per question (default: 3)
  --server string    Evaluate a running server instead of an in-process index

Environment:
  DATA_DIR, CHUNK_SIZE, CHUNK_OVERLAP, EMBEDDING_MODEL, OPENAI_API_KEY,
  AZURE_OPENAI_KEY, AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_DEPLOYMENT,
  AZURE_OPENAI_API_VERSION, TANYA_DEBUG. A .env file in the working
  directory is loaded first.

Examples:
  tanya server
  tanya ask "what is the room rent limit for policy 101?"
  tanya ask --k 5 --output json "claim deadline"
  tanya chat --session u1 "what is the status of my claim?"
  tanya history --limit 4 u1
  tanya eval --file eval.jsonl --k 3`)
}
