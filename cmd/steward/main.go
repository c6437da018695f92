// Command steward runs the task-routing agent as an interactive terminal
// session. Each line of input starts a turn; when the workflow suspends for
// approval or missing details, the next line resumes it.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/stewardhq/steward"
	"github.com/stewardhq/steward/capability"
	"github.com/stewardhq/steward/nodes"
	"github.com/stewardhq/steward/postgres"
	"github.com/stewardhq/steward/redisstore"
)

var (
	boldStyle    = color.New(color.Bold)
	errorStyle   = color.New(color.FgRed)
	successStyle = color.New(color.FgGreen)
	promptStyle  = color.New(color.FgYellow)
	infoStyle    = color.New(color.FgCyan)
)

func main() {
	var configPath, threadID string
	flag.StringVar(&configPath, "config", "", "path to YAML config file")
	flag.StringVar(&threadID, "thread", "", "resume an existing conversation thread")
	flag.Parse()

	if err := run(configPath, threadID); err != nil {
		errorStyle.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, threadID string) error {
	// A missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	config, err := steward.LoadConfig(configPath)
	if err != nil {
		return err
	}
	level, err := steward.ParseLogLevel(config.LogLevel)
	if err != nil {
		return err
	}
	logger := steward.NewLogger(level)
	if config.LogFormat == "json" {
		logger = steward.NewJSONLogger(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := buildStore(ctx, config)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := nodes.Options{
		Actions: steward.NewNullActions(logger),
	}
	if config.OpenAIAPIKey != "" {
		llm, err := openai.New(
			openai.WithToken(config.OpenAIAPIKey),
			openai.WithModel(config.ModelName),
		)
		if err != nil {
			return fmt.Errorf("failed to initialize model: %w", err)
		}
		model := capability.NewModel(llm, logger)
		opts.Classifier = model
		opts.Extractor = model
		opts.Generator = model
		infoStyle.Printf("using model %s\n", config.ModelName)
	} else {
		heuristic := capability.NewHeuristic()
		opts.Classifier = heuristic
		opts.Extractor = heuristic
		opts.Generator = heuristic
		infoStyle.Println("no OPENAI_API_KEY set, using keyword heuristics")
	}

	graph, err := nodes.NewGraph(opts)
	if err != nil {
		return err
	}
	engine, err := steward.NewEngine(steward.EngineOptions{
		Graph:  graph,
		Store:  store,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	return repl(ctx, engine, threadID)
}

func buildStore(ctx context.Context, config *steward.Config) (steward.CheckpointStore, func(), error) {
	noop := func() {}
	switch config.StoreBackend {
	case steward.StoreBackendMemory:
		return steward.NewMemoryStore(), noop, nil
	case steward.StoreBackendFile:
		store, err := steward.NewFileStore(config.DataDir)
		return store, noop, err
	case steward.StoreBackendPostgres:
		store, err := postgres.New(ctx, postgres.Options{DSN: config.PostgresDSN})
		if err != nil {
			return nil, noop, err
		}
		return store, func() { store.Close() }, nil
	case steward.StoreBackendRedis:
		store, err := redisstore.New(ctx, redisstore.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
		if err != nil {
			return nil, noop, err
		}
		return store, func() { store.Close() }, nil
	}
	return nil, noop, steward.NewValidationError("unknown store backend %q", config.StoreBackend)
}

func repl(ctx context.Context, engine *steward.Engine, threadID string) error {
	boldStyle.Println("steward — email, posts, calendar, and chat. Ctrl-D to quit.")
	if threadID != "" {
		infoStyle.Printf("thread: %s\n", threadID)
	}

	scanner := bufio.NewScanner(os.Stdin)
	suspended := false
	for {
		if suspended {
			promptStyle.Print("(awaiting input) > ")
		} else {
			boldStyle.Print("> ")
		}
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var outcome *steward.Outcome
		var err error
		if suspended {
			outcome, err = engine.ResumeTurn(ctx, threadID, line)
		} else {
			outcome, err = engine.StartTurn(ctx, threadID, line)
		}
		if err != nil {
			if steward.IsStaleResume(err) {
				errorStyle.Println("that conversation already moved on; starting fresh")
				suspended = false
				continue
			}
			errorStyle.Printf("error: %v\n", err)
			continue
		}

		threadID = outcome.ThreadID
		suspended = outcome.Status == steward.OutcomeSuspended
		render(outcome)

		if ctx.Err() != nil {
			return nil
		}
	}
}

func render(outcome *steward.Outcome) {
	if outcome.Preview != "" {
		fmt.Println("\n" + outcome.Preview)
	} else if outcome.State != nil && outcome.State.Preview != "" {
		fmt.Println("\n" + outcome.State.Preview)
	}
	if outcome.Status == steward.OutcomeSuspended {
		promptStyle.Println("\n" + outcome.Prompt)
		return
	}
	if outcome.Result != nil {
		if outcome.Result.Status == steward.ResultStatusSuccess {
			successStyle.Printf("\n%s\n", outcome.Result.Message)
		} else {
			errorStyle.Printf("\n%s\n", outcome.Result.Message)
		}
	}
}
