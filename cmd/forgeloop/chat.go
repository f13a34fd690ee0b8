package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forgeloop/forgeloop/agent"
	"github.com/forgeloop/forgeloop/config"
	"github.com/forgeloop/forgeloop/llm"
	"github.com/forgeloop/forgeloop/sandbox"
)

var (
	chatMessage string
	chatVerbose bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the agent about the project",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Send a single message and exit")
	chatCmd.Flags().BoolVarP(&chatVerbose, "verbose", "v", false, "Show tool calls as they run")
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
}

func runChat(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.IsConfigured() {
		return fmt.Errorf("no API key configured; set %s_API_KEY or FORGELOOP_API_KEY", strings.ToUpper(cfg.Provider))
	}

	provider, err := llm.New(cfg.LLMOptions())
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}

	logLevel := slog.LevelWarn
	if chatVerbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	sess, err := sandbox.NewLocal(cfg.ProjectDir,
		sandbox.WithStartCommand(cfg.StartCommand),
		sandbox.WithInstallCommand(cfg.InstallCommand),
		sandbox.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("open project: %w", err)
	}
	defer sess.Stop()

	svc := agent.NewService(provider, sess, cfg.AgentConfig(), logger)
	if chatVerbose {
		svc.OnToolCall = func(call llm.ToolCall) {
			fmt.Fprintf(os.Stderr, "  -> %s\n", call.Name)
		}
		svc.OnToolResult = func(r llm.ToolResult) {
			mark := "ok"
			if !r.Success {
				mark = "FAILED: " + r.Error
			}
			fmt.Fprintf(os.Stderr, "  <- %s %s\n", r.Name, mark)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if chatMessage != "" {
		return sendOne(ctx, svc, chatMessage)
	}
	return runInteractive(ctx, svc)
}

func sendOne(ctx context.Context, svc *agent.Service, message string) error {
	res, err := svc.Chat(ctx, message)
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}

func runInteractive(ctx context.Context, svc *agent.Service) error {
	fmt.Printf("forgeloop %s on %s (type 'exit' or Ctrl+C to quit)\n\n", version, svc.ProviderName())

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if exitCommands[line] {
			return nil
		}
		if line == "/reset" {
			svc.Reset()
			fmt.Println("Conversation cleared.")
			continue
		}

		res, err := svc.Chat(ctx, line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		printResult(res)

		if ctx.Err() != nil {
			return nil
		}
	}
}

func printResult(res *agent.Result) {
	fmt.Println(res.Response)
	if res.State != agent.StateDone {
		fmt.Printf("(turn %s after %d tool calls)\n", res.State, len(res.ToolCalls))
	}
	fmt.Println()
}
