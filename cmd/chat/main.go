// backend/cmd/chat/main.go
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hlardiez/chat-test/internal/config"
	"github.com/hlardiez/chat-test/internal/engine"
	"github.com/hlardiez/chat-test/internal/openai"
	"github.com/hlardiez/chat-test/internal/pinecone"
	"github.com/hlardiez/chat-test/internal/ragmetrics"
	"github.com/hlardiez/chat-test/internal/retrieval"
	"github.com/hlardiez/chat-test/pkg/utils"
	"github.com/joho/godotenv"
)

var (
	showTiming = flag.Bool("t", false, "Show evaluation timing")
	logLevel   = flag.String("log-level", "warn", "Console log level")
)

func main() {
	flag.Parse()

	// A missing .env file is fine when variables come from the shell
	_ = godotenv.Load()

	logger := utils.NewConsoleLogger(*logLevel)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.ValidateOpenAI(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidatePinecone(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	generator := openai.NewClient(cfg.OpenAI, logger)
	index := pinecone.NewClient(cfg.Pinecone.Host, cfg.Pinecone.APIKey, cfg.Pinecone.IndexName, logger)
	evaluator := ragmetrics.NewClient(cfg.RagMetrics, logger)

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	retriever := retrieval.New(startupCtx, index, generator, cfg.Pinecone.TopK, cfg.Pinecone.Namespace, logger)
	cancel()

	eng := engine.New(retriever, generator, evaluator, cfg.Regeneration, logger)

	fmt.Println("Ask a question (quit/exit/q to leave):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		switch strings.ToLower(question) {
		case "quit", "exit", "q":
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		result, err := eng.ProcessQuestion(ctx, question)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		printResult(result)
	}
}

func printResult(result *engine.Result) {
	fmt.Println()
	fmt.Println("Answer:")
	fmt.Println(result.Answer)

	if result.Evaluation != nil && len(result.Evaluation.Criteria) > 0 {
		fmt.Println()
		fmt.Println("Evaluation:")
		for _, criterion := range result.Evaluation.Criteria {
			if criterion.Reason != "" {
				fmt.Printf("  %s - %d: %s\n", criterion.Name, criterion.Score, criterion.Reason)
			} else {
				fmt.Printf("  %s - %d\n", criterion.Name, criterion.Score)
			}
		}
		if *showTiming {
			fmt.Printf("  evaluation took %s\n", result.EvaluationTime.Round(time.Millisecond))
		}
	}

	if result.Regenerated() {
		fmt.Println()
		fmt.Println("Regenerated answer:")
		fmt.Println(result.RegeneratedAnswer)
	}

	fmt.Println()
}
