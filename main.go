package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"relay/config"
	"relay/llm"
	"relay/model"
	"relay/storage"
	"relay/tools"
)

const Version = "v0.01.00"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		fmt.Printf("Failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	// Initialize debug logging after config is loaded
	config.InitDebugLog(dataDir)

	client, err := buildClient(cfg)
	if err != nil {
		fmt.Printf("Failed to configure providers: %v\n", err)
		os.Exit(1)
	}
	client.SetMaxToolDepth(cfg.MaxToolDepth)
	if err := tools.RegisterBuiltins(client.Registry()); err != nil {
		fmt.Printf("Failed to register tools: %v\n", err)
		os.Exit(1)
	}

	sessions, err := storage.NewSessionStorage(dataDir)
	if err != nil {
		fmt.Printf("Failed to open session storage: %v\n", err)
		os.Exit(1)
	}
	defer sessions.Close()

	if err := repl(client, sessions, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildClient(cfg *config.Config) (*llm.Client, error) {
	var llmCfg llm.Config
	if p := cfg.Provider("openai"); p != nil && p.Enabled {
		llmCfg.OpenAIBaseURL = p.BaseURL
		llmCfg.OpenAIAPIKey = p.APIKey
	}
	if p := cfg.Provider("anthropic"); p != nil && p.Enabled {
		llmCfg.AnthropicBaseURL = p.BaseURL
		llmCfg.AnthropicAPIKey = p.APIKey
	}
	return llm.NewClient(llmCfg, nil)
}

// repl runs a line-based chat loop against the default model, keeping
// the transcript and continuation id in a stored session.
func repl(client *llm.Client, sessions *storage.SessionStorage, cfg *config.Config) error {
	fmt.Printf("relay %s — model %s (type /quit to exit)\n", Version, cfg.DefaultModel)

	session := &storage.Session{
		Name:  "cli",
		Model: cfg.DefaultModel,
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}

		session.Messages = append(session.Messages, model.Message{
			Role:    model.RoleUser,
			Content: line,
		})

		// Stateful providers already hold the transcript behind the
		// continuation id; send only the newest message once one exists.
		input := session.Messages
		if session.ContinuationID != "" {
			input = session.Messages[len(session.Messages)-1:]
		}

		resp, err := client.Respond(context.Background(), session.Model,
			input, llm.Options{
				Instructions:   cfg.Instructions,
				ContinuationID: session.ContinuationID,
				MaxToolDepth:   cfg.MaxToolDepth,
			})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		fmt.Println(resp.Text)

		session.Messages = append(session.Messages, model.Message{
			Role:    model.RoleAssistant,
			Content: resp.Text,
		})
		session.ContinuationID = resp.ContinuationID
		if err := sessions.Save(session); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save session: %v\n", err)
		}
	}
	return scanner.Err()
}
