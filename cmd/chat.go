/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sentinella/pkg/ui/chat"

	"github.com/spf13/cobra"
)

var chatServerURL string

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open a terminal chat against a running Sentinella gateway",
	Long:  "Opens an interactive terminal session that sends suspicious messages to a running Sentinella gateway and renders the analyses.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		serverURL := strings.TrimRight(strings.TrimSpace(chatServerURL), "/")
		if serverURL == "" {
			fmt.Println("server URL is required")
			return
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		httpClient := &http.Client{Timeout: 90 * time.Second}
		promptFn := relayPrompt(httpClient, serverURL)

		if err := chat.Run(runCtx, serverURL, promptFn); err != nil {
			fmt.Printf("chat session failed: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatServerURL, "server", "s", "http://127.0.0.1:5001", "base URL of the running gateway")
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// relayPrompt builds a chat.PromptFunc that posts the message to the
// gateway /chat route and extracts the analysis text.
func relayPrompt(client *http.Client, serverURL string) chat.PromptFunc {
	return func(ctx context.Context, message string) (string, error) {
		payload, err := json.Marshal(chatRequest{Message: message})
		if err != nil {
			return "", fmt.Errorf("encode request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL+"/chat", bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("reach gateway: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("read response: %w", err)
		}

		return decodeChatResponse(resp.StatusCode, body)
	}
}

func decodeChatResponse(statusCode int, body []byte) (string, error) {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if statusCode != http.StatusOK {
			return "", fmt.Errorf("gateway returned status %d", statusCode)
		}
		return "", fmt.Errorf("decode response: %w", err)
	}

	if parsed.Error != "" {
		return "", fmt.Errorf("%s", parsed.Error)
	}
	if statusCode != http.StatusOK {
		return "", fmt.Errorf("gateway returned status %d", statusCode)
	}

	return parsed.Response, nil
}
