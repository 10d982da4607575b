package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// AskRequest is the Q&A helper payload.
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// AskResponse carries the helper's answer. Fallback is true when the
// upstream model could not be reached in time and a canned answer was
// returned instead.
type AskResponse struct {
	Answer   string `json:"answer"`
	Fallback bool   `json:"fallback"`
}

const fallbackAnswer = "I can't reach the product assistant right now. " +
	"Please check the product FAQ or contact support@energyhub.example for help with solar, battery, and EV charging questions."

const systemPrompt = "You are the EnergyHub Marketplace assistant. Answer buyer questions about " +
	"renewable-energy products (solar panels, inverters, batteries, EV chargers) concisely and factually."

// AssistantService proxies buyer questions to an OpenAI-compatible chat
// completion API with a bounded timeout. Failures degrade to a canned
// answer instead of an error: the helper is advisory, never load-bearing.
type AssistantService struct {
	apiURL  string
	apiKey  string
	model   string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
}

// NewAssistantService creates a new AssistantService.
func NewAssistantService(apiURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *AssistantService {
	return &AssistantService{
		apiURL:  apiURL,
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Ask answers a buyer question. It never returns an error: any upstream
// failure or timeout yields the fallback answer.
func (s *AssistantService) Ask(ctx context.Context, question string) *AskResponse {
	answer, err := s.complete(ctx, question)
	if err != nil {
		s.logger.Warn("Assistant upstream failed, serving fallback", zap.Error(err))
		return &AskResponse{Answer: fallbackAnswer, Fallback: true}
	}
	return &AskResponse{Answer: answer}
}

func (s *AssistantService) complete(ctx context.Context, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: question},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assistant API returned %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("assistant API returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
