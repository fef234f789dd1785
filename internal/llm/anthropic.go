// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pdiddy/game-scout/internal/httputil"
	"github.com/pdiddy/game-scout/pkg/types"
)

const defaultMaxTokens = 2048

// MessagesClient is the subset of the Anthropic SDK used here. It is
// satisfied by *sdk.MessageService so tests can pass a stub.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Anthropic generates text with the Claude Messages API.
type Anthropic struct {
	Messages MessagesClient
	Config   types.AIConfig
}

// NewAnthropic returns a generator for cfg, or Disabled when generation is
// turned off or no API key is available.
func NewAnthropic(cfg types.AIConfig) Generator {
	if !cfg.Enabled || strings.TrimSpace(cfg.APIKey) == "" {
		return Disabled{}
	}
	client := sdk.NewClient(option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0))
	return &Anthropic{Messages: &client.Messages, Config: cfg}
}

// Generate issues one non-streaming Messages call.
func (a *Anthropic) Generate(ctx context.Context, req Request) (Response, error) {
	if a.Messages == nil {
		return Response{}, ErrNotConfigured
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.Config.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(a.Config.Model),
		MaxTokens: int64(maxTokens),
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt))},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	msg, err := a.Messages.New(ctx, params)
	if err != nil {
		return Response{}, translateError(err)
	}
	if msg == nil {
		return Response{}, errors.New("anthropic: empty response")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	usage := types.TokenUsage{Input: msg.Usage.InputTokens, Output: msg.Usage.OutputTokens}
	usage.CostMicroUSD = a.price(usage)

	if b.Len() == 0 {
		return Response{Usage: usage}, errors.New("anthropic: no text content in response")
	}
	return Response{Text: b.String(), Usage: usage}, nil
}

// price converts token counts to micro-dollars using the configured rates.
func (a *Anthropic) price(u types.TokenUsage) int64 {
	usd := float64(u.Input)*a.Config.InputCostPerMTok/1e6 + float64(u.Output)*a.Config.OutputCostPerMTok/1e6
	return types.MicroUSD(usd)
}

// translateError maps SDK API errors onto httputil.StatusError so the retry
// wrapper can classify them.
func translateError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("anthropic messages.new: %w", &httputil.StatusError{
			Provider:   "anthropic",
			StatusCode: apiErr.StatusCode,
		})
	}
	if errors.Is(err, context.Canceled) {
		return httputil.ErrCancelled
	}
	return fmt.Errorf("anthropic messages.new: %w", err)
}

// compile-time check that the SDK service satisfies MessagesClient.
var _ MessagesClient = (*sdk.MessageService)(nil)
