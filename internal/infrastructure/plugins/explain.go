package plugins

import (
	"context"
	"fmt"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/ports"
)

// explain asks the bridge to describe cmd in plain words, or falls back to a
// fixed line when no bridge is available.
func explain(ctx context.Context, bridge ports.LLMBridge, systemPrompt, fallbackLabel, cmd string) (domain.Preview, error) {
	if bridge == nil {
		return domain.TextPreview(fmt.Sprintf("%s: %s", fallbackLabel, cmd)), nil
	}
	text, err := bridge.Chat(ctx, systemPrompt, cmd)
	if err != nil {
		return domain.Preview{}, fmt.Errorf("explain command: %w", err)
	}
	return domain.TextPreview(text), nil
}
