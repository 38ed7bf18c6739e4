package generation

import (
	"context"
	"fmt"

	"github.com/postcraft/backend/internal/models"
)

var lengthWords = map[string]int{
	"short":  150,
	"medium": 400,
	"long":   800,
}

// GenericContentParams is the request body of the generic content tool.
type GenericContentParams struct {
	ContentType string `json:"contentType" validate:"required,notblank,max=60"`
	Topic       string `json:"topic" validate:"required,notblank,max=1000"`
	Length      string `json:"length" validate:"omitempty,oneof=short medium long"`
	Tone        string `json:"tone" validate:"omitempty,max=50"`
}

type genericContentTool struct{}

func (genericContentTool) Kind() models.ToolKind { return models.ToolGenericContent }

func (genericContentTool) DefaultPricing() ToolPricing {
	return ToolPricing{
		Basic:   TierPricing{Price: 1, Variations: 1},
		Premium: TierPricing{Price: 3, Variations: 2},
	}
}

func (genericContentTool) NewParams() any { return &GenericContentParams{} }

func (genericContentTool) Run(ctx context.Context, inv *Invoker, params any, opts RunOptions) (*models.GenerationResult, error) {
	p, err := paramsAs[GenericContentParams](params)
	if err != nil {
		return nil, err
	}
	length := p.Length
	if length == "" {
		length = "medium"
	}

	user := fmt.Sprintf("Write a %s about: %s.\nAim for about %d words.", p.ContentType, p.Topic, lengthWords[length])
	if p.Tone != "" {
		user += fmt.Sprintf("\nTone: %s.", p.Tone)
	}

	texts, model, err := generateVariations(ctx, inv, Prompt{
		System: "You are a versatile content writer. Reply with the requested content only.",
		User:   user,
	}, opts, func(s string) string { return Truncate(s, 0) })
	if err != nil {
		return nil, err
	}
	return withVariations(&models.GenerationResult{Metadata: models.GenerationMetadata{Model: model}}, texts), nil
}
