package generation

import (
	"context"
	"fmt"

	"github.com/postcraft/backend/internal/models"
	"golang.org/x/sync/errgroup"
)

const videoSystem = "You are a short-form video strategist. Reply with the requested text only."

// VideoIdeaParams is the request body of the video idea tool.
type VideoIdeaParams struct {
	Topic    string `json:"topic" validate:"required,notblank,max=500"`
	Platform string `json:"platform" validate:"omitempty,oneof=youtube tiktok instagram"`
	Audience string `json:"audience" validate:"omitempty,max=100"`
}

type videoIdeaTool struct{}

func (videoIdeaTool) Kind() models.ToolKind { return models.ToolVideoIdea }

func (videoIdeaTool) DefaultPricing() ToolPricing {
	return ToolPricing{
		Basic:   TierPricing{Price: 1, Variations: 1},
		Premium: TierPricing{Price: 3, Variations: 1},
	}
}

func (videoIdeaTool) NewParams() any { return &VideoIdeaParams{} }

// Run generates the idea and, for premium, a script derived from it. A failed
// script leaves the idea in place.
func (videoIdeaTool) Run(ctx context.Context, inv *Invoker, params any, opts RunOptions) (*models.GenerationResult, error) {
	p, err := paramsAs[VideoIdeaParams](params)
	if err != nil {
		return nil, err
	}
	platform := p.Platform
	if platform == "" {
		platform = "youtube"
	}

	user := fmt.Sprintf("Suggest one %s video idea about: %s.\nDescribe it in two or three sentences.", platform, p.Topic)
	if p.Audience != "" {
		user += fmt.Sprintf("\nAudience: %s.", p.Audience)
	}

	idea, err := inv.Generate(ctx, Prompt{System: videoSystem, User: user}, opts.Tier)
	if err != nil {
		return nil, err
	}
	res := &models.GenerationResult{
		Idea:     idea.Text,
		Metadata: models.GenerationMetadata{Model: idea.Model},
	}
	if opts.Tier != models.TierPremium {
		return res, nil
	}

	script, err := inv.Generate(ctx, Prompt{
		System: videoSystem,
		User:   fmt.Sprintf("Write a short %s video script for this idea:\n%s\nInclude an opening hook, main points and a call to action.", platform, idea.Text),
	}, opts.Tier)
	if err != nil {
		opts.logger().WithError(err).Warn("script generation failed, returning idea only")
		return res, nil
	}
	res.Script = script.Text
	return res, nil
}

// HookTitleParams is the request body of the hook/title tool.
type HookTitleParams struct {
	Topic    string `json:"topic" validate:"required,notblank,max=500"`
	Platform string `json:"platform" validate:"omitempty,oneof=youtube tiktok instagram"`
	Style    string `json:"style" validate:"omitempty,max=50"`
}

type hookTitleTool struct{}

func (hookTitleTool) Kind() models.ToolKind { return models.ToolHookTitle }

func (hookTitleTool) DefaultPricing() ToolPricing {
	return ToolPricing{
		Basic:   TierPricing{Price: 1, Variations: 1},
		Premium: TierPricing{Price: 2, Variations: 1},
	}
}

func (hookTitleTool) NewParams() any { return &HookTitleParams{} }

// Run generates the opening hook and, for premium, a title in parallel. The
// hook is primary; a failed title is omitted.
func (hookTitleTool) Run(ctx context.Context, inv *Invoker, params any, opts RunOptions) (*models.GenerationResult, error) {
	p, err := paramsAs[HookTitleParams](params)
	if err != nil {
		return nil, err
	}
	extra := ""
	if p.Platform != "" {
		extra += fmt.Sprintf("\nPlatform: %s.", p.Platform)
	}
	if p.Style != "" {
		extra += fmt.Sprintf("\nStyle: %s.", p.Style)
	}
	hookPrompt := Prompt{System: videoSystem, User: fmt.Sprintf("Write a one-sentence opening hook for a video about: %s.%s", p.Topic, extra)}

	if opts.Tier != models.TierPremium {
		hook, err := inv.Generate(ctx, hookPrompt, opts.Tier)
		if err != nil {
			return nil, err
		}
		return &models.GenerationResult{Hook: hook.Text, Metadata: models.GenerationMetadata{Model: hook.Model}}, nil
	}

	var hook, title Completion
	var hookErr, titleErr error
	var g errgroup.Group
	g.Go(func() error {
		hook, hookErr = inv.Generate(ctx, hookPrompt, opts.Tier)
		return nil
	})
	g.Go(func() error {
		title, titleErr = inv.Generate(ctx, Prompt{
			System: videoSystem,
			User:   fmt.Sprintf("Write one click-worthy video title about: %s.%s\nAt most 100 characters.", p.Topic, extra),
		}, opts.Tier)
		return nil
	})
	_ = g.Wait()

	if hookErr != nil {
		return nil, hookErr
	}
	res := &models.GenerationResult{Hook: hook.Text, Metadata: models.GenerationMetadata{Model: hook.Model}}
	if titleErr != nil {
		opts.logger().WithError(titleErr).Warn("title generation failed, returning hook only")
		return res, nil
	}
	res.Title = Truncate(title.Text, 100)
	return res, nil
}
