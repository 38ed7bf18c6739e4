package generation

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/postcraft/backend/internal/models"
)

const socialSystem = "You are a social media copywriter. Reply with the requested text only, without quotes, labels or commentary."

// TweetParams is the request body of the tweet tool.
type TweetParams struct {
	Topic    string `json:"topic" validate:"required,notblank,max=500"`
	Tone     string `json:"tone" validate:"omitempty,max=50"`
	Audience string `json:"audience" validate:"omitempty,max=100"`
}

type tweetTool struct{}

func (tweetTool) Kind() models.ToolKind { return models.ToolTweet }

func (tweetTool) DefaultPricing() ToolPricing {
	return ToolPricing{
		Basic:   TierPricing{Price: 1, Variations: 1},
		Premium: TierPricing{Price: 2, Variations: 3},
	}
}

func (tweetTool) NewParams() any { return &TweetParams{} }

func (tweetTool) Run(ctx context.Context, inv *Invoker, params any, opts RunOptions) (*models.GenerationResult, error) {
	p, err := paramsAs[TweetParams](params)
	if err != nil {
		return nil, err
	}

	user := fmt.Sprintf("Write a tweet about: %s.\nKeep it under %d characters.", p.Topic, TweetLimit)
	if p.Tone != "" {
		user += fmt.Sprintf("\nTone: %s.", p.Tone)
	}
	if p.Audience != "" {
		user += fmt.Sprintf("\nAudience: %s.", p.Audience)
	}

	texts, model, err := generateVariations(ctx, inv, Prompt{System: socialSystem, User: user}, opts, func(s string) string {
		return Truncate(s, TweetLimit)
	})
	if err != nil {
		return nil, err
	}
	return withVariations(&models.GenerationResult{Metadata: models.GenerationMetadata{Model: model}}, texts), nil
}

// CaptionParams is the request body of the caption tool.
type CaptionParams struct {
	Description string `json:"description" validate:"required,notblank,max=1000"`
	Platform    string `json:"platform" validate:"omitempty,oneof=instagram facebook tiktok twitter linkedin"`
	Tone        string `json:"tone" validate:"omitempty,max=50"`
}

type captionTool struct{}

func (captionTool) Kind() models.ToolKind { return models.ToolCaption }

func (captionTool) DefaultPricing() ToolPricing {
	return ToolPricing{
		Basic:   TierPricing{Price: 1, Variations: 1},
		Premium: TierPricing{Price: 2, Variations: 3},
	}
}

func (captionTool) NewParams() any { return &CaptionParams{} }

func (captionTool) Run(ctx context.Context, inv *Invoker, params any, opts RunOptions) (*models.GenerationResult, error) {
	p, err := paramsAs[CaptionParams](params)
	if err != nil {
		return nil, err
	}
	platform := p.Platform
	if platform == "" {
		platform = "instagram"
	}
	limit := CaptionLimit(platform)

	user := fmt.Sprintf("Write a %s caption for a post showing: %s.\nEnd with a few relevant hashtags. Stay under %d characters.", platform, p.Description, limit)
	if p.Tone != "" {
		user += fmt.Sprintf("\nTone: %s.", p.Tone)
	}

	texts, model, err := generateVariations(ctx, inv, Prompt{System: socialSystem, User: user}, opts, func(s string) string {
		return Truncate(s, limit)
	})
	if err != nil {
		return nil, err
	}
	res := withVariations(&models.GenerationResult{Metadata: models.GenerationMetadata{Model: model}}, texts)
	res.Hashtags = ExtractHashtags(res.Content)
	return res, nil
}

// HashtagParams is the request body of the hashtag tool.
type HashtagParams struct {
	Topic    string `json:"topic" validate:"required,notblank,max=500"`
	Platform string `json:"platform" validate:"omitempty,oneof=instagram facebook tiktok twitter linkedin"`
	Count    int    `json:"count" validate:"omitempty,min=1,max=30"`
}

type hashtagTool struct{}

func (hashtagTool) Kind() models.ToolKind { return models.ToolHashtag }

func (hashtagTool) DefaultPricing() ToolPricing {
	return ToolPricing{
		Basic:   TierPricing{Price: 1, Variations: 1},
		Premium: TierPricing{Price: 2, Variations: 1},
	}
}

func (hashtagTool) NewParams() any { return &HashtagParams{} }

func (hashtagTool) Run(ctx context.Context, inv *Invoker, params any, opts RunOptions) (*models.GenerationResult, error) {
	p, err := paramsAs[HashtagParams](params)
	if err != nil {
		return nil, err
	}
	count := p.Count
	if count == 0 {
		count = 10
		if opts.Tier == models.TierPremium {
			count = 20
		}
	}

	user := fmt.Sprintf("List %d hashtags for: %s.\nSeparate them with spaces.", count, p.Topic)
	if p.Platform != "" {
		user += fmt.Sprintf("\nPlatform: %s.", p.Platform)
	}

	c, err := inv.Generate(ctx, Prompt{System: socialSystem, User: user}, opts.Tier)
	if err != nil {
		return nil, err
	}

	tags := ExtractHashtags(c.Text)
	if len(tags) == 0 {
		tags = Dedupe(bareTags(c.Text))
	}
	if len(tags) == 0 {
		return nil, ErrEmptyOutput
	}
	if len(tags) > count {
		tags = tags[:count]
	}
	return &models.GenerationResult{
		Content:  strings.Join(tags, " "),
		Hashtags: tags,
		Metadata: models.GenerationMetadata{Model: c.Model},
	}, nil
}

// bareTags turns a plain word list into hashtags when the model forgot the '#'.
func bareTags(s string) []string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';'
	})
	var out []string
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
				return r
			}
			return -1
		}, w)
		if w != "" {
			out = append(out, "#"+w)
		}
	}
	return out
}
