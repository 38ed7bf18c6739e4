package models

import "fmt"

// ToolKind identifies one of the generation tools.
type ToolKind string

const (
	ToolTweet          ToolKind = "tweet"
	ToolCaption        ToolKind = "caption"
	ToolHashtag        ToolKind = "hashtag"
	ToolVideoIdea      ToolKind = "video-idea"
	ToolHookTitle      ToolKind = "hook-title"
	ToolGenericContent ToolKind = "generic-content"
)

// ToolKinds lists every tool in display order.
var ToolKinds = []ToolKind{
	ToolTweet,
	ToolCaption,
	ToolHashtag,
	ToolVideoIdea,
	ToolHookTitle,
	ToolGenericContent,
}

// ParseToolKind resolves a route slug to a ToolKind.
func ParseToolKind(s string) (ToolKind, error) {
	for _, k := range ToolKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown tool %q", s)
}

// Tier is the quality selector affecting price and generation settings.
type Tier string

const (
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
)

// ParseTier resolves a tier name. An empty name selects basic.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case "", TierBasic:
		return TierBasic, nil
	case TierPremium:
		return TierPremium, nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

// GenerationMetadata describes how a result was produced.
type GenerationMetadata struct {
	GenerationTime int64  `json:"generationTime"` // milliseconds
	CreditsUsed    int64  `json:"creditsUsed"`
	Tier           Tier   `json:"tier"`
	Model          string `json:"model,omitempty"`
}

// GenerationResult is the shaped output of one tool invocation.
// Secondary fields are omitted when their sub-generation produced nothing.
type GenerationResult struct {
	Content    string             `json:"content,omitempty"`
	Hashtags   []string           `json:"hashtags,omitempty"`
	Idea       string             `json:"idea,omitempty"`
	Script     string             `json:"script,omitempty"`
	Hook       string             `json:"hook,omitempty"`
	Title      string             `json:"title,omitempty"`
	Variations []string           `json:"variations,omitempty"`
	Metadata   GenerationMetadata `json:"metadata"`
}
