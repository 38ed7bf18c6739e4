package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/postcraft/backend/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// TierPricing is the price and variation count of a tool at one tier.
type TierPricing struct {
	Price      int64 `yaml:"price" json:"price"`
	Variations int   `yaml:"variations" json:"variations"`
}

// ToolPricing holds both tiers of a tool's pricing.
type ToolPricing struct {
	Basic   TierPricing `yaml:"basic" json:"basic"`
	Premium TierPricing `yaml:"premium" json:"premium"`
}

// For returns the pricing for tier.
func (p ToolPricing) For(tier models.Tier) TierPricing {
	if tier == models.TierPremium {
		return p.Premium
	}
	return p.Basic
}

// RunOptions are decided by the orchestrator before a tool runs.
type RunOptions struct {
	Tier       models.Tier
	Variations int
	Log        logrus.FieldLogger
}

func (o RunOptions) logger() logrus.FieldLogger {
	if o.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return o.Log
}

// Tool is one generation variant. Each variant owns its default pricing,
// its request parameters, its prompts and the shape of its result.
type Tool interface {
	Kind() models.ToolKind
	DefaultPricing() ToolPricing
	// NewParams returns a pointer to a fresh, validatable parameter struct.
	NewParams() any
	Run(ctx context.Context, inv *Invoker, params any, opts RunOptions) (*models.GenerationResult, error)
}

var registry = map[models.ToolKind]Tool{}

func register(t Tool) {
	registry[t.Kind()] = t
}

func init() {
	register(tweetTool{})
	register(captionTool{})
	register(hashtagTool{})
	register(videoIdeaTool{})
	register(hookTitleTool{})
	register(genericContentTool{})
}

// Lookup returns the tool registered for kind.
func Lookup(kind models.ToolKind) (Tool, bool) {
	t, ok := registry[kind]
	return t, ok
}

// Tools returns every registered tool ordered like models.ToolKinds.
func Tools() []Tool {
	order := make(map[models.ToolKind]int, len(models.ToolKinds))
	for i, k := range models.ToolKinds {
		order[k] = i
	}
	out := make([]Tool, 0, len(registry))
	for _, t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(a, b int) bool { return order[out[a].Kind()] < order[out[b].Kind()] })
	return out
}

var errParams = errors.New("generation: unexpected params type")

func paramsAs[T any](params any) (*T, error) {
	p, ok := params.(*T)
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: %T", errParams, params)
	}
	return p, nil
}

// generateVariations runs n independent generations of the same prompt.
// It succeeds when at least one variation produced text; otherwise it
// returns the error of the first variation.
func generateVariations(ctx context.Context, inv *Invoker, p Prompt, opts RunOptions, shape func(string) string) ([]string, string, error) {
	n := opts.Variations
	if n < 1 {
		n = 1
	}

	texts := make([]string, n)
	used := make([]string, n)
	errs := make([]error, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		prompt := p
		if n > 1 {
			prompt.User = fmt.Sprintf("%s\n\nThis is variation %d of %d; take a distinct angle from the others.", p.User, i+1, n)
		}
		g.Go(func() error {
			c, err := inv.Generate(ctx, prompt, opts.Tier)
			if err != nil {
				errs[i] = err
				return nil
			}
			text := shape(c.Text)
			if text == "" {
				errs[i] = ErrEmptyOutput
				return nil
			}
			texts[i], used[i] = text, c.Model
			return nil
		})
	}
	_ = g.Wait()

	var out []string
	var model string
	for i := range texts {
		if errs[i] != nil {
			if i > 0 {
				opts.logger().WithError(errs[i]).WithField("variation", i+1).Warn("variation failed, returning partial result")
			}
			continue
		}
		out = append(out, texts[i])
		if model == "" {
			model = used[i]
		}
	}
	if len(out) == 0 {
		return nil, "", errs[0]
	}
	return out, model, nil
}

func withVariations(res *models.GenerationResult, texts []string) *models.GenerationResult {
	res.Content = texts[0]
	if len(texts) > 1 {
		res.Variations = texts
	}
	return res
}
