// Package insider scores prediction-market headlines for insider-
// trading potential. It is a standalone utility with no coupling to
// the polling core: an LLM outage degrades to the keyword heuristic
// and never blocks anything.
package insider

import (
	"context"
	"fmt"
	"log"
	"strings"

	"insider-tracker/cache"
	"insider-tracker/gamma"
	"insider-tracker/llm"
)

// Score bands. The exact values only matter relative to
// FlagThreshold: strong keyword hits and LLM confirmations flag, the
// rest do not.
const (
	scoreExcluded  = 0.0
	scoreNoSignal  = 0.05
	scoreWeakMatch = 0.1
	scoreLLMYes    = 0.75
	scoreStrongHit = 0.9

	// FlagThreshold is the minimum score for a market to be flagged.
	FlagThreshold = 0.5
)

// insiderKeywords groups terms that suggest privileged-information
// events, by category.
var insiderKeywords = map[string][]string{
	"release":      {"release", "launch", "unveil", "debut", "rollout"},
	"announcement": {"announce", "announcement", "reveal", "disclose"},
	"regulatory": {"approve", "approval", "sec", "fda", "regulator", "legislation",
		"regulate", "authorize", "authorization"},
	"political": {"election", "elect", "vote", "ballot", "referendum", "senate",
		"congress", "parliament"},
	"monetary": {"interest rate", "fed", "federal reserve", "central bank",
		"monetary policy", "rate hike", "rate cut"},
	"corporate": {"merger", "acquisition", "buyout", "takeover", "ipo",
		"earnings", "quarterly report"},
	"meeting": {"meeting", "summit", "conference", "decision"},
}

// strongCategories flag without consulting the LLM.
var strongCategories = map[string]bool{
	"regulatory":   true,
	"monetary":     true,
	"corporate":    true,
	"announcement": true,
}

// excludeKeywords mark markets driven by public information or pure
// speculation: price targets, sports, weather.
var excludeKeywords = []string{
	"price", "reach", "hit", "above", "below", "bitcoin", "eth", "crypto",
	"stock price", "market cap", "weather", "temperature", "sports", "game",
	"win", "championship", "score", "team",
}

// LLMClient resolves ambiguous headlines. Satisfied by *llm.Client.
type LLMClient interface {
	ChatCompletion(ctx context.Context, messages []llm.Message) (string, error)
}

// Classifier scores headlines for insider potential.
type Classifier struct {
	llm   LLMClient
	cache *cache.ClassifierCache
}

// NewClassifier creates a classifier. llmClient may be nil, in which
// case ambiguous headlines resolve conservatively to "no flag".
func NewClassifier(llmClient LLMClient, verdictCache *cache.ClassifierCache) *Classifier {
	return &Classifier{llm: llmClient, cache: verdictCache}
}

// Score rates a headline in [0,1] for insider potential.
func (c *Classifier) Score(ctx context.Context, headline string) float64 {
	if strings.TrimSpace(headline) == "" {
		return scoreNoSignal
	}

	if score, ok := c.cache.GetVerdict(ctx, headline); ok {
		return score
	}

	score := c.classify(ctx, headline)
	if err := c.cache.SetVerdict(ctx, headline, score); err == nil {
		log.Printf("🧠 Cached classifier verdict for %q", truncate(headline, 60))
	}
	return score
}

// IsInsiderHeadline reports whether a headline crosses the flag
// threshold.
func (c *Classifier) IsInsiderHeadline(ctx context.Context, headline string) bool {
	return c.Score(ctx, headline) >= FlagThreshold
}

// FlaggedMarket is a market together with its insider score.
type FlaggedMarket struct {
	Market gamma.Market `json:"market"`
	Score  float64      `json:"score"`
}

// FlagMarkets returns the markets whose questions cross the flag
// threshold, with their scores.
func (c *Classifier) FlagMarkets(ctx context.Context, markets []gamma.Market) []FlaggedMarket {
	var flagged []FlaggedMarket
	for _, market := range markets {
		if score := c.Score(ctx, market.Question); score >= FlagThreshold {
			flagged = append(flagged, FlaggedMarket{Market: market, Score: score})
		}
	}
	return flagged
}

// FlaggedEvent is an event together with its insider score.
type FlaggedEvent struct {
	Event gamma.Event `json:"event"`
	Score float64     `json:"score"`
}

// FlagEvents returns the events whose titles cross the flag threshold.
func (c *Classifier) FlagEvents(ctx context.Context, events []gamma.Event) []FlaggedEvent {
	var flagged []FlaggedEvent
	for _, event := range events {
		if score := c.Score(ctx, event.Title); score >= FlagThreshold {
			flagged = append(flagged, FlaggedEvent{Event: event, Score: score})
		}
	}
	return flagged
}

func (c *Classifier) classify(ctx context.Context, headline string) float64 {
	lower := strings.ToLower(headline)

	for _, keyword := range excludeKeywords {
		if strings.Contains(lower, keyword) {
			return scoreExcluded
		}
	}

	matches := 0
	for category, keywords := range insiderKeywords {
		for _, keyword := range keywords {
			if strings.Contains(lower, keyword) {
				matches++
				if strongCategories[category] {
					return scoreStrongHit
				}
			}
		}
	}

	if matches == 0 {
		return scoreNoSignal
	}

	// Weak keyword hits are ambiguous; ask the LLM when available,
	// otherwise fall back to not flagging.
	return c.resolveAmbiguous(ctx, headline)
}

const classifierSystemMessage = "You are an expert analyst identifying insider trading potential in prediction markets."

func (c *Classifier) resolveAmbiguous(ctx context.Context, headline string) float64 {
	if c.llm == nil {
		return scoreWeakMatch
	}

	prompt := fmt.Sprintf(`Analyze this prediction market headline and determine if it could be influenced by insider knowledge.

Headlines with insider potential: product releases or announcements, government or regulatory decisions, political events with advance information, corporate events insiders know in advance, events where officials hold privileged information.

Headlines without insider potential: asset price predictions, sports outcomes, weather, publicly observable events.

Headline: %q

Respond with ONLY "YES" if this has insider potential, or "NO" if it does not.`, headline)

	answer, err := c.llm.ChatCompletion(ctx, []llm.Message{
		{Role: "system", Content: classifierSystemMessage},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		log.Printf("⚠️  Classifier LLM call failed, not flagging: %v", err)
		return scoreWeakMatch
	}

	if strings.EqualFold(strings.TrimSpace(answer), "yes") {
		return scoreLLMYes
	}
	return scoreWeakMatch
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
