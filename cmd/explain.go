package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/pable/go-cm-stats/internal/analysis"
	"github.com/pable/go-cm-stats/internal/model"
)

const explainSystemPrompt = `You are an analyst for a racing league where each team fields three
runners per round. You are given win-rate tables grouped by the debuffers a
team fielded, and a question from the user.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- Weigh sample size: a category with few teams or races is weak evidence.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise.

Glossary:
- HasDebuffer: team fielded at least one runner listed in the classification table.
- DebufferType: Speed, Stamina or Other when all known debuffers share that tag,
  Mixed when they differ, No Debuffer when none are known.
- Speed_Count / Stamina_Count / Other_Count: runners whose role text marks them
  as debuffers, by tag. Unknown runners in a debuffer role count as Other.
- AvgWR: mean of per-round group win rates; every round weighs the same.
- PooledWR: total wins over total races; rounds with more races weigh more.
- null rate: no races were played by that group.`

var (
	explainModel  string
	explainAPIKey string
)

var explainCmd = &cobra.Command{
	Use:   "explain <file> <question>",
	Short: "AI-powered grounded reading of the win-rate tables (requires ANTHROPIC_API_KEY)",
	Args:  cobra.ExactArgs(2),
	RunE:  runExplain,
}

func init() {
	f := explainCmd.Flags()
	f.StringVar(&explainModel, "model", "claude-haiku-4-5-20251001", "Anthropic model to use")
	f.StringVar(&explainAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")
	f.String("by", "type", "dimension to group by")
	f.StringSlice("round", nil, "rounds to aggregate (default: detect from header)")
}

func runExplain(cmd *cobra.Command, args []string) error {
	dim, err := model.ParseDimension(cfg.Dimension)
	if err != nil {
		return err
	}
	res, err := analyze(args[0], dim, analysis.Options{})
	if err != nil {
		return err
	}
	contextJSON, err := buildResultContext(res)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	log.Debug().Int("bytes", len(contextJSON)).Str("model", explainModel).Msg("sending context")
	return callAnthropic(cmd.Context(), explainAPIKey, explainModel, contextJSON, args[1])
}

// rateJSON returns nil for undefined rates so they serialise as null.
func rateJSON(r model.Rate) *float64 {
	if !r.Valid {
		return nil
	}
	v := model.Round2(r.Value)
	return &v
}

// buildResultContext serialises the reconciled views into compact JSON.
func buildResultContext(res *analysis.Result) (string, error) {
	type row struct {
		Round      string   `json:"round,omitempty"`
		Category   string   `json:"category"`
		AvgWR      *float64 `json:"avg_wr"`
		Teams      int      `json:"teams"`
		TotalWins  float64  `json:"total_wins"`
		TotalRaces float64  `json:"total_races"`
		PooledWR   *float64 `json:"pooled_wr"`
	}
	conv := func(rs []model.ReconciledRow) []row {
		out := make([]row, 0, len(rs))
		for _, r := range rs {
			out = append(out, row{
				Round:      r.Round,
				Category:   r.Category.Label,
				AvgWR:      rateJSON(r.AvgWR),
				Teams:      r.Teams,
				TotalWins:  r.TotalWins,
				TotalRaces: r.TotalRaces,
				PooledWR:   rateJSON(r.PooledWR),
			})
		}
		return out
	}
	ctx := map[string]interface{}{
		"dimension": string(res.Dimension),
		"rounds":    res.Rounds,
		"by_round":  conv(res.ByRound),
		"merged":    conv(res.Merged),
	}
	if len(res.Skipped) > 0 {
		ctx["rounds_without_results"] = res.Skipped
	}
	b, err := json.Marshal(ctx)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	fmt.Fprintln(os.Stdout, "\n─── Analysis ────────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: explainSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		if strings.Contains(err.Error(), "401") || strings.Contains(err.Error(), "authentication") {
			return fmt.Errorf("API authentication failed, check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
