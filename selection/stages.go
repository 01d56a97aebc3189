package selection

import (
	"fmt"
	"sort"

	"github.com/mohitkumar/quorum/util"
)

// stageRankByVotes orders candidates by vote tally, highest first, breaking
// ties by creation time then id for a stable outcome. Marks the run as
// ranked so result links carry positional ranks.
func stageRankByVotes(ctx *Context, params map[string]any) error {
	sort.SliceStable(ctx.Candidates, func(i, j int) bool {
		ti := ctx.Votes.TallyByProposal[ctx.Candidates[i].Id]
		tj := ctx.Votes.TallyByProposal[ctx.Candidates[j].Id]
		if ti != tj {
			return ti > tj
		}
		if !ctx.Candidates[i].CreatedAt.Equal(ctx.Candidates[j].CreatedAt) {
			return ctx.Candidates[i].CreatedAt.Before(ctx.Candidates[j].CreatedAt)
		}
		return ctx.Candidates[i].Id < ctx.Candidates[j].Id
	})
	ctx.Outputs["ranked"] = true
	return nil
}

// stageThreshold keeps candidates with at least minVotes votes.
func stageThreshold(ctx *Context, params map[string]any) error {
	minVotes, ok := util.ToFloat64(params["minVotes"])
	if !ok {
		return fmt.Errorf("threshold stage requires a numeric minVotes param")
	}
	kept := ctx.Candidates[:0]
	for _, proposal := range ctx.Candidates {
		if float64(ctx.Votes.TallyByProposal[proposal.Id]) >= minVotes {
			kept = append(kept, proposal)
		}
	}
	ctx.Candidates = kept
	return nil
}

// stageTopN keeps the first count candidates in current order. Combine with
// rank_by_votes for a by-votes cut.
func stageTopN(ctx *Context, params map[string]any) error {
	count, ok := util.ToFloat64(params["count"])
	if !ok {
		return fmt.Errorf("top_n stage requires a numeric count param")
	}
	n := int(count)
	if n < 0 {
		return fmt.Errorf("top_n stage count can not be negative")
	}
	if n < len(ctx.Candidates) {
		ctx.Candidates = ctx.Candidates[:n]
	}
	return nil
}

// stageBudgetCap keeps candidates in current order while their cumulative
// cost stays within the budget. The budget comes from the stage params,
// falling back to the instance and then the schema budget; the per proposal
// cost is read from the proposal data field named by the costField param
// (default "cost"). Proposals without a numeric cost are treated as free.
func stageBudgetCap(ctx *Context, params map[string]any) error {
	budget, ok := util.ToFloat64(params["budget"])
	if !ok {
		if ctx.Instance.Data.Budget > 0 {
			budget = ctx.Instance.Data.Budget
		} else if ctx.Schema.Budget > 0 {
			budget = ctx.Schema.Budget
		} else {
			return fmt.Errorf("budget_cap stage has no budget to apply")
		}
	}
	costField, _ := params["costField"].(string)
	if costField == "" {
		costField = "cost"
	}
	var spent float64
	kept := ctx.Candidates[:0]
	for _, proposal := range ctx.Candidates {
		cost, ok := util.ToFloat64(proposal.Data[costField])
		if !ok {
			cost = 0
		}
		if spent+cost > budget {
			continue
		}
		spent += cost
		kept = append(kept, proposal)
	}
	ctx.Candidates = kept
	ctx.Outputs["budgetSpent"] = spent
	return nil
}
