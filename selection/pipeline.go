package selection

import (
	"fmt"

	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/model"
	"go.uber.org/zap"
)

// Context is the mutable state threaded through the pipeline stages. Stages
// narrow Candidates and communicate through Variables and Outputs.
type Context struct {
	Instance   *model.ProcessInstance
	Schema     *model.ProcessSchema
	Candidates []*model.Proposal
	Votes      *VoteData
	Variables  map[string]any
	Outputs    map[string]any
}

// StageFunc is one named selection stage. It may narrow ctx.Candidates and
// read or write ctx.Variables and ctx.Outputs.
type StageFunc func(ctx *Context, params map[string]any) error

// Runner executes an ordered list of named stages over the aggregated vote
// data.
type Runner struct {
	stages map[string]StageFunc
}

func NewRunner() *Runner {
	r := &Runner{stages: make(map[string]StageFunc)}
	r.Register("rank_by_votes", stageRankByVotes)
	r.Register("threshold", stageThreshold)
	r.Register("top_n", stageTopN)
	r.Register("budget_cap", stageBudgetCap)
	r.Register("script", stageScript)
	return r
}

func (r *Runner) Register(name string, stage StageFunc) {
	r.stages[name] = stage
}

// DefaultPipeline is used when a schema declares no pipeline: proposals are
// ordered by vote tally and every proposal with at least one vote is
// selected.
func DefaultPipeline() *model.PipelineDef {
	return &model.PipelineDef{
		Stages: []model.StageDef{
			{Name: "rank_by_votes"},
			{Name: "threshold", Params: map[string]any{"minVotes": 1}},
		},
	}
}

func (r *Runner) Execute(pipeline *model.PipelineDef, ctx *Context) error {
	if pipeline == nil {
		pipeline = DefaultPipeline()
	}
	for _, stageDef := range pipeline.Stages {
		stage, ok := r.stages[stageDef.Name]
		if !ok {
			return fmt.Errorf("unknown pipeline stage %s", stageDef.Name)
		}
		if err := r.executeSafe(stage, stageDef, ctx); err != nil {
			return fmt.Errorf("stage %s: %w", stageDef.Name, err)
		}
		logger.Debug("pipeline stage executed", zap.String("stage", stageDef.Name), zap.Int("candidates", len(ctx.Candidates)))
	}
	return nil
}

func (r *Runner) executeSafe(stage StageFunc, stageDef model.StageDef, ctx *Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("stage panicked: %v", p)
		}
	}()
	return stage(ctx, stageDef.Params)
}
