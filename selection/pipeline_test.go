package selection

import (
	"testing"
	"time"

	"github.com/mohitkumar/quorum/model"
	"github.com/stretchr/testify/require"
)

func pipelineContext() *Context {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	candidates := []*model.Proposal{
		{Id: "p1", Status: model.PROPOSAL_STATUS_SUBMITTED, Data: map[string]any{"cost": 40.0}, CreatedAt: base},
		{Id: "p2", Status: model.PROPOSAL_STATUS_SUBMITTED, Data: map[string]any{"cost": 30.0}, CreatedAt: base.Add(time.Minute)},
		{Id: "p3", Status: model.PROPOSAL_STATUS_SUBMITTED, Data: map[string]any{"cost": 50.0}, CreatedAt: base.Add(2 * time.Minute)},
		{Id: "p4", Status: model.PROPOSAL_STATUS_SUBMITTED, CreatedAt: base.Add(3 * time.Minute)},
	}
	return &Context{
		Instance:   &model.ProcessInstance{Id: "inst-1"},
		Schema:     &model.ProcessSchema{Name: "test"},
		Candidates: candidates,
		Votes: &VoteData{
			TallyByProposal: map[string]int{"p1": 3, "p2": 5, "p3": 3, "p4": 0},
			VoterCount:      6,
		},
		Variables: make(map[string]any),
		Outputs:   make(map[string]any),
	}
}

func TestPipelineStages(t *testing.T) {
	for scenario, fn := range map[string]func(
		t *testing.T, runner *Runner, ctx *Context,
	){
		"test rank by votes":      testRankByVotes,
		"test threshold":          testThreshold,
		"test top n":              testTopN,
		"test budget cap":         testBudgetCap,
		"test script stage":       testScriptStage,
		"test default pipeline":   testDefaultPipeline,
		"test unknown stage":      testUnknownStage,
		"test stage panic caught": testStagePanicCaught,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, NewRunner(), pipelineContext())
		})
	}
}

func candidateIds(ctx *Context) []string {
	ids := make([]string, 0, len(ctx.Candidates))
	for _, c := range ctx.Candidates {
		ids = append(ids, c.Id)
	}
	return ids
}

func testRankByVotes(t *testing.T, runner *Runner, ctx *Context) {
	err := runner.Execute(&model.PipelineDef{Stages: []model.StageDef{{Name: "rank_by_votes"}}}, ctx)
	require.NoError(t, err)
	// p1 and p3 tie on votes, earlier creation wins
	require.Equal(t, []string{"p2", "p1", "p3", "p4"}, candidateIds(ctx))
	require.Equal(t, true, ctx.Outputs["ranked"])
}

func testThreshold(t *testing.T, runner *Runner, ctx *Context) {
	err := runner.Execute(&model.PipelineDef{Stages: []model.StageDef{
		{Name: "threshold", Params: map[string]any{"minVotes": 3}},
	}}, ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2", "p3"}, candidateIds(ctx))
}

func testTopN(t *testing.T, runner *Runner, ctx *Context) {
	err := runner.Execute(&model.PipelineDef{Stages: []model.StageDef{
		{Name: "rank_by_votes"},
		{Name: "top_n", Params: map[string]any{"count": 2}},
	}}, ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"p2", "p1"}, candidateIds(ctx))
}

func testBudgetCap(t *testing.T, runner *Runner, ctx *Context) {
	err := runner.Execute(&model.PipelineDef{Stages: []model.StageDef{
		{Name: "rank_by_votes"},
		{Name: "budget_cap", Params: map[string]any{"budget": 75}},
	}}, ctx)
	require.NoError(t, err)
	// p2(30) + p1(40) fit, p3(50) does not, p4 is free
	require.Equal(t, []string{"p2", "p1", "p4"}, candidateIds(ctx))
	require.Equal(t, 70.0, ctx.Outputs["budgetSpent"])

	// without a stage budget the instance budget applies
	ctx2 := pipelineContext()
	ctx2.Instance.Data.Budget = 35
	err = runner.Execute(&model.PipelineDef{Stages: []model.StageDef{{Name: "budget_cap"}}}, ctx2)
	require.NoError(t, err)
	require.NotContains(t, candidateIds(ctx2), "p3")
}

func testScriptStage(t *testing.T, runner *Runner, ctx *Context) {
	expression := `
		$.selected = $.proposals.filter(function(p) { return p.votes >= 3 && p.data && p.data.cost <= 40; })
			.map(function(p) { return p.id; });
		$.variables.reviewed = true;
	`
	err := runner.Execute(&model.PipelineDef{Stages: []model.StageDef{
		{Name: "script", Params: map[string]any{"expression": expression}},
	}}, ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2"}, candidateIds(ctx))
	require.Equal(t, true, ctx.Variables["reviewed"])
}

func testDefaultPipeline(t *testing.T, runner *Runner, ctx *Context) {
	err := runner.Execute(nil, ctx)
	require.NoError(t, err)
	// ranked by votes, zero vote proposals cut
	require.Equal(t, []string{"p2", "p1", "p3"}, candidateIds(ctx))
	require.Equal(t, true, ctx.Outputs["ranked"])
}

func testUnknownStage(t *testing.T, runner *Runner, ctx *Context) {
	err := runner.Execute(&model.PipelineDef{Stages: []model.StageDef{{Name: "teleport"}}}, ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown pipeline stage")
}

func testStagePanicCaught(t *testing.T, runner *Runner, ctx *Context) {
	runner.Register("boom", func(ctx *Context, params map[string]any) error {
		panic("stage exploded")
	})
	err := runner.Execute(&model.PipelineDef{Stages: []model.StageDef{{Name: "boom"}}}, ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "stage boom")
}
