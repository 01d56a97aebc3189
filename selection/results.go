package selection

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mohitkumar/quorum/auth"
	"github.com/mohitkumar/quorum/container"
	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/model"
	"go.uber.org/zap"
)

// ResultService wraps aggregation, pipeline execution and result persistence
// into one operation. Every run leaves exactly one ProcessResult row, also on
// pipeline failure, so runs are always auditable.
type ResultService struct {
	container  *container.DIContainer
	aggregator *Aggregator
	runner     *Runner
}

func NewResultService(container *container.DIContainer) *ResultService {
	return &ResultService{
		container:  container,
		aggregator: NewAggregator(container),
		runner:     NewRunner(),
	}
}

func (s *ResultService) ProcessResults(ctx context.Context, instanceId string) (*model.ProcessResultsResponse, error) {
	if _, err := auth.FromContext(ctx); err != nil {
		return nil, err
	}
	storage := s.container.GetStorage()
	instance, err := storage.GetProcessInstance(instanceId)
	if err != nil {
		return nil, err
	}
	schema, err := s.container.GetSchemaCache().Get(instance.SchemaName)
	if err != nil {
		return nil, err
	}

	voteData, proposals, err := s.aggregator.Aggregate(instanceId)
	if err != nil {
		return nil, err
	}
	pipeline := schema.PipelineFor(instance.ResolveCurrentState())
	if pipeline == nil {
		pipeline = DefaultPipeline()
	}

	pctx := &Context{
		Instance:   instance,
		Schema:     schema,
		Candidates: proposals,
		Votes:      voteData,
		Variables:  make(map[string]any),
		Outputs:    make(map[string]any),
	}
	pipelineErr := s.runner.Execute(pipeline, pctx)

	result := &model.ProcessResult{
		Id:         uuid.New().String(),
		InstanceId: instanceId,
		VoterCount: voteData.VoterCount,
		Pipeline:   pipeline,
		CreatedAt:  time.Now(),
	}
	if pipelineErr != nil {
		result.Success = false
		result.Error = pipelineErr.Error()
		result.SelectedProposalIds = []string{}
		// the failed run is persisted for the audit trail; only a failure to
		// persist it propagates as an error
		if err := storage.SaveProcessResult(result, nil); err != nil {
			logger.Error("error persisting failed pipeline result", zap.String("instanceId", instanceId), zap.Error(err))
			return nil, err
		}
		logger.Info("selection pipeline failed", zap.String("instanceId", instanceId), zap.String("error", result.Error))
		return &model.ProcessResultsResponse{
			Success:             false,
			ResultId:            result.Id,
			SelectedProposalIds: []string{},
			Error:               result.Error,
		}, nil
	}

	ranked, _ := pctx.Outputs["ranked"].(bool)
	selectedIds := make([]string, 0, len(pctx.Candidates))
	links := make([]model.ResultProposalLink, 0, len(pctx.Candidates))
	for i, proposal := range pctx.Candidates {
		rank := 0
		if ranked {
			rank = i + 1
		}
		selectedIds = append(selectedIds, proposal.Id)
		links = append(links, model.ResultProposalLink{
			ResultId:   result.Id,
			ProposalId: proposal.Id,
			Rank:       rank,
		})
	}
	result.Success = true
	result.SelectedCount = len(selectedIds)
	result.SelectedProposalIds = selectedIds
	if err := storage.SaveProcessResult(result, links); err != nil {
		return nil, err
	}
	logger.Info("selection pipeline completed", zap.String("instanceId", instanceId), zap.Int("selected", len(selectedIds)), zap.Int("voters", voteData.VoterCount))
	return &model.ProcessResultsResponse{
		Success:             true,
		ResultId:            result.Id,
		SelectedProposalIds: selectedIds,
	}, nil
}
