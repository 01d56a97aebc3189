package engine

import (
	"context"
	"sync"

	"github.com/mohitkumar/quorum/auth"
	"github.com/mohitkumar/quorum/container"
	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/model"
	"github.com/mohitkumar/quorum/util"
	"go.uber.org/zap"
)

// AutoTransitionWorker periodically scans active instances and executes
// automatic transitions whose guards pass, acting as the system profile.
type AutoTransitionWorker struct {
	container *container.DIContainer
	engine    *TransitionEngine
	tick      *util.TickWorker
}

func NewAutoTransitionWorker(container *container.DIContainer, engine *TransitionEngine, intervalSeconds int, wg *sync.WaitGroup) *AutoTransitionWorker {
	w := &AutoTransitionWorker{
		container: container,
		engine:    engine,
	}
	w.tick = util.NewTickWorker("auto-transition", intervalSeconds, w.runOnce, wg)
	return w
}

func (w *AutoTransitionWorker) Start() {
	w.tick.Start()
}

func (w *AutoTransitionWorker) Stop() {
	w.tick.Stop()
}

func (w *AutoTransitionWorker) runOnce() {
	ids, err := w.container.GetStorage().ListActiveInstanceIds()
	if err != nil {
		logger.Error("error listing active instances", zap.Error(err))
		return
	}
	ctx := auth.WithActor(context.Background(), auth.SystemActor)
	for _, id := range ids {
		w.advance(ctx, id)
	}
}

// advance executes at most one automatic transition for the instance per
// tick; chained automatic states settle over subsequent ticks.
func (w *AutoTransitionWorker) advance(ctx context.Context, instanceId string) {
	instance, err := w.container.GetStorage().GetProcessInstance(instanceId)
	if err != nil {
		logger.Error("error loading instance for automatic transition", zap.String("instanceId", instanceId), zap.Error(err))
		return
	}
	schema, err := w.container.GetSchemaCache().Get(instance.SchemaName)
	if err != nil {
		logger.Error("error loading schema for automatic transition", zap.String("instanceId", instanceId), zap.Error(err))
		return
	}
	for _, tr := range schema.TransitionsFrom(instance.ResolveCurrentState()) {
		if !tr.Rules.IsAutomatic() {
			continue
		}
		_, err := w.engine.ExecuteTransition(ctx, instanceId, tr.To, nil)
		switch err.(type) {
		case nil:
			logger.Info("automatic transition executed", zap.String("instanceId", instanceId), zap.String("to", tr.To))
			return
		case model.ValidationError:
			// guards not satisfied yet
		case model.ConflictError:
			// a concurrent caller moved the instance, retry next tick
			return
		default:
			logger.Error("error executing automatic transition", zap.String("instanceId", instanceId), zap.String("to", tr.To), zap.Error(err))
			return
		}
	}
}
