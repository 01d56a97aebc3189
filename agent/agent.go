package agent

import (
	"sync"

	"github.com/mohitkumar/quorum/config"
	"github.com/mohitkumar/quorum/container"
	"github.com/mohitkumar/quorum/engine"
	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/rest"
	"github.com/mohitkumar/quorum/selection"
	"github.com/mohitkumar/quorum/service"
)

// Agent composes the container, services, transition engine, automatic
// transition worker and http server into one runnable unit.
type Agent struct {
	Config           config.Config
	container        *container.DIContainer
	transitionEngine *engine.TransitionEngine
	autoWorker       *engine.AutoTransitionWorker
	metadataService  *service.MetadataService
	processService   *service.ProcessService
	proposalService  *service.ProposalService
	voteService      *service.VoteService
	resultService    *selection.ResultService
	httpServer       *rest.Server
	shutdown         bool
	shutdowns        chan struct{}
	shutdownLock     sync.Mutex
	wg               sync.WaitGroup
}

func New(config config.Config) (*Agent, error) {
	a := &Agent{
		Config:    config,
		shutdowns: make(chan struct{}),
	}
	setup := []func() error{
		a.setupContainer,
		a.setupServices,
		a.setupEngine,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupContainer() error {
	a.container = container.NewDiContainer()
	a.container.Init(a.Config, &a.wg)
	return nil
}

func (a *Agent) setupServices() error {
	a.metadataService = service.NewMetadataService(a.container)
	a.processService = service.NewProcessService(a.container)
	a.proposalService = service.NewProposalService(a.container)
	a.voteService = service.NewVoteService(a.container)
	a.resultService = selection.NewResultService(a.container)
	return nil
}

func (a *Agent) setupEngine() error {
	a.transitionEngine = engine.NewTransitionEngine(a.container)
	a.autoWorker = engine.NewAutoTransitionWorker(a.container, a.transitionEngine, a.Config.AutoTickSeconds, &a.wg)
	a.autoWorker.Start()
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.metadataService, a.processService,
		a.proposalService, a.voteService, a.transitionEngine, a.resultService)
	if err != nil {
		return err
	}
	return nil
}

func (a *Agent) Start() error {
	go func() {
		if err := a.httpServer.Start(); err != nil {
			_ = a.Shutdown()
			panic(err)
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	close(a.shutdowns)

	shutdown := []func() error{
		func() error {
			a.autoWorker.Stop()
			return nil
		},
		a.httpServer.Stop,
		func() error {
			a.container.StopNotifier()
			return nil
		},
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	logger.Info("waiting for all services to shutdown...")
	a.wg.Wait()
	return nil
}
