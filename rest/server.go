package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohitkumar/quorum/engine"
	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/model"
	"github.com/mohitkumar/quorum/selection"
	"github.com/mohitkumar/quorum/service"
	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/stats/view"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port             int
	metadataService  *service.MetadataService
	processService   *service.ProcessService
	proposalService  *service.ProposalService
	voteService      *service.VoteService
	transitionEngine *engine.TransitionEngine
	resultService    *selection.ResultService
}

func NewServer(httpPort int, metadataService *service.MetadataService, processService *service.ProcessService,
	proposalService *service.ProposalService, voteService *service.VoteService,
	transitionEngine *engine.TransitionEngine, resultService *selection.ResultService) (*Server, error) {

	s := &Server{
		Server: http.Server{
			Addr:        fmt.Sprintf(":%d", httpPort),
			IdleTimeout: 2 * time.Second,
		},
		Port:             httpPort,
		metadataService:  metadataService,
		processService:   processService,
		proposalService:  proposalService,
		voteService:      voteService,
		transitionEngine: transitionEngine,
		resultService:    resultService,
	}

	router := mux.NewRouter()
	router.HandleFunc("/metadata/schema", s.HandleSaveSchema).Methods(http.MethodPost)
	router.HandleFunc("/metadata/schema/{name}", s.HandleGetSchema).Methods(http.MethodGet)
	router.HandleFunc("/metadata/schema/{name}", s.HandleDeleteSchema).Methods(http.MethodDelete)

	router.HandleFunc("/instance", s.HandleStartInstance).Methods(http.MethodPost)
	router.HandleFunc("/instance/{id}", s.HandleGetInstance).Methods(http.MethodGet)
	router.HandleFunc("/instance/{id}/history", s.HandleGetHistory).Methods(http.MethodGet)
	router.HandleFunc("/instance/{id}/transitions", s.HandleCheckTransitions).Methods(http.MethodGet)
	router.HandleFunc("/instance/{id}/transitions", s.HandleExecuteTransition).Methods(http.MethodPost)

	router.HandleFunc("/instance/{id}/proposal", s.HandleSubmitProposal).Methods(http.MethodPost)
	router.HandleFunc("/instance/{id}/proposal", s.HandleListProposals).Methods(http.MethodGet)
	router.HandleFunc("/instance/{id}/proposal/{proposalId}/status", s.HandleUpdateProposalStatus).Methods(http.MethodPost)

	router.HandleFunc("/instance/{id}/vote", s.HandleSubmitVote).Methods(http.MethodPost)
	router.HandleFunc("/instance/{id}/decision", s.HandleRecordDecision).Methods(http.MethodPost)

	router.HandleFunc("/instance/{id}/results", s.HandleProcessResults).Methods(http.MethodPost)
	router.HandleFunc("/instance/{id}/results", s.HandleListResults).Methods(http.MethodGet)

	router.Use(loggingMiddleware)
	router.Use(actorMiddleware)
	if err := view.Register(ochttp.DefaultServerViews...); err != nil {
		logger.Error("error registering http metric views", zap.Error(err))
	}
	s.Handler = &ochttp.Handler{Handler: router}
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server", zap.Error(err))
	}
	return err
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, message map[string]any) {
	respondWithJSON(w, http.StatusOK, message)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithDomainError maps domain error types onto http status codes.
// Validation failures carry the failed guard rules in the body.
func respondWithDomainError(w http.ResponseWriter, err error) {
	var unauthorized model.UnauthorizedError
	var notFound model.NotFoundError
	var conflict model.ConflictError
	var validation model.ValidationError
	switch {
	case errors.As(err, &unauthorized):
		respondWithError(w, http.StatusUnauthorized, unauthorized.Error())
	case errors.As(err, &notFound):
		respondWithError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &conflict):
		respondWithError(w, http.StatusConflict, conflict.Error())
	case errors.As(err, &validation):
		respondWithJSON(w, http.StatusBadRequest, map[string]any{
			"error":       validation.Message,
			"failedRules": validation.FailedRules,
		})
	default:
		logger.Error("internal error serving request", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "internal error")
	}
}
