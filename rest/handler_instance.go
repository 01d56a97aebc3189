package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/model"
)

func (s *Server) HandleStartInstance(w http.ResponseWriter, r *http.Request) {
	var req model.StartInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed start request")
		return
	}
	defer r.Body.Close()
	instance, err := s.processService.StartInstance(r.Context(), req)
	if err != nil {
		logger.Error("error starting instance", zap.String("schema", req.SchemaName), zap.Error(err))
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, instance)
}

func (s *Server) HandleGetInstance(w http.ResponseWriter, r *http.Request) {
	instance, err := s.processService.GetInstance(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, instance)
}

func (s *Server) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.processService.GetHistory(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, history)
}

func (s *Server) HandleCheckTransitions(w http.ResponseWriter, r *http.Request) {
	instanceId := mux.Vars(r)["id"]
	targetStateId := r.URL.Query().Get("to")
	result, err := s.transitionEngine.CheckAvailableTransitions(r.Context(), instanceId, targetStateId)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) HandleExecuteTransition(w http.ResponseWriter, r *http.Request) {
	instanceId := mux.Vars(r)["id"]
	var req model.TransitionExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed transition request")
		return
	}
	defer r.Body.Close()
	instance, err := s.transitionEngine.ExecuteTransition(r.Context(), instanceId, req.ToStateId, req.Data)
	if err != nil {
		logger.Error("error executing transition", zap.String("instanceId", instanceId), zap.Error(err))
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, instance)
}
