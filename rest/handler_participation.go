package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/model"
)

func (s *Server) HandleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	instanceId := mux.Vars(r)["id"]
	var req model.SubmitProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed proposal payload")
		return
	}
	defer r.Body.Close()
	proposal, err := s.proposalService.SubmitProposal(r.Context(), instanceId, req)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, proposal)
}

func (s *Server) HandleListProposals(w http.ResponseWriter, r *http.Request) {
	proposals, err := s.proposalService.ListProposals(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, proposals)
}

func (s *Server) HandleUpdateProposalStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req model.ProposalStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed status payload")
		return
	}
	defer r.Body.Close()
	proposal, err := s.proposalService.UpdateProposalStatus(r.Context(), vars["id"], vars["proposalId"], req.Status)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, proposal)
}

func (s *Server) HandleSubmitVote(w http.ResponseWriter, r *http.Request) {
	instanceId := mux.Vars(r)["id"]
	var req model.SubmitVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed vote payload")
		return
	}
	defer r.Body.Close()
	vote, err := s.voteService.SubmitVote(r.Context(), instanceId, req)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, vote)
}

func (s *Server) HandleRecordDecision(w http.ResponseWriter, r *http.Request) {
	instanceId := mux.Vars(r)["id"]
	var req model.RecordDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed decision payload")
		return
	}
	defer r.Body.Close()
	decision, err := s.voteService.RecordDecision(r.Context(), instanceId, req)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, decision)
}

func (s *Server) HandleProcessResults(w http.ResponseWriter, r *http.Request) {
	instanceId := mux.Vars(r)["id"]
	result, err := s.resultService.ProcessResults(r.Context(), instanceId)
	if err != nil {
		logger.Error("error processing results", zap.String("instanceId", instanceId), zap.Error(err))
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) HandleListResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.voteService.ListResults(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, results)
}
