package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/model"
)

func (s *Server) HandleSaveSchema(w http.ResponseWriter, r *http.Request) {
	var schema model.ProcessSchema
	if err := json.NewDecoder(r.Body).Decode(&schema); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed schema payload")
		return
	}
	defer r.Body.Close()
	if err := s.metadataService.SaveSchema(r.Context(), &schema); err != nil {
		logger.Error("error saving schema", zap.String("name", schema.Name), zap.Error(err))
		respondWithDomainError(w, err)
		return
	}
	respondOK(w, map[string]any{"created": true, "name": schema.Name})
}

func (s *Server) HandleGetSchema(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	schema, err := s.metadataService.GetSchema(r.Context(), name)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, schema)
}

func (s *Server) HandleDeleteSchema(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := s.metadataService.DeleteSchema(r.Context(), name); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondOK(w, map[string]any{"deleted": true})
}
