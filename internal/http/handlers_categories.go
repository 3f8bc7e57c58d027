package http

import (
	"net/http"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.Categories(r.Context())
	respond(w, r, http.StatusOK, cats, err)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cats, err := s.store.AddCategory(r.Context(), req.Name)
	respond(w, r, http.StatusCreated, cats, err)
}

// handleRemoveCategory answers with the remaining set. Removing an unknown
// name is not an error.
func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.RemoveCategory(r.Context(), r.PathValue("name"))
	respond(w, r, http.StatusOK, cats, err)
}
