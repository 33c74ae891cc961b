package server

import (
	"encoding/json"
	"net/http"

	"github.com/grovetools/agentwatch/errors"
	"github.com/grovetools/agentwatch/pkg/models"
)

type pathRequest struct {
	Path    string  `json:"path"`
	Content *string `json:"content,omitempty"`
	NewName string  `json:"new_name,omitempty"`
}

type moveRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type messageRequest struct {
	Message string `json:"message"`
}

// allow rejects requests whose method is not m.
func allow(w http.ResponseWriter, r *http.Request, m string) bool {
	if r.Method != m {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid request body")
	}
	return nil
}

// handleGetWorkspace returns the workspace tree.
func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	tree, err := s.workspace.Tree()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]models.FileNode{"structure": tree})
}

// handleGetFile reads a file and makes it the active file.
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		s.writeError(w, r, errors.InvalidInput("no file path provided"))
		return
	}
	file, err := s.workspace.Open(path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (s *Server) handleSaveFile(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req pathRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Path == "" || req.Content == nil {
		s.writeError(w, r, errors.InvalidInput("missing path or content"))
		return
	}
	if err := s.workspace.Save(req.Path, *req.Content); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleRenameFile(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req pathRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Path == "" || req.NewName == "" {
		s.writeError(w, r, errors.InvalidInput("missing path or new name"))
		return
	}
	newPath, err := s.workspace.Rename(req.Path, req.NewName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"old_path": req.Path,
		"new_path": newPath,
	})
}

func (s *Server) handleCreateFile(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req pathRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Path == "" {
		s.writeError(w, r, errors.InvalidInput("missing file path"))
		return
	}
	content := ""
	if req.Content != nil {
		content = *req.Content
	}
	path, err := s.workspace.CreateFile(req.Path, content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "path": path})
}

func (s *Server) handleCreateDirectory(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req pathRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Path == "" {
		s.writeError(w, r, errors.InvalidInput("missing directory path"))
		return
	}
	path, err := s.workspace.CreateDir(req.Path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "path": path})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req pathRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Path == "" {
		s.writeError(w, r, errors.InvalidInput("missing path"))
		return
	}
	if err := s.workspace.Delete(req.Path); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req moveRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Source == "" || req.Destination == "" {
		s.writeError(w, r, errors.InvalidInput("missing source or destination"))
		return
	}
	dest, err := s.workspace.Move(req.Source, req.Destination)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"source":      req.Source,
		"destination": dest,
	})
}

// handleGetHistory returns the chat history.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	history := s.store.History.Snapshot()
	if history == nil {
		history = []models.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, history)
}

// handleMessage submits a message for the agent.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req messageRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"accepted": s.Submit(req.Message)})
}

// handleGetSession returns the running task's session.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.store.Session.Snapshot())
}

// handleGetConfig returns the running configuration as JSON.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.runningConfig == nil {
		http.Error(w, "config not initialized", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, s.runningConfig)
}
