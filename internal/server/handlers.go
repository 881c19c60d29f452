package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/preflight/internal/checker"
	"github.com/jonathan/preflight/internal/db"
	"github.com/jonathan/preflight/internal/dirty"
	"github.com/jonathan/preflight/internal/server/middleware"
	"github.com/jonathan/preflight/internal/settings"
	"github.com/jonathan/preflight/internal/types"
)

// Response statuses.
const (
	StatusOK      = "ok"
	StatusMissing = "missing"
	StatusFailed  = "failed"
)

// SettingInput is one setting in a save request.
type SettingInput struct {
	Alias string `json:"alias" validate:"required"`
	Label string `json:"label" validate:"required"`
	Tab   string `json:"tab" validate:"required"`
	Value string `json:"value"`
}

// SaveSettingsRequest is the body of POST /settings.
type SaveSettingsRequest struct {
	Culture  string         `json:"culture" validate:"required"`
	Settings []SettingInput `json:"settings" validate:"required,dive"`
}

// DirtyRequest is the body of POST /check/{id}/{culture}/dirty.
type DirtyRequest struct {
	SessionID  string                 `json:"sessionId,omitempty" validate:"omitempty,max=128"`
	Properties []checker.PartialField `json:"properties" validate:"dive"`
}

// BeforeSaveRequest is the optional body of POST /documents/{id}/before-save.
// Groups from an authenticated token win over UserGroups.
type BeforeSaveRequest struct {
	UserGroups []string `json:"userGroups,omitempty"`
}

// handleGetSettings returns the resolved settings of a culture. A culture
// without settings answers with the message-only set.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	culture := r.PathValue("culture")
	fallback := parseBoolParam(r, "fallback", s.allowFallback)

	set, err := s.settings.Resolve(r.Context(), culture, fallback)
	switch {
	case errors.Is(err, settings.ErrNotFound):
		s.jsonResponse(w, http.StatusOK, map[string]any{"status": StatusMissing, "data": set})
	case err != nil:
		s.errorFor(w, err)
	default:
		s.jsonResponse(w, http.StatusOK, map[string]any{"status": StatusOK, "data": set})
	}
}

func (s *Server) handleGetSettingValue(w http.ResponseWriter, r *http.Request) {
	value, err := s.settings.Value(r.Context(), r.PathValue("culture"), r.PathValue("alias"))
	if err != nil {
		s.errorFor(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": StatusOK, "value": value})
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req SaveSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorFor(w, validationError(err))
		return
	}

	set := &types.SettingsSet{Culture: req.Culture, Settings: make([]types.Setting, len(req.Settings))}
	for i, in := range req.Settings {
		set.Settings[i] = types.Setting{Alias: in.Alias, Label: in.Label, Tab: in.Tab, Value: in.Value}
	}

	if !s.settings.Save(r.Context(), set) {
		s.jsonResponse(w, http.StatusInternalServerError, map[string]any{"status": StatusFailed, "data": false})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"status": StatusOK, "data": true})
}

// handleGetProperties returns the editor kinds tested for a content type,
// or null when the content type is not tested at all.
func (s *Server) handleGetProperties(w http.ResponseWriter, r *http.Request) {
	kinds, ok, err := s.settings.GetTestableFieldKinds(r.Context(), r.PathValue("culture"), r.PathValue("alias"))
	if err != nil {
		s.errorFor(w, err)
		return
	}
	if !ok {
		kinds = nil
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"status": StatusOK, "properties": kinds})
}

func (s *Server) handleCheckDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := s.documentID(w, r)
	if !ok {
		return
	}
	culture := r.PathValue("culture")
	fromSave := parseBoolParam(r, "fromSave", false)

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.checker.CheckDocument(r.Context(), id, culture, fromSave, checker.MultiSink(sse, s.hub))
	if err != nil {
		s.logger.Warn("check run failed", zap.Int("doc_id", id), zap.String("culture", culture), zap.Error(err))
		sse.WriteError(err.Error())
		return
	}
	s.recordRun(r.Context(), id, culture, db.ModeFull, fromSave, result)
}

// handleCheckDirty checks the posted field values. With a session id the
// values are first reduced to the ones that changed since the session's
// previous request.
func (s *Server) handleCheckDirty(w http.ResponseWriter, r *http.Request) {
	id, ok := s.documentID(w, r)
	if !ok {
		return
	}
	culture := r.PathValue("culture")

	var req DirtyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorFor(w, validationError(err))
		return
	}

	fields := req.Properties
	if req.SessionID != "" && s.sessions != nil {
		fields = s.reduceDirty(req.SessionID, req.Properties)
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.checker.CheckPartial(r.Context(), id, culture, fields, checker.MultiSink(sse, s.hub))
	if err != nil {
		s.logger.Warn("partial check run failed", zap.Int("doc_id", id), zap.String("culture", culture), zap.Error(err))
		sse.WriteError(err.Error())
		return
	}
	s.recordRun(r.Context(), id, culture, db.ModePartial, false, result)
}

func (s *Server) reduceDirty(sessionID string, props []checker.PartialField) []checker.PartialField {
	current := make([]dirty.Field, len(props))
	byLabel := make(map[string]checker.PartialField, len(props))
	for i, p := range props {
		current[i] = dirty.Field{Label: p.Label, Value: p.Value}
		byLabel[p.Label] = p
	}

	changed := s.sessions.Observe(sessionID, current)
	fields := make([]checker.PartialField, 0, len(changed))
	for _, f := range changed {
		fields = append(fields, byLabel[f.Label])
	}
	return fields
}

func (s *Server) handleBeforeSave(w http.ResponseWriter, r *http.Request) {
	id, ok := s.documentID(w, r)
	if !ok {
		return
	}

	var req BeforeSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	decision, err := s.checker.BeforeSave(r.Context(), id, userGroups(r, req.UserGroups), s.hub)
	if err != nil {
		s.errorFor(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, decision)
}

// handlePanel reports whether the editor panel is shown. Cultures and
// editor kinds default to the document's own.
func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	id, ok := s.documentID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	cultures := query["culture"]
	editors := types.ParseEditorKinds(types.JoinCSV(query["editor"]))
	if (len(cultures) == 0 || len(editors) == 0) && s.content != nil {
		doc, err := s.content.Document(r.Context(), id)
		if err != nil {
			s.errorFor(w, err)
			return
		}
		if len(cultures) == 0 {
			cultures = doc.Cultures()
		}
		if len(editors) == 0 {
			editors = doc.Editors()
		}
	}

	visible, err := s.checker.PanelVisible(r.Context(), cultures, userGroups(r, query["group"]), editors)
	if err != nil {
		s.errorFor(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]bool{"visible": visible})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	id, ok := s.documentID(w, r)
	if !ok {
		return
	}
	if s.runs == nil {
		s.errorResponse(w, http.StatusNotFound, "run history is not recorded")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			s.errorFor(w, &ErrValidation{Field: "limit", Message: "must be between 1 and 500"})
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(r.Context(), id, limit)
	if err != nil {
		s.errorFor(w, err)
		return
	}
	if runs == nil {
		runs = []db.CheckRun{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) recordRun(ctx context.Context, docID int, culture, mode string, fromSave bool, result checker.RunResult) {
	if s.runs == nil || result == nil {
		return
	}
	runID, err := uuid.Parse(result.ID())
	if err != nil {
		runID = uuid.New()
	}
	run := db.CheckRun{
		ID:         runID,
		DocumentID: docID,
		Culture:    culture,
		Mode:       mode,
		FromSave:   fromSave,
		Failed:     result.Failed(),
		Message:    result.Message(),
	}
	if err := s.runs.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn("failed to record check run", zap.String("run_id", runID.String()), zap.Error(err))
	}
}

func (s *Server) documentID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 0 {
		s.errorFor(w, &ErrValidation{Field: "id", Message: "must be a document id"})
		return 0, false
	}
	return id, true
}

// userGroups returns the caller's groups from its token, or fallback when
// the request is not authenticated.
func userGroups(r *http.Request, fallback []string) []string {
	if identity, ok := middleware.GetIdentity(r); ok {
		return identity.Groups
	}
	return fallback
}

func parseBoolParam(r *http.Request, name string, def bool) bool {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	return types.ParseBool(v)
}
