package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/karnagebitcoin/share-to-nostr/internal/browser"
	"github.com/karnagebitcoin/share-to-nostr/internal/draft"
	"github.com/karnagebitcoin/share-to-nostr/internal/publish"
	"github.com/karnagebitcoin/share-to-nostr/internal/signer"
	"github.com/karnagebitcoin/share-to-nostr/internal/store"
)

// errorResponse is the uniform failure shape. ok is always present so
// clients never hang on an indeterminate reply.
type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError folds pipeline failures into determinate JSON
// replies. Bad input is the caller's fault; everything else is an
// environment condition the composer reports to the user.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *publish.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Message)
		return
	}
	var serr *signer.Error
	if errors.As(err, &serr) {
		writeError(w, http.StatusOK, serr.Message)
		return
	}
	if errors.Is(err, publish.ErrNoSignerTab) {
		writeError(w, http.StatusOK, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "tabs": len(s.hub.Tabs(r.Context()))})
}

type checkSignerRequest struct {
	PreferredTabID browser.TabID `json:"preferredTabId"`
}

func (s *Server) handleCheckSigner(w http.ResponseWriter, r *http.Request) {
	var req checkSignerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	res, err := s.coord.CheckSigner(r.Context(), req.PreferredTabID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type publishRequest struct {
	Content        string        `json:"content"`
	Relays         []string      `json:"relays"`
	PreferredTabID browser.TabID `json:"preferredTabId"`
	DraftID        string        `json:"draftId"`
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	res, err := s.coord.Publish(r.Context(), req.Content, req.Relays, req.PreferredTabID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// The draft's job is done once something was published.
	if res.OK && req.DraftID != "" {
		if d, derr := s.store.Draft(r.Context()); derr == nil && d.ID == req.DraftID {
			if cerr := s.store.ClearDraft(r.Context()); cerr != nil {
				s.log.Warn(r.Context(), "clearing draft after publish", "err", cerr)
			}
		}
	}

	writeJSON(w, http.StatusOK, res)
}

type captureRequest struct {
	Type         draft.Type    `json:"type"`
	TabID        browser.TabID `json:"tabId"`
	SelectedText string        `json:"selectedText"`
	ImageURL     string        `json:"imageUrl"`
	VideoURL     string        `json:"videoUrl"`
}

// handleCapture builds a draft from a tab's content and stores it as
// the pending draft, the way a context-menu share would.
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	tab, err := s.hub.Tab(r.Context(), req.TabID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Tab not found.")
		return
	}

	settings, err := s.store.Settings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var d draft.Draft
	switch req.Type {
	case draft.TypeSelection:
		d, err = draft.FromSelection(tab, req.SelectedText, settings.IncludeSourceURL)
	case draft.TypeImage:
		d, err = draft.FromImage(tab, req.ImageURL, settings.IncludeSourceURL)
	case draft.TypeVideo:
		d, err = draft.FromVideo(tab, req.VideoURL, settings.IncludeSourceURL)
	case draft.TypePage:
		d = draft.FromPage(tab)
	default:
		writeError(w, http.StatusBadRequest, "Unknown capture type.")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d.Relays = s.cfg.Relays
	d = draft.Normalize(d)
	if err := s.store.SaveDraft(r.Context(), d); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "draft": d})
}

func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	var d draft.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	d = draft.Normalize(d)
	if err := s.store.SaveDraft(r.Context(), d); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "draft": d})
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.Draft(r.Context())
	if errors.Is(err, store.ErrNoDraft) {
		writeError(w, http.StatusNotFound, "Draft not found.")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "draft": d})
}

func (s *Server) handleClearDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearDraft(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "settings": settings})
}

func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	var patch store.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	settings, err := s.store.PatchSettings(r.Context(), patch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "settings": settings})
}
