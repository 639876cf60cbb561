package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/treetop/pkg/buildinfo"
	"github.com/matzehuels/treetop/pkg/cache"
	tterrors "github.com/matzehuels/treetop/pkg/errors"
	"github.com/matzehuels/treetop/pkg/graph"
	"github.com/matzehuels/treetop/pkg/jsondoc"
	"github.com/matzehuels/treetop/pkg/layout"
	"github.com/matzehuels/treetop/pkg/pipeline"
	"github.com/matzehuels/treetop/pkg/store"
)

// maxRequestBody bounds request bodies (16 MiB).
const maxRequestBody = 16 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// =============================================================================
// Layout
// =============================================================================

// layoutRequest is the body of POST /v1/layout. Exactly one of Document
// (inline JSON) and DocumentID (stored document) must be set. Pins, when
// present, is the pin map from a previous response's layout metadata;
// sending it back keeps anchor coordinates stable across relayouts of
// the measurement loop.
type layoutRequest struct {
	Document   json.RawMessage  `json:"document,omitempty"`
	DocumentID string           `json:"document_id,omitempty"`
	Options    pipeline.Options `json:"options"`
	Pins       *graph.Meta      `json:"pins,omitempty"`
}

// layoutResponse carries the positioned graph plus enough metadata for
// the client to drive the measurement loop.
type layoutResponse struct {
	GraphHash    string             `json:"graph_hash"`
	NodeCount    int                `json:"node_count"`
	VisibleCount int                `json:"visible_count"`
	Layout       *graph.Graph       `json:"layout"`
	Cache        pipeline.CacheInfo `json:"cache"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	docBytes, err := s.documentBytes(r, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := jsondoc.Parse(docBytes)
	if err != nil {
		writeError(w, tterrors.Wrap(tterrors.ErrCodeInvalidDocument, err, "parse document"))
		return
	}

	resp, err := s.computeLayout(r, doc, req.Options, req.Pins)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) computeLayout(r *http.Request, doc *jsondoc.Value, opts pipeline.Options, pins *graph.Meta) (*layoutResponse, error) {
	ctx := r.Context()
	opts.Logger = s.logger

	g, normHit, err := s.runner.NormalizeWithCacheInfo(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	if pins != nil {
		g.Meta.PinX = pins.PinX
		g.Meta.PinY = pins.PinY
	}
	laid, layoutHit, err := s.runner.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, err
	}

	graphData, err := graph.Marshal(g)
	if err != nil {
		return nil, tterrors.Wrap(tterrors.ErrCodeInternal, err, "serialize graph")
	}

	return &layoutResponse{
		GraphHash:    cache.Hash(graphData),
		NodeCount:    g.NodeCount(),
		VisibleCount: laid.NodeCount(),
		Layout:       laid,
		Cache: pipeline.CacheInfo{
			NormalizeHit: normHit,
			LayoutHit:    layoutHit,
		},
	}, nil
}

func (s *Server) documentBytes(r *http.Request, req *layoutRequest) ([]byte, error) {
	switch {
	case len(req.Document) > 0 && req.DocumentID != "":
		return nil, tterrors.New(tterrors.ErrCodeInvalidInput, "document and document_id are mutually exclusive")
	case len(req.Document) > 0:
		return req.Document, nil
	case req.DocumentID != "":
		if s.store == nil {
			return nil, tterrors.New(tterrors.ErrCodeDocumentNotFound, "no document store configured")
		}
		return store.Resolver{Store: s.store}.ResolveRef(r.Context(), req.DocumentID)
	default:
		return nil, tterrors.New(tterrors.ErrCodeInvalidInput, "document or document_id is required")
	}
}

// =============================================================================
// Documents
// =============================================================================

type saveDocumentRequest struct {
	Name     string          `json:"name"`
	Document json.RawMessage `json:"document"`
}

// documentResponse is a stored document rendered for API responses. The
// payload rides as raw JSON rather than base64 bytes.
type documentResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Hash      string          `json:"hash"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Document  json.RawMessage `json:"document,omitempty"`
}

func toDocumentResponse(d *store.Document, includeData bool) documentResponse {
	resp := documentResponse{
		ID:        d.ID,
		Name:      d.Name,
		Hash:      d.Hash,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if includeData {
		resp.Document = json.RawMessage(d.Data)
	}
	return resp
}

func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeErrorStatus(w, http.StatusNotImplemented, string(tterrors.ErrCodeUnsupported), "no document store configured")
		return
	}

	var req saveDocumentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := tterrors.ValidateDocumentName(req.Name); err != nil {
		writeError(w, err)
		return
	}
	if _, err := jsondoc.Parse(req.Document); err != nil {
		writeError(w, tterrors.Wrap(tterrors.ErrCodeInvalidDocument, err, "parse document"))
		return
	}

	doc, err := s.store.Save(r.Context(), req.Name, req.Document)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDocumentResponse(doc, false))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeErrorStatus(w, http.StatusNotImplemented, string(tterrors.ErrCodeUnsupported), "no document store configured")
		return
	}

	docs, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]documentResponse, len(docs))
	for i, d := range docs {
		resp[i] = toDocumentResponse(d, false)
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": resp})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.lookupDocument(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(doc, true))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeErrorStatus(w, http.StatusNotImplemented, string(tterrors.ErrCodeUnsupported), "no document store configured")
		return
	}
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDocumentLayout(w http.ResponseWriter, r *http.Request) {
	doc, err := s.lookupDocument(r)
	if err != nil {
		writeError(w, err)
		return
	}
	parsed, err := jsondoc.Parse(doc.Data)
	if err != nil {
		writeError(w, tterrors.Wrap(tterrors.ErrCodeInvalidDocument, err, "parse stored document"))
		return
	}

	opts := pipeline.Options{Layout: settingsFromQuery(r)}
	resp, err := s.computeLayout(r, parsed, opts, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResolveNode(w http.ResponseWriter, r *http.Request) {
	doc, err := s.lookupDocument(r)
	if err != nil {
		writeError(w, err)
		return
	}
	parsed, err := jsondoc.Parse(doc.Data)
	if err != nil {
		writeError(w, tterrors.Wrap(tterrors.ErrCodeInvalidDocument, err, "parse stored document"))
		return
	}

	nodeID := chi.URLParam(r, "nodeID")
	sub, err := jsondoc.Resolve(parsed, nodeID)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := sub.MarshalJSON()
	if err != nil {
		writeError(w, tterrors.Wrap(tterrors.ErrCodeInternal, err, "serialize subdocument"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"node_id":  nodeID,
		"document": json.RawMessage(data),
	})
}

// lookupDocument fetches the document addressed by the id URL param,
// trying the id first and the name second.
func (s *Server) lookupDocument(r *http.Request) (*store.Document, error) {
	if s.store == nil {
		return nil, tterrors.New(tterrors.ErrCodeDocumentNotFound, "no document store configured")
	}
	ref := chi.URLParam(r, "id")
	doc, err := s.store.Get(r.Context(), ref)
	if err == nil {
		return doc, nil
	}
	if !tterrors.Is(err, tterrors.ErrCodeDocumentNotFound) {
		return nil, err
	}
	return s.store.GetByName(r.Context(), ref)
}

// settingsFromQuery reads layout settings from query parameters.
// Unknown or missing values fall back to defaults via SetDefaults.
func settingsFromQuery(r *http.Request) layout.Settings {
	q := r.URL.Query()
	return layout.Settings{
		Direction: layout.Direction(q.Get("direction")),
		Align:     layout.Align(q.Get("align")),
		LinkStyle: layout.LinkStyle(q.Get("link_style")),
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		return tterrors.Wrap(tterrors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}
