package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"github.com/guility/relrag/internal/ingestion"
	"github.com/guility/relrag/internal/relrag"
)

type documentDTO struct {
	ID string `json:"id"`
}

func documentToDTO(d relrag.Document) documentDTO {
	return documentDTO{ID: d.ID.String()}
}

type propertyWire struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

type ingestJSONRequest struct {
	CollectionID string                  `json:"collection_id"`
	Content      string                  `json:"content"`
	Properties   map[string]propertyWire `json:"properties"`
}

func propertiesToInput(wire map[string]propertyWire) map[string]ingestion.PropertyInput {
	out := make(map[string]ingestion.PropertyInput, len(wire))
	for key, p := range wire {
		out[key] = ingestion.PropertyInput{Value: p.Value, Type: relrag.PropertyType(p.Type)}
	}
	return out
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// handleIngestDocuments implements §6.1's POST /documents: a JSON body
// ingests exactly one Document, a multipart body ingests one Document per
// uploaded file and collects per-file errors without aborting the batch.
func (s *Server) handleIngestDocuments(w http.ResponseWriter, r *http.Request) {
	if isMultipart(r) {
		s.handleIngestMultipart(w, r)
		return
	}

	var req ingestJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "invalid JSON body"})
		return
	}
	collectionID, err := uuid.Parse(req.CollectionID)
	if err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "collection_id must be a UUID"})
		return
	}

	doc, err := s.ingestion.LoadDocument(r.Context(), subjectFrom(r), ingestion.LoadDocumentInput{
		CollectionID: collectionID,
		Content:      req.Content,
		Properties:   propertiesToInput(req.Properties),
	})
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	respondJSON(w, http.StatusCreated, documentToDTO(doc))
}

// fileIngestError is one per-file failure returned alongside any
// successfully ingested documents in a multipart batch.
type fileIngestError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

func (s *Server) handleIngestMultipart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "invalid multipart body"})
		return
	}
	collectionID, err := uuid.Parse(r.FormValue("collection_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "collection_id must be a UUID"})
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "at least one file is required"})
		return
	}

	subject := subjectFrom(r)
	var documents []documentDTO
	var errs []fileIngestError

	for _, header := range headers {
		doc, err := s.ingestUpload(r.Context(), subject, collectionID, header)
		if err != nil {
			var denied *relrag.PermissionDeniedError
			if errors.As(err, &denied) {
				respondError(w, statusFromError(err), err)
				return
			}
			errs = append(errs, fileIngestError{Filename: header.Filename, Error: err.Error()})
			continue
		}
		documents = append(documents, documentToDTO(doc))
	}

	respondJSON(w, http.StatusCreated, map[string]any{"documents": documents, "errors": errs})
}

// ingestUpload parses one multipart file and runs it through the ingestion
// pipeline, passing the parser-derived properties (source_file_name,
// page_count, ...) through unchanged.
func (s *Server) ingestUpload(ctx context.Context, subject string, collectionID uuid.UUID, header *multipart.FileHeader) (relrag.Document, error) {
	file, err := header.Open()
	if err != nil {
		return relrag.Document{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	parsed, err := s.docParser.Parse(header.Filename, file)
	if err != nil {
		return relrag.Document{}, err
	}

	props := make(map[string]ingestion.PropertyInput, len(parsed.Properties))
	for key, v := range parsed.Properties {
		props[key] = ingestion.PropertyInput{Value: v.Value, Type: v.Type}
	}

	return s.ingestion.LoadDocument(ctx, subject, ingestion.LoadDocumentInput{
		CollectionID: collectionID,
		Content:      parsed.Content,
		Properties:   props,
	})
}

// handleIngestDocumentsStream implements §6.1's SSE multipart ingest: one
// progress event per file, an error event that terminates the stream on
// fatal authorization failure, and a final done event summarizing results.
func (s *Server) handleIngestDocumentsStream(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "invalid multipart body"})
		return
	}
	collectionID, err := uuid.Parse(r.FormValue("collection_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "collection_id must be a UUID"})
		return
	}
	headers := r.MultipartForm.File["files"]

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, canFlush := w.(http.Flusher)

	subject := subjectFrom(r)
	bw := bufio.NewWriter(w)

	var documents []documentDTO
	var errs []fileIngestError
	total := len(headers)

	for i, header := range headers {
		writeSSE(bw, "progress", map[string]any{
			"total": total, "current": i + 1, "filename": header.Filename, "status": "processing",
		})
		if canFlush {
			flusher.Flush()
		}

		doc, err := s.ingestUpload(r.Context(), subject, collectionID, header)
		if err != nil {
			var denied *relrag.PermissionDeniedError
			if errors.As(err, &denied) {
				writeSSE(bw, "error", map[string]any{"error": err.Error()})
				if canFlush {
					flusher.Flush()
				}
				return
			}
			errs = append(errs, fileIngestError{Filename: header.Filename, Error: err.Error()})
			continue
		}
		documents = append(documents, documentToDTO(doc))
	}

	writeSSE(bw, "done", map[string]any{"documents": documents, "errors": errs})
	if canFlush {
		flusher.Flush()
	}
}

func writeSSE(w *bufio.Writer, event string, payload any) {
	data, _ := json.Marshal(payload)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	w.Flush()
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "id must be a UUID"})
		return
	}
	collectionID, err := uuid.Parse(r.URL.Query().Get("collection_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "collection_id query parameter must be a UUID"})
		return
	}

	allowed, err := s.permission.Check(r.Context(), subjectFrom(r), collectionID, relrag.ActionRead)
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	if !allowed {
		respondError(w, http.StatusForbidden, &relrag.PermissionDeniedError{Action: string(relrag.ActionRead)})
		return
	}

	var doc *relrag.Document
	err = s.uow.Run(r.Context(), func(ctx context.Context, uow relrag.UnitOfWork) error {
		var err error
		doc, err = uow.Documents().GetByID(ctx, id, false)
		return err
	})
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	if doc == nil {
		respondError(w, http.StatusNotFound, &relrag.NotFoundError{Resource: "Document", ID: id.String()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": doc.ID.String(), "content": doc.Content})
}
