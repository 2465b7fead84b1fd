// Package ingestion implements the LoadDocument use case (§4.G): authorize,
// dedup-probe, chunk, embed, persist, attach to collection. Ported from
// original_source's LoadDocumentUseCase.execute, restructured into the
// staged-pipeline shape internal/rag/service/service.go uses for Ingest.
package ingestion

import (
	"context"
	"crypto/md5"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/guility/relrag/internal/relrag"
)

// PropertyInput is the caller-supplied (value, type) pair for one property
// key, matching the wire shape in §6.1's JSON ingest body.
type PropertyInput struct {
	Value string
	Type  relrag.PropertyType
}

// LoadDocumentInput bundles the inputs to Service.LoadDocument.
type LoadDocumentInput struct {
	CollectionID uuid.UUID
	Content      string
	Properties   map[string]PropertyInput
	SourceHash   *[16]byte // optional; computed from Content when nil
}

// Service runs the ingestion pipeline.
type Service struct {
	uow        relrag.UnitOfWorkRunner
	permission relrag.PermissionChecker
	chunker    relrag.Chunker
	embedder   relrag.EmbeddingProvider
}

// New builds a Service wired to its collaborators.
func New(uow relrag.UnitOfWorkRunner, perm relrag.PermissionChecker, chunker relrag.Chunker, embedder relrag.EmbeddingProvider) *Service {
	return &Service{uow: uow, permission: perm, chunker: chunker, embedder: embedder}
}

// LoadDocument runs the pipeline described in §4.G and returns the
// resulting (possibly pre-existing, on the dedup fast path) Document.
func (s *Service) LoadDocument(ctx context.Context, subject string, in LoadDocumentInput) (relrag.Document, error) {
	allowed, err := s.permission.Check(ctx, subject, in.CollectionID, relrag.ActionWrite)
	if err != nil {
		return relrag.Document{}, err
	}
	if !allowed {
		return relrag.Document{}, &relrag.PermissionDeniedError{Action: string(relrag.ActionWrite)}
	}

	hash := in.SourceHash
	if hash == nil {
		h := md5.Sum([]byte(in.Content))
		hash = &h
	}

	result, err := s.attemptLoad(ctx, in, *hash)
	if err == nil {
		return result, nil
	}
	if !isUniqueViolation(err) {
		return relrag.Document{}, err
	}

	// Lost the race: a concurrent ingest of the same source_hash committed
	// between our dedup probe and our insert. Per §5/§9, re-run the probe
	// once in a fresh transaction and take the fast path on the winner
	// rather than failing the whole request outright.
	var retried relrag.Document
	retryErr := s.uow.Run(ctx, func(ctx context.Context, uow relrag.UnitOfWork) error {
		existing, ferr := s.takeFastPathIfDuplicate(ctx, uow, *hash, in.CollectionID)
		if ferr != nil {
			return ferr
		}
		if existing == nil {
			return &relrag.UnavailableError{Cause: err}
		}
		retried = *existing
		return nil
	})
	if retryErr != nil {
		return relrag.Document{}, retryErr
	}
	return retried, nil
}

// attemptLoad runs the dedup-probe/chunk/embed/persist pipeline in one unit
// of work. A unique-violation on document.source_hash aborts this
// transaction and is returned unmapped, so LoadDocument can distinguish it
// from every other failure and retry the dedup probe in a fresh one.
func (s *Service) attemptLoad(ctx context.Context, in LoadDocumentInput, hash [16]byte) (relrag.Document, error) {
	var result relrag.Document
	err := s.uow.Run(ctx, func(ctx context.Context, uow relrag.UnitOfWork) error {
		if existing, err := s.takeFastPathIfDuplicate(ctx, uow, hash, in.CollectionID); err != nil {
			return err
		} else if existing != nil {
			result = *existing
			return nil
		}

		cfg, err := uow.Configurations().GetByCollectionID(ctx, in.CollectionID)
		if err != nil {
			return err
		}
		if cfg == nil {
			return &relrag.ValidationError{Message: "collection has no configuration"}
		}

		texts, err := s.chunker.Chunk(in.Content, *cfg)
		if err != nil {
			return err
		}
		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return &relrag.ValidationError{Message: "embedding provider returned mismatched cardinality"}
		}
		for _, v := range vectors {
			if len(v) != cfg.EmbeddingDimensions {
				return &relrag.ValidationError{Message: "embedding dimensions do not match the configuration"}
			}
		}

		doc, err := s.persist(ctx, uow, in, hash, texts, vectors)
		if err != nil {
			return err
		}
		result = doc
		return nil
	})
	if err != nil {
		return relrag.Document{}, err
	}
	return result, nil
}

// takeFastPathIfDuplicate implements the dedup probe of §4.G step 4: if a
// live Document with this hash already exists, attach its first Pack to the
// target collection (idempotent) and return it without chunking or
// embedding.
func (s *Service) takeFastPathIfDuplicate(ctx context.Context, uow relrag.UnitOfWork, hash [16]byte, collectionID uuid.UUID) (*relrag.Document, error) {
	existing, err := uow.Documents().GetBySourceHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if existing == nil || existing.IsDeleted() {
		return nil, nil
	}

	page, err := uow.Packs().List(ctx, &existing.ID, nil, "", 1, false)
	if err != nil {
		return nil, err
	}
	if len(page.Items) > 0 {
		if err := uow.Packs().AddToCollection(ctx, page.Items[0].ID, collectionID); err != nil {
			return nil, err
		}
	}
	return existing, nil
}

// persist creates the Document, Pack, Chunks, and Properties, and attaches
// the new Pack to the target collection, all within the caller's UoW.
func (s *Service) persist(ctx context.Context, uow relrag.UnitOfWork, in LoadDocumentInput, hash [16]byte, texts []string, vectors [][]float32) (relrag.Document, error) {
	now := time.Now().UTC()

	doc := relrag.Document{
		ID:         uuid.New(),
		Content:    in.Content,
		SourceHash: hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	doc, err := uow.Documents().Create(ctx, doc)
	if err != nil {
		return relrag.Document{}, err
	}

	pack := relrag.Pack{ID: uuid.New(), DocumentID: doc.ID, CreatedAt: now, UpdatedAt: now}
	pack, err = uow.Packs().Create(ctx, pack)
	if err != nil {
		return relrag.Document{}, err
	}

	chunks := make([]relrag.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = relrag.Chunk{
			ID:        uuid.New(),
			PackID:    pack.ID,
			Content:   text,
			Embedding: vectors[i],
			Position:  i,
		}
	}
	if len(chunks) > 0 {
		if _, err := uow.Chunks().CreateBatch(ctx, chunks); err != nil {
			return relrag.Document{}, err
		}
	}

	if len(in.Properties) > 0 {
		props := make([]relrag.Property, 0, len(in.Properties))
		for key, val := range in.Properties {
			props = append(props, relrag.Property{DocumentID: doc.ID, Key: key, Value: val.Value, Type: val.Type})
		}
		if err := uow.Properties().CreateBatch(ctx, props); err != nil {
			return relrag.Document{}, err
		}
	}

	if err := uow.Packs().AddToCollection(ctx, pack.ID, in.CollectionID); err != nil {
		return relrag.Document{}, err
	}

	return doc, nil
}

// isUniqueViolation reports whether err is a partial-unique-index violation
// on document.source_hash (Postgres code 23505), the signal that a
// concurrent ingest of the same content won the race.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return asPgError(err, &pgErr) && pgErr.Code == "23505"
}

func asPgError(err error, target **pgconn.PgError) bool {
	for err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok {
			*target = pgErr
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
