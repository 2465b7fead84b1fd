// Package propertyschema implements the property schema inspector use case
// (§4.K), ported from original_source's PropertySchemaResource: authorize
// read, then list the distinct (key, type, values) triples observed among a
// collection's documents, for populating a search filter UI.
package propertyschema

import (
	"context"

	"github.com/google/uuid"

	"github.com/guility/relrag/internal/relrag"
)

// KeyLabels gives a human-readable label for well-known property keys; keys
// absent from this map are labeled with themselves, matching
// PROPERTY_KEY_LABELS.get(item.key, item.key) in the resource this is
// ported from.
var KeyLabels = map[string]string{
	"title":            "Title",
	"author":           "Author",
	"created_date":     "Created date",
	"modified_date":    "Modified date",
	"page_count":       "Page count",
	"language":         "Language",
	"source_file_name": "Source file name",
	"source_file_type": "Source file type",
}

// Label returns KeyLabels[key], falling back to key itself.
func Label(key string) string {
	if label, ok := KeyLabels[key]; ok {
		return label
	}
	return key
}

// Service lists the property schema for a collection.
type Service struct {
	uow        relrag.UnitOfWorkRunner
	permission relrag.PermissionChecker
}

// New builds a Service wired to its collaborators.
func New(uow relrag.UnitOfWorkRunner, perm relrag.PermissionChecker) *Service {
	return &Service{uow: uow, permission: perm}
}

// ListSchema implements §4.K.
func (s *Service) ListSchema(ctx context.Context, subject string, collectionID uuid.UUID) ([]relrag.PropertySchemaItem, error) {
	allowed, err := s.permission.Check(ctx, subject, collectionID, relrag.ActionRead)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, &relrag.PermissionDeniedError{Action: string(relrag.ActionRead)}
	}

	var items []relrag.PropertySchemaItem
	err = s.uow.Run(ctx, func(ctx context.Context, uow relrag.UnitOfWork) error {
		var err error
		items, err = uow.Properties().ListSchemaByCollection(ctx, collectionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
