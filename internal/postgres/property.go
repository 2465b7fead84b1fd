package postgres

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/guility/relrag/internal/relrag"
)

const maxSchemaValues = 500

type propertyRepository struct {
	tx pgx.Tx
}

func (r *propertyRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]relrag.Property, error) {
	rows, err := r.tx.Query(ctx, `SELECT document_id, key, value, property_type FROM property WHERE document_id = $1`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []relrag.Property
	for rows.Next() {
		var p relrag.Property
		var ptype string
		if err := rows.Scan(&p.DocumentID, &p.Key, &p.Value, &ptype); err != nil {
			return nil, err
		}
		p.Type = relrag.PropertyType(ptype)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *propertyRepository) CreateBatch(ctx context.Context, props []relrag.Property) error {
	for _, p := range props {
		_, err := r.tx.Exec(ctx, `INSERT INTO property (document_id, key, value, property_type)
VALUES ($1, $2, $3, $4)
ON CONFLICT (document_id, key) DO UPDATE SET value = EXCLUDED.value, property_type = EXCLUDED.property_type`,
			p.DocumentID, p.Key, p.Value, string(p.Type))
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *propertyRepository) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM property WHERE document_id = $1`, documentID)
	return err
}

// ListSchemaByCollection reports the distinct (key, type) pairs observed
// among a collection's documents, with a capped sample of distinct values
// for string/bool properties, grounded on
// interfaces/api/resources/property_schema.py's schema-inspection endpoint.
func (r *propertyRepository) ListSchemaByCollection(ctx context.Context, collectionID uuid.UUID) ([]relrag.PropertySchemaItem, error) {
	rows, err := r.tx.Query(ctx, `SELECT DISTINCT pr.key, pr.property_type, pr.value
FROM property pr
JOIN document d ON d.id = pr.document_id AND d.deleted_at IS NULL
JOIN pack p ON p.document_id = d.id AND p.deleted_at IS NULL
JOIN pack_collection pc ON pc.pack_id = p.id
WHERE pc.collection_id = $1`, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type key struct {
		k string
		t relrag.PropertyType
	}
	valuesByKey := map[key]map[string]bool{}

	for rows.Next() {
		var k, ptype, value string
		if err := rows.Scan(&k, &ptype, &value); err != nil {
			return nil, err
		}
		kk := key{k, relrag.PropertyType(ptype)}
		if valuesByKey[kk] == nil {
			valuesByKey[kk] = map[string]bool{}
		}
		valuesByKey[kk][value] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var items []relrag.PropertySchemaItem
	for k, values := range valuesByKey {
		item := relrag.PropertySchemaItem{Key: k.k, Type: k.t}
		if k.t == relrag.PropertyString || k.t == relrag.PropertyBool {
			for v := range values {
				item.Values = append(item.Values, v)
			}
			sort.Strings(item.Values)
			if len(item.Values) > maxSchemaValues {
				item.Values = item.Values[:maxSchemaValues]
			}
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}
