package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fastpai-be/pkg/embedding"
	"fastpai-be/pkg/rag/corpus"
)

// ServiceDocumentModel is the service_documents row.
type ServiceDocumentModel struct {
	Id           string          `gorm:"type:text;primaryKey"`
	Municipality string          `gorm:"type:text;not null;index"`
	Content      string          `gorm:"type:text;not null"`
	Metadata     datatypes.JSON  `gorm:"type:jsonb"`
	Embedding    pgvector.Vector `gorm:"type:vector"`
}

func (ServiceDocumentModel) TableName() string {
	return "service_documents"
}

// PgVectorStore keeps the corpus in Postgres so several replicas share one index.
type PgVectorStore struct {
	db       *gorm.DB
	embedder embedding.EmbeddingProvider
}

var _ DocumentStore = (*PgVectorStore)(nil)

func NewPgVectorStore(db *gorm.DB, embedder embedding.EmbeddingProvider) *PgVectorStore {
	return &PgVectorStore{db: db, embedder: embedder}
}

// Migrate creates the vector extension and the documents table.
func (s *PgVectorStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	return s.db.WithContext(ctx).AutoMigrate(&ServiceDocumentModel{})
}

// Index makes the table mirror docs in a single transaction: rows whose ID is
// not in docs are deleted, the rest are upserted by ID.
func (s *PgVectorStore) Index(ctx context.Context, docs []corpus.ServiceDocument) error {
	if err := prepare(s.embedder, docs); err != nil {
		return err
	}

	ids := make([]string, 0, len(docs))
	rows := make([]ServiceDocumentModel, 0, len(docs))
	for _, doc := range docs {
		resp, err := s.embedder.Generate(ctx, doc.Content, embedding.TaskRetrievalDocument)
		if err != nil {
			return fmt.Errorf("embed document %s: %w", doc.ID, err)
		}
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata %s: %w", doc.ID, err)
		}
		ids = append(ids, doc.ID)
		rows = append(rows, ServiceDocumentModel{
			Id:           doc.ID,
			Municipality: corpus.CanonicalMunicipality(doc.Metadata.Municipality),
			Content:      doc.Content,
			Metadata:     datatypes.JSON(meta),
			Embedding:    pgvector.NewVector(resp.Embedding.Values),
		})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale *gorm.DB
		if len(ids) > 0 {
			stale = tx.Where("id NOT IN ?", ids)
		} else {
			stale = tx.Where("1 = 1")
		}
		if err := stale.Delete(&ServiceDocumentModel{}).Error; err != nil {
			return fmt.Errorf("delete stale documents: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
	})
}

type scoredRow struct {
	Id           string
	Municipality string
	Content      string
	Metadata     datatypes.JSON
	Distance     float64
}

func (s *PgVectorStore) Query(ctx context.Context, text, municipality string, k int) ([]ScoredDocument, error) {
	if k <= 0 {
		k = 1
	}

	resp, err := s.embedder.Generate(ctx, text, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if isZero(resp.Embedding.Values) {
		return []ScoredDocument{}, nil
	}
	queryVector := pgvector.NewVector(resp.Embedding.Values)

	var rows []scoredRow
	err = s.db.WithContext(ctx).Raw(
		`SELECT id, municipality, content, metadata, embedding <-> ? AS distance
		FROM service_documents
		WHERE municipality = ?
		ORDER BY distance ASC
		LIMIT ?`,
		queryVector, corpus.CanonicalMunicipality(municipality), k,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query service_documents: %w", err)
	}

	results := make([]ScoredDocument, 0, len(rows))
	for _, r := range rows {
		var meta corpus.Metadata
		if len(r.Metadata) > 0 {
			if err := json.Unmarshal(r.Metadata, &meta); err != nil {
				return nil, fmt.Errorf("decode metadata %s: %w", r.Id, err)
			}
		}
		meta.Municipality = r.Municipality
		results = append(results, ScoredDocument{
			Document: corpus.ServiceDocument{ID: r.Id, Content: r.Content, Metadata: meta},
			// <-> is Euclidean; squared to match the in-memory metric
			Score: r.Distance * r.Distance,
		})
	}
	return results, nil
}

func (s *PgVectorStore) Municipalities(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.WithContext(ctx).
		Model(&ServiceDocumentModel{}).
		Distinct("municipality").
		Order("municipality").
		Pluck("municipality", &out).Error
	if err != nil {
		return nil, fmt.Errorf("list municipalities: %w", err)
	}
	return out, nil
}

func (s *PgVectorStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&ServiceDocumentModel{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}
