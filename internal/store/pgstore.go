package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/katakuxiko/pdfqa/internal/model"
	_ "github.com/lib/pq"
)

// PgStore builds indexes inside PostgreSQL with the pgvector extension.
// Every Build writes a new generation of rows; the index returned only sees
// its own generation and deletes it on Close. Reset wipes the table at
// startup so indexes never outlive the process.
type PgStore struct {
	db  *sql.DB
	dim int
}

// OpenPgStore connects, creates the schema and clears leftover rows.
func OpenPgStore(ctx context.Context, conn string, dim int) (*PgStore, error) {
	db, err := sql.Open("postgres", conn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := NewPgStore(db, dim)
	if err := ensureSchema(ctx, db, dim); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.Reset(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func NewPgStore(db *sql.DB, dim int) *PgStore {
	return &PgStore{db: db, dim: dim}
}

func (s *PgStore) Name() string { return "pgvector" }

func (s *PgStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE `+chunksTable); err != nil {
		return fmt.Errorf("truncate chunks: %w", err)
	}
	return nil
}

func (s *PgStore) Close() error { return s.db.Close() }

func (s *PgStore) Build(ctx context.Context, chunks []model.Chunk, vectors [][]float32) (Index, error) {
	dim, err := checkVectors(chunks, vectors)
	if err != nil {
		return nil, err
	}
	if dim != s.dim {
		return nil, fmt.Errorf("%w: embeddings have %d, table %d", ErrDimensionMismatch, dim, s.dim)
	}

	gen := uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for i, c := range chunks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO `+chunksTable+` (generation, chunk_id, page, idx, text, embedding)
			VALUES ($1, $2, $3, $4, $5, $6::vector)
		`, gen, c.ID, c.Page, c.Index, c.Text, floatsToPgVectorLiteral(vectors[i]))
		if err != nil {
			return nil, fmt.Errorf("insert %s: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &pgIndex{db: s.db, gen: gen, dim: dim, n: len(chunks)}, nil
}

type pgIndex struct {
	db  *sql.DB
	gen string
	dim int
	n   int
}

func (p *pgIndex) Len() int { return p.n }

func (p *pgIndex) Search(ctx context.Context, vec []float32, k int) ([]model.ScoredChunk, error) {
	if len(vec) != p.dim {
		return nil, fmt.Errorf("%w: query has %d, index %d", ErrDimensionMismatch, len(vec), p.dim)
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT chunk_id, page, idx, text, embedding <-> $1::vector AS distance
		FROM `+chunksTable+`
		WHERE generation = $2
		ORDER BY distance, idx
		LIMIT $3
	`, floatsToPgVectorLiteral(vec), p.gen, topK(k, p.n))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []model.ScoredChunk
	for rows.Next() {
		var h model.ScoredChunk
		if err := rows.Scan(&h.Chunk.ID, &h.Chunk.Page, &h.Chunk.Index, &h.Chunk.Text, &h.Distance); err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

func (p *pgIndex) Close(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM `+chunksTable+` WHERE generation = $1`, p.gen)
	return err
}

func floatsToPgVectorLiteral(v []float32) string {
	buf := make([]byte, 0, len(v)*10+2)
	buf = append(buf, '[')
	for i, f := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendFloat(buf, float64(f), 'f', 6, 64)
	}
	buf = append(buf, ']')
	return string(buf)
}
