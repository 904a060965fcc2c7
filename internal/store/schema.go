package store

import (
	"context"
	"database/sql"
	"fmt"
)

const chunksTable = "pdfqa_chunks"

// ensureSchema creates the pgvector extension and the chunk table. Rows are
// scoped by generation, one generation per built index.
func ensureSchema(ctx context.Context, db *sql.DB, dim int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			generation TEXT NOT NULL,
			chunk_id TEXT NOT NULL,
			page INT NOT NULL,
			idx INT NOT NULL,
			text TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, chunksTable, dim),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_generation_idx ON %[1]s (generation)`, chunksTable),
	}

	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
