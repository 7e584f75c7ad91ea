package documents

import (
	"context"
	"database/sql"
)

// ProtocolPGRepo implements ProtocolRepo using Postgres.
type ProtocolPGRepo struct {
	DB *sql.DB
}

// Create appends a download receipt. Receipts are never updated.
func (r *ProtocolPGRepo) Create(ctx context.Context, p DownloadProtocol) error {
	const query = `
INSERT INTO download_protocols (
    id, document_id, user_id, action, ip_address, user_agent, file_hash, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		p.ID,
		p.DocumentID,
		p.UserID,
		p.Action,
		p.IPAddress,
		p.UserAgent,
		p.FileHash,
		p.CreatedAt,
	)
	return err
}

// ListByDocument returns a document's receipts, newest first.
func (r *ProtocolPGRepo) ListByDocument(ctx context.Context, documentID string) ([]DownloadProtocol, error) {
	const query = `
SELECT id, document_id, user_id, action, ip_address, user_agent, file_hash, created_at
FROM download_protocols
WHERE document_id = $1
ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DownloadProtocol
	for rows.Next() {
		var p DownloadProtocol
		if err := rows.Scan(
			&p.ID,
			&p.DocumentID,
			&p.UserID,
			&p.Action,
			&p.IPAddress,
			&p.UserAgent,
			&p.FileHash,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ ProtocolRepo = (*ProtocolPGRepo)(nil)
