package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const (
	BundleCreated   = "bundle.created"
	BundleUpdated   = "bundle.updated"
	BundlePublished = "bundle.published"
	BundleDeleted   = "bundle.deleted"
)

// Insert appends an audit entry inside tx. metadata is stored as jsonb.
func Insert(ctx context.Context, tx pgx.Tx, shopID string, bundleID *string, action string, metadata any) error {
	var s *string
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("audit metadata: %w", err)
		}
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO audit_logs (shop_id, bundle_id, action, metadata)
VALUES ($1, $2, $3, CAST($4 AS jsonb))
`
	_, err := tx.Exec(ctx, q, shopID, bundleID, action, s)
	return err
}
