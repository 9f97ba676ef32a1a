package repository

import (
	"context"
	"encoding/json"

	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/cache"
	"github.com/redis/go-redis/v9"
)

const (
	archiveLogKey  = "report:archives"
	archiveLogSize = 50
)

// archiveRepository implements the ArchiveRepository interface
type archiveRepository struct {
	// Note: This repository doesn't use GORM DB since it operates on Redis/Cache
	rdb func() *redis.Client
}

// NewArchiveRepository creates a new archive repository instance
func NewArchiveRepository() ArchiveRepository {
	return &archiveRepository{rdb: cache.GetClient}
}

// Record pushes an entry to the front of the log and trims old entries
func (r *archiveRepository) Record(ctx context.Context, entry ArchiveEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pipe := r.rdb().TxPipeline()
	pipe.LPush(ctx, archiveLogKey, raw)
	pipe.LTrim(ctx, archiveLogKey, 0, archiveLogSize-1)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to limit entries, newest first. Unreadable entries are skipped.
func (r *archiveRepository) Recent(ctx context.Context, limit int64) ([]ArchiveEntry, error) {
	if limit <= 0 || limit > archiveLogSize {
		limit = archiveLogSize
	}

	values, err := r.rdb().LRange(ctx, archiveLogKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]ArchiveEntry, 0, len(values))
	for _, value := range values {
		var entry ArchiveEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
