package counter

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	reportViewsKey   = "report:counters:views"
	reportExportsKey = "report:counters:exports"
)

// Export formats counted besides plain page views
const (
	FormatCSV     = "csv"
	FormatXLSX    = "xlsx"
	FormatArchive = "archive"
)

// HashClient is the part of the Redis client the counters need
type HashClient interface {
	HIncrBy(ctx context.Context, key, field string, incr int64) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// Counter keeps per report usage counts in Redis hashes
type Counter struct {
	rdb HashClient
}

func New(rdb HashClient) *Counter {
	return &Counter{rdb: rdb}
}

// Usage is the count snapshot of one report context
type Usage struct {
	Context  string
	Views    int64
	CSV      int64
	XLSX     int64
	Archived int64
}

// AddReportView increments the page view counter of a report context
func (c *Counter) AddReportView(ctx context.Context, reportCtx string) error {
	return c.rdb.HIncrBy(ctx, reportViewsKey, reportCtx, 1).Err()
}

// AddReportExport increments the export counter of a report context and format
func (c *Counter) AddReportExport(ctx context.Context, reportCtx, format string) error {
	return c.rdb.HIncrBy(ctx, reportExportsKey, reportCtx+":"+format, 1).Err()
}

// Usage reads the counters for contexts, in the given order. Missing or
// unreadable counts are zero.
func (c *Counter) Usage(ctx context.Context, contexts []string) ([]Usage, error) {
	views, err := c.rdb.HGetAll(ctx, reportViewsKey).Result()
	if err != nil {
		return nil, err
	}
	exports, err := c.rdb.HGetAll(ctx, reportExportsKey).Result()
	if err != nil {
		return nil, err
	}

	out := make([]Usage, 0, len(contexts))
	for _, name := range contexts {
		out = append(out, Usage{
			Context:  name,
			Views:    parseCount(views[name]),
			CSV:      parseCount(exports[name+":"+FormatCSV]),
			XLSX:     parseCount(exports[name+":"+FormatXLSX]),
			Archived: parseCount(exports[name+":"+FormatArchive]),
		})
	}
	return out, nil
}

func parseCount(raw string) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
