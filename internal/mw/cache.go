package mw

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// Response headers set by SnapshotCache.
const (
	HeaderRevision = "X-Snapshot-Revision"
	HeaderCache    = "X-Cache"
)

// snapshotEntry is a rendered response for one revision and URL.
type snapshotEntry struct {
	status      int
	contentType string
	extra       http.Header
	body        []byte
}

// recorder tees the body into a buffer while it is written to the client.
type recorder struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (r *recorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *recorder) WriteString(s string) (int, error) {
	r.buf.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}

// cacheKey ignores the order of query parameters so "?a=1&b=2" and
// "?b=2&a=1" share an entry.
func cacheKey(rev string, r *http.Request) string {
	return rev + " " + r.URL.Path + "?" + r.URL.Query().Encode()
}

// SnapshotCache caches successful GET responses per snapshot revision. A new
// revision changes every key, so stale entries are never served and simply
// age out of the store.
func SnapshotCache(store *cache.Cache, ttl time.Duration, revision func() uint64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		rev := strconv.FormatUint(revision(), 10)
		key := cacheKey(rev, c.Request)
		if v, ok := store.Get(key); ok {
			e := v.(snapshotEntry)
			h := c.Writer.Header()
			for k, vals := range e.extra {
				h[k] = vals
			}
			h.Set(HeaderRevision, rev)
			h.Set(HeaderCache, "HIT")
			c.Data(e.status, e.contentType, e.body)
			c.Abort()
			return
		}

		c.Header(HeaderRevision, rev)
		c.Header(HeaderCache, "MISS")
		rec := &recorder{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return
		}
		extra := http.Header{}
		if cd := rec.Header().Get("Content-Disposition"); cd != "" {
			extra.Set("Content-Disposition", cd)
		}
		store.Set(key, snapshotEntry{
			status:      status,
			contentType: rec.Header().Get("Content-Type"),
			extra:       extra,
			body:        rec.buf.Bytes(),
		}, ttl)
	}
}
