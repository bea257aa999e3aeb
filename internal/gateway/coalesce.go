package gateway

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/sync/singleflight"
)

// coalesceKey identifies in-flight requests sharing the same method, URL,
// and body content.
func coalesceKey(method, url string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(url))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// coalescer deduplicates identical in-flight requests onto a single
// upstream call, the same leader/follower shape the teacher's own
// in-flight workflow-step deduplication uses, backed here by
// golang.org/x/sync's singleflight instead of a hand-rolled map+mutex.
type coalescer struct {
	group singleflight.Group
}

func newCoalescer() *coalescer {
	return &coalescer{}
}

// do either joins an in-flight call for key or becomes the leader and
// invokes fn, broadcasting the result to any followers that joined.
func (c *coalescer) do(key string, fn func() (*Response, error)) (*Response, error) {
	v, err, _ := c.group.Do(key, func() (any, error) {
		return fn()
	})
	if v == nil {
		return nil, err
	}
	return v.(*Response), err
}
