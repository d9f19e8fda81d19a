package reporting

import (
	"context"
	"encoding/json"
	"io"
	"sync"
)

// JSON writes each sample to w as one line of JSON: the sample's Document
// plus a "timestamp" in Unix seconds.
type JSON struct {
	mtx  sync.Mutex
	enc  *json.Encoder
	opts options
}

// NewJSON returns a JSON reporter writing to w.
func NewJSON(w io.Writer, options ...Option) *JSON {
	return &JSON{enc: json.NewEncoder(w), opts: newOptions(options)}
}

type timestamped struct {
	Timestamp int64 `json:"timestamp"`
	Document
}

// Report implements Reporter.
func (j *JSON) Report(_ context.Context, s Sample) error {
	doc := timestamped{Timestamp: s.Time.Unix(), Document: NewDocument(s, j.opts.units)}
	j.mtx.Lock()
	defer j.mtx.Unlock()
	return j.enc.Encode(doc)
}

var _ Reporter = (*JSON)(nil)
