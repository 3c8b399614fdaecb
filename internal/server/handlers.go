package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/valyala/fastjson"

	"github.com/coffersTech/tierlog/internal/codec"
	"github.com/coffersTech/tierlog/internal/engine"
	"github.com/coffersTech/tierlog/internal/model"
	"github.com/coffersTech/tierlog/internal/pkg/query"
)

// Response headers describing a bounded payload.
const (
	HeaderIncluded  = "X-Log-Entries-Included"
	HeaderTotal     = "X-Log-Entries-Total"
	HeaderTruncated = "X-Log-Truncated"
)

// logsRequest holds the parsed parameters of GET /api/logs.
type logsRequest struct {
	priorities []model.Priority // empty means all tiers
	order      *model.SortOrder
	tieBreak   bool
	maxBytes   int
	codec      codec.Codec
	filter     query.Node
}

func (s *Server) parseLogsRequest(r *http.Request) (logsRequest, error) {
	q := r.URL.Query()
	req := logsRequest{maxBytes: s.maxBytes, codec: s.codec}

	for _, v := range q["priority"] {
		p, err := model.ParsePriority(v)
		if err != nil {
			return req, err
		}
		req.priorities = append(req.priorities, p)
	}

	if v := q.Get("sort"); v != "" {
		order, err := model.ParseSortOrder(v)
		if err != nil {
			return req, err
		}
		req.order = &order
	}

	switch v := q.Get("tiebreak"); v {
	case "":
	case "counter":
		req.tieBreak = true
	default:
		return req, fmt.Errorf("unknown tiebreak %q (supported: counter)", v)
	}

	if v := q.Get("max_bytes"); v != "" {
		n, err := strconv.ParseUint(v, 10, strconv.IntSize-1)
		if err != nil {
			return req, fmt.Errorf("invalid max_bytes %q: want a non-negative byte count", v)
		}
		req.maxBytes = int(n)
	}

	if v := q.Get("codec"); v != "" {
		c, err := codec.Lookup(v)
		if err != nil {
			return req, err
		}
		req.codec = c
	}

	filter, err := query.Parse(q.Get("q"))
	if err != nil {
		return req, err
	}
	req.filter = filter
	return req, nil
}

// handleLogs serves GET /api/logs: aggregate, filter, sort and serialize
// within the byte budget.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := s.parseLogsRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	l := engine.NewLog(s.store)
	if len(req.priorities) == 0 {
		l.PushAll()
	} else {
		for _, p := range req.priorities {
			l.PushTier(p)
		}
	}
	l.Filter(req.filter)

	switch {
	case req.tieBreak:
		order := model.Ascending
		if req.order != nil {
			order = *req.order
		}
		l.SortWithTieBreak(order)
	case req.order != nil:
		l.Sort(*req.order)
	}

	res := engine.NewSerializer(req.codec, engine.WithLogger(s.logger)).SerializeResult(l, req.maxBytes)

	if req.codec.Name() == codec.JSON.Name() {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Header().Set(HeaderIncluded, strconv.Itoa(res.Included))
	w.Header().Set(HeaderTotal, strconv.Itoa(res.Total))
	w.Header().Set(HeaderTruncated, strconv.FormatBool(res.Truncated))
	_, _ = io.WriteString(w, res.Payload)
}

// ingestEntry is one record of an ingest request.
type ingestEntry struct {
	priority model.Priority
	file     string
	line     uint32
	message  string
}

func parseIngestEntry(v *fastjson.Value) (ingestEntry, error) {
	var e ingestEntry
	if v.Type() != fastjson.TypeObject {
		return e, fmt.Errorf("expected object, got %s", v.Type())
	}

	p, err := model.ParsePriority(string(v.GetStringBytes("priority")))
	if err != nil {
		return e, err
	}
	e.priority = p
	e.file = string(v.GetStringBytes("file"))

	if lv := v.Get("line"); lv != nil {
		line, err := lv.Uint()
		if err != nil || line > 1<<32-1 {
			return e, fmt.Errorf("invalid line: %s", lv)
		}
		e.line = uint32(line)
	}

	e.message = string(v.GetStringBytes("message"))
	if e.message == "" {
		e.message = string(v.GetStringBytes("msg"))
	}
	return e, nil
}

// handleIngest appends a single object or an array of objects. The batch is
// validated as a whole before anything is appended.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIngestBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("Body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	p := s.parser.Get()
	defer s.parser.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	var values []*fastjson.Value
	if v.Type() == fastjson.TypeArray {
		values, _ = v.Array()
	} else {
		values = []*fastjson.Value{v}
	}

	entries := make([]ingestEntry, 0, len(values))
	for i, val := range values {
		e, err := parseIngestEntry(val)
		if err != nil {
			http.Error(w, fmt.Sprintf("entry %d: %v", i, err), http.StatusBadRequest)
			return
		}
		entries = append(entries, e)
	}

	for _, e := range entries {
		s.store.Append(e.priority, e.file, e.line, e.message)
	}

	if s.journal != nil {
		if err := s.journal.Sync(); err != nil {
			s.logger.Error(err, "journal sync failed")
		}
	}

	s.writeJSON(w, map[string]int{"accepted": len(entries)})
}

// handleStats reports per-tier occupancy.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, engine.CollectStats(s.store))
}
