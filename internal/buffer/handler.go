package buffer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/coffersTech/tierlog/internal/model"
)

// Handler is a slog.Handler that records log calls into a Store.
// Levels map onto tiers: below Info -> Debug, Info and Warn -> Info,
// Error and above -> Error.
type Handler struct {
	store  *Store
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewHandler returns a handler appending to store. Records below level are
// dropped; a nil level keeps everything.
func NewHandler(store *Store, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelDebug
	}
	return &Handler{store: store, level: level}
}

// TierForLevel maps a slog level onto a tier.
func TierForLevel(l slog.Level) model.Priority {
	switch {
	case l >= slog.LevelError:
		return model.Error
	case l >= slog.LevelInfo:
		return model.Info
	default:
		return model.Debug
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	file, line := "unknown", 0
	if r.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := fs.Next()
		if f.File != "" {
			file = filepath.Base(filepath.Dir(f.File)) + "/" + filepath.Base(f.File)
			line = f.Line
		}
	}

	var b strings.Builder
	b.WriteString(r.Message)
	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, prefix, a)
		return true
	})

	h.store.Append(TierForLevel(r.Level), file, uint32(line), b.String())
	return nil
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, key, ga)
		}
		return
	}
	fmt.Fprintf(b, " %s=%v", key, a.Value.Any())
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := strings.Join(h.groups, ".")
	h2 := *h
	h2.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(append([]string(nil), h.groups...), name)
	return &h2
}
