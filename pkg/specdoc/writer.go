package specdoc

import (
	"context"
	"fmt"
	"strings"

	"github.com/mcr5fh/nova-voice/pkg/session"
)

// Writer saves rendered spec documents into a FileStore.
type Writer struct {
	store FileStore
}

// NewWriter creates a Writer over the given store.
func NewWriter(store FileStore) *Writer {
	return &Writer{store: store}
}

// Save writes text as <slug>.md, overwriting any previous document for
// the same slug, and returns the stored path.
func (w *Writer) Save(ctx context.Context, slug, text string) (string, error) {
	path := slug + ".md"
	wc, err := w.store.Write(ctx, path)
	if err != nil {
		return "", fmt.Errorf("specdoc: save %s: %w", path, err)
	}
	if _, err := wc.Write([]byte(text)); err != nil {
		wc.Close()
		return "", fmt.Errorf("specdoc: save %s: %w", path, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("specdoc: save %s: %w", path, err)
	}
	return path, nil
}

// Render produces the markdown specification document for a gathered
// session: title, phase, dimension table with evidence, and the
// conversation transcript.
func Render(sess *session.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Spec: %s\n\n", sess.Slug)
	fmt.Fprintf(&b, "- Session: %s\n", sess.ID)
	fmt.Fprintf(&b, "- Started: %s\n", sess.StartedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "- Phase: %s\n\n", sess.Phase)

	b.WriteString("## Readiness\n\n")
	b.WriteString("| Dimension | Coverage |\n|---|---|\n")
	for _, id := range session.DimensionIDs {
		fmt.Fprintf(&b, "| %s | %s |\n", id, sess.Dimensions[id].Coverage)
	}

	b.WriteString("\n## Findings\n\n")
	for _, id := range session.DimensionIDs {
		d := sess.Dimensions[id]
		if len(d.Evidence) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", id)
		for _, ev := range d.Evidence {
			fmt.Fprintf(&b, "- %s\n", ev)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Transcript\n\n")
	for _, m := range sess.History {
		fmt.Fprintf(&b, "**%s**: %s\n\n", m.Role, m.Content)
	}
	return b.String()
}
