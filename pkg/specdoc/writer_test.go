package specdoc_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mcr5fh/nova-voice/pkg/session"
	"github.com/mcr5fh/nova-voice/pkg/specdoc"
)

func TestSaveOverwritesSameSlug(t *testing.T) {
	ctx := context.Background()
	store, err := specdoc.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	w := specdoc.NewWriter(store)

	path, err := w.Save(ctx, "checkout-flow", "first draft")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != "checkout-flow.md" {
		t.Fatalf("path = %q, want checkout-flow.md", path)
	}

	if _, err := w.Save(ctx, "checkout-flow", "second draft"); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}

	rc, err := store.Read(ctx, path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "second draft" {
		t.Fatalf("content = %q, want second draft", data)
	}

	ok, err := store.Exists(ctx, "nope.md")
	if err != nil || ok {
		t.Fatalf("Exists(nope.md) = %v, %v; want false, nil", ok, err)
	}
}

func TestRender(t *testing.T) {
	sess := &session.Session{
		ID:         "abc",
		Slug:       "checkout-flow",
		StartedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Phase:      session.PhaseComplete,
		Dimensions: session.NewDimensions(),
		History: []session.Message{
			{Role: session.RoleUser, Content: "I want faster checkout"},
			{Role: session.RoleAssistant, Content: "What is slow today?"},
		},
	}
	sess.Dimensions[session.DimProblemClarity] = session.Dimension{
		Coverage: session.CoverageStrong,
		Evidence: []string{"checkout takes 9 steps"},
	}

	doc := specdoc.Render(sess)
	for _, want := range []string{
		"# Spec: checkout-flow",
		"| problem_clarity | strong |",
		"checkout takes 9 steps",
		"**user**: I want faster checkout",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("rendered doc missing %q", want)
		}
	}
}
