package speech_test

import (
	"reflect"
	"testing"

	"github.com/mcr5fh/nova-voice/pkg/speech"
)

func TestSplitSentences(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{
			in:   "Hello there. How are you today? Great!",
			want: []string{"Hello there.", "How are you today?", "Great!"},
		},
		{
			// No terminator: the whole text is one segment.
			in:   "no terminator here at all",
			want: []string{"no terminator here at all"},
		},
		{
			// Unterminated tail is kept.
			in:   "First sentence. trailing fragment",
			want: []string{"First sentence.", "trailing fragment"},
		},
		{
			in:   "你好。今天怎么样？",
			want: []string{"你好。", "今天怎么样？"},
		},
		{
			in:   "line one\nline two",
			want: []string{"line one", "line two"},
		},
		{
			in:   "",
			want: nil,
		},
		{
			// An ellipsis is a single boundary run, and whitespace-only
			// tails are discarded.
			in:   "wait... okay",
			want: []string{"wait...", "okay"},
		},
	}
	for _, tc := range cases {
		got := speech.SplitSentences(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SplitSentences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
