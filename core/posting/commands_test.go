package posting

import (
	"strings"
	"testing"

	"autopostbot/core/storage"
)

func TestQueuePreviewEmpty(t *testing.T) {
	if got := QueuePreview(nil); got != "The queue is empty." {
		t.Fatalf("preview = %q", got)
	}
}

func TestQueuePreviewIsOneIndexed(t *testing.T) {
	got := QueuePreview([]storage.Post{
		{Text: "first"},
		{Text: "second"},
	})
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("preview lines = %q", lines)
	}
	if lines[0] != "Queue (2):" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "1. first" || lines[2] != "2. second" {
		t.Fatalf("entries = %q", lines[1:])
	}
}

func TestQueuePreviewTruncatesLongText(t *testing.T) {
	long := strings.Repeat("я", 60)
	got := QueuePreview([]storage.Post{{Text: long}})
	want := "1. " + strings.Repeat("я", 40) + "..."
	if !strings.HasSuffix(got, want) {
		t.Fatalf("preview = %q", got)
	}
	if strings.Contains(QueuePreview([]storage.Post{{Text: "short"}}), "...") {
		t.Fatal("short text must not carry an ellipsis")
	}
}
