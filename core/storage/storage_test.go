package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
)

func openT(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func TestOpenMissingFileDefaults(t *testing.T) {
	s := openT(t, filepath.Join(t.TempDir(), "data.json"))
	if _, ok := s.ChatID(); ok {
		t.Fatal("expected no chat id")
	}
	if s.Len() != 0 {
		t.Fatalf("len = %d, want 0", s.Len())
	}
}

func TestOpenCorruptFilePreservedAndDefaulted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := openT(t, path)
	if s.Len() != 0 {
		t.Fatalf("len = %d, want 0", s.Len())
	}
	backup, err := os.ReadFile(path + ".corrupt")
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(backup) != "{not json" {
		t.Fatalf("backup content = %q", backup)
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := openT(t, path)
	if err := s.SetChat(-100123); err != nil {
		t.Fatalf("setchat: %v", err)
	}
	photo := "AgACAgIAAxkBAAI"
	if _, err := s.Enqueue(Post{
		Text:    "Hello",
		Photo:   &photo,
		Buttons: []Button{{"Buy", "https://x.com"}, {"Visit", "https://y.com"}},
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := s.Enqueue(Post{Text: "Plain"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	// Reload and re-save without mutating; the document must be identical.
	s2 := openT(t, path)
	if err := s2.SetChat(-100123); err != nil {
		t.Fatalf("setchat: %v", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("round trip changed document:\n%s\nvs\n%s", before, after)
	}
}

func TestWireSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := openT(t, path)
	if err := s.SetChat(123); err != nil {
		t.Fatalf("setchat: %v", err)
	}
	if _, err := s.Enqueue(Post{Text: "Hello", Buttons: []Button{{"Buy", "https://x.com"}}}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc["chat_id"] != float64(123) {
		t.Fatalf("chat_id = %v", doc["chat_id"])
	}
	posts, ok := doc["posts"].([]any)
	if !ok || len(posts) != 1 {
		t.Fatalf("posts = %v", doc["posts"])
	}
	post := posts[0].(map[string]any)
	if post["text"] != "Hello" {
		t.Fatalf("text = %v", post["text"])
	}
	if post["photo"] != nil {
		t.Fatalf("photo = %v", post["photo"])
	}
	buttons, ok := post["buttons"].([]any)
	if !ok || len(buttons) != 1 {
		t.Fatalf("buttons = %v", post["buttons"])
	}
	pair := buttons[0].([]any)
	if pair[0] != "Buy" || pair[1] != "https://x.com" {
		t.Fatalf("pair = %v", pair)
	}
}

func TestFIFOOrderSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := openT(t, path)
	if err := s.SetChat(5); err != nil {
		t.Fatalf("setchat: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := s.Enqueue(Post{Text: strconv.Itoa(i)}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	s2 := openT(t, path)
	for i := 0; i < 5; i++ {
		_, post, ok := s2.DequeueHead()
		if !ok {
			t.Fatalf("dequeue %d: queue empty", i)
		}
		if post.Text != strconv.Itoa(i) {
			t.Fatalf("dequeue %d = %q", i, post.Text)
		}
	}
	if _, _, ok := s2.DequeueHead(); ok {
		t.Fatal("expected empty queue")
	}
}

func TestDequeueRequiresChat(t *testing.T) {
	s := openT(t, filepath.Join(t.TempDir(), "data.json"))
	if _, err := s.Enqueue(Post{Text: "pending"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, _, ok := s.DequeueHead(); ok {
		t.Fatal("dequeue must be a no-op while no chat is configured")
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
}

func TestConcurrentEnqueueDequeue(t *testing.T) {
	s := openT(t, filepath.Join(t.TempDir(), "data.json"))
	if err := s.SetChat(1); err != nil {
		t.Fatalf("setchat: %v", err)
	}

	const producers = 4
	const perProducer = 25

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if _, err := s.Enqueue(Post{Text: strconv.Itoa(p*perProducer + i)}); err != nil {
					t.Errorf("enqueue: %v", err)
				}
			}
		}(p)
	}

	seen := make(chan string, producers*perProducer)
	var cg sync.WaitGroup
	cg.Add(1)
	go func() {
		defer cg.Done()
		drained := 0
		for drained < producers*perProducer {
			if _, post, ok := s.DequeueHead(); ok {
				seen <- post.Text
				drained++
			}
		}
	}()

	wg.Wait()
	cg.Wait()
	close(seen)

	texts := make(map[string]int)
	for text := range seen {
		texts[text]++
	}
	if len(texts) != producers*perProducer {
		t.Fatalf("drained %d unique posts, want %d", len(texts), producers*perProducer)
	}
	for text, n := range texts {
		if n != 1 {
			t.Fatalf("post %q delivered %d times", text, n)
		}
	}
	if s.Len() != 0 {
		t.Fatalf("len = %d, want 0", s.Len())
	}
}
