package chat_test

import (
	"testing"

	"github.com/valpere/perelay/internal/chat"
)

func TestTurnText(t *testing.T) {
	turn := chat.Turn{Role: chat.RoleUser, Parts: []chat.Part{
		{Type: chat.PartText, Text: "first"},
		{Type: chat.PartFile, MediaType: "image/png", Data: []byte{1}},
		{Type: chat.PartText, Text: "second"},
	}}
	if got := turn.Text(); got != "first\nsecond" {
		t.Errorf("Text() = %q", got)
	}
}

func TestImageParts(t *testing.T) {
	turn := chat.Turn{Role: chat.RoleUser, Parts: []chat.Part{
		{Type: chat.PartText, Text: "look"},
		{Type: chat.PartFile, MediaType: "image/png", Data: []byte{1}},
		{Type: chat.PartFile, MediaType: "application/pdf", Data: []byte{2}},
		{Type: chat.PartFile, MediaType: "audio/mpeg", Data: []byte{3}},
	}}

	parts := turn.ImageParts()
	if len(parts) != 2 {
		t.Fatalf("ImageParts() = %d parts, want 2 (image and pdf)", len(parts))
	}
	if !turn.HasImages() {
		t.Error("HasImages() = false")
	}
	if chat.TextTurn(chat.RoleUser, "plain").HasImages() {
		t.Error("text turn reports images")
	}
}

func TestUserText_SkipsAssistantTurns(t *testing.T) {
	turns := []chat.Turn{
		chat.TextTurn(chat.RoleUser, "bonjour"),
		chat.TextTurn(chat.RoleAssistant, "hello, I can help"),
		chat.TextTurn(chat.RoleUser, "merci"),
	}
	got := chat.UserText(turns)
	if len(got) != 2 || got[0] != "bonjour" || got[1] != "merci" {
		t.Errorf("UserText() = %v", got)
	}
}

func TestClone_AppendDoesNotMutateOriginal(t *testing.T) {
	orig := []chat.Turn{chat.TextTurn(chat.RoleUser, "one")}
	cloned := chat.Clone(orig)
	cloned = append(cloned, chat.TextTurn(chat.RoleUser, "two"))

	if len(orig) != 1 {
		t.Errorf("original grew to %d turns", len(orig))
	}
	if len(cloned) != 2 {
		t.Errorf("clone has %d turns", len(cloned))
	}
}
