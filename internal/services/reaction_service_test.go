package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-message-board/internal/domain"
)

func TestReactionService_LikeDislikeUnset(t *testing.T) {
	b := newTestBoard(t)
	msgs := &MessageService{Board: b}
	svc := &ReactionService{Board: b}
	ctx := context.Background()

	id, _ := msgs.Submit(ctx, "alice", "hi")

	steps := []struct {
		name string
		call func() (int, error)
		want int
	}{
		{"like", func() (int, error) { return svc.Like(ctx, "bob", id) }, 1},
		{"dislike_switches", func() (int, error) { return svc.Dislike(ctx, "bob", id) }, -1},
		{"unset_lowercase", func() (int, error) { return svc.Unset(ctx, "bob", id, "dislike") }, 0},
	}
	for _, st := range steps {
		got, err := st.call()
		if err != nil || got != st.want {
			t.Fatalf("%s = %d, %v; want %d", st.name, got, err, st.want)
		}
	}

	if _, err := svc.Unset(ctx, "bob", id, "LIKE"); !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("unset without stance err = %v", err)
	}
	if _, err := svc.Unset(ctx, "bob", id, "MEH"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("bad kind err = %v", err)
	}
	if _, err := svc.Like(ctx, "bob", 99); !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("like missing err = %v", err)
	}
	if _, err := svc.Like(ctx, "", id); !errors.Is(err, ErrEmptyIdentity) {
		t.Fatalf("anonymous like err = %v", err)
	}
}

func TestReactionService_React(t *testing.T) {
	b := newTestBoard(t)
	msgs := &MessageService{Board: b}
	svc := &ReactionService{Board: b}
	ctx := context.Background()

	id, _ := msgs.Submit(ctx, "alice", "hi")

	got, err := svc.React(ctx, "bob", id, "smiley")
	if err != nil || got != domain.Smiley {
		t.Fatalf("React = %q, %v", got, err)
	}
	if _, err := svc.React(ctx, "bob", id, "SMILEY"); !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("repeat reaction err = %v", err)
	}
	if got, err := svc.React(ctx, "bob", id, "LAUGHING"); err != nil || got != domain.Laughing {
		t.Fatalf("second emoji = %q, %v", got, err)
	}
	if _, err := svc.React(ctx, "bob", id, "THUMBS"); !errors.Is(err, ErrInvalidEmoji) {
		t.Fatalf("unknown emoji err = %v", err)
	}
}
