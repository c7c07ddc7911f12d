package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tbourn/go-message-board/internal/domain"
)

func TestMessageService_SubmitAndRetrieve(t *testing.T) {
	svc := &MessageService{Board: newTestBoard(t)}
	ctx := context.Background()

	id, err := svc.Submit(ctx, "alice", "  hi  ")
	if err != nil || id != 0 {
		t.Fatalf("Submit = %d, %v", id, err)
	}
	if _, err := svc.Submit(ctx, "alice", "hi"); !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("duplicate Submit err = %v", err)
	}

	page, err := svc.Retrieve(ctx, "alice", 1, 20)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Text != "hi" || page.Items[0].Author != "alice" {
		t.Fatalf("page = %+v", page)
	}
}

func TestMessageService_Validation(t *testing.T) {
	svc := &MessageService{Board: newTestBoard(t)}
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"empty_author", func() error { _, err := svc.Submit(ctx, " ", "x"); return err }, ErrEmptyIdentity},
		{"empty_text", func() error { _, err := svc.Submit(ctx, "alice", "\t"); return err }, ErrEmptyText},
		{"too_long", func() error { _, err := svc.Submit(ctx, "alice", strings.Repeat("a", 51)); return err }, ErrTooLong},
		{"edit_empty", func() error { return svc.Edit(ctx, "alice", 0, "") }, ErrEmptyText},
		{"delete_anon", func() error { return svc.Delete(ctx, "", 0) }, ErrEmptyIdentity},
		{"retrieve_anon", func() error { _, err := svc.Retrieve(ctx, "", 1, 10); return err }, ErrEmptyIdentity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v; want %v", err, tt.want)
			}
		})
	}
}

func TestMessageService_EditAndDelete(t *testing.T) {
	svc := &MessageService{Board: newTestBoard(t)}
	ctx := context.Background()

	id, _ := svc.Submit(ctx, "alice", "one")
	if _, err := svc.Submit(ctx, "alice", "two"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := svc.Edit(ctx, "alice", id, "two"); !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("colliding edit err = %v", err)
	}
	if err := svc.Edit(ctx, "bob", id, "three"); !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("foreign edit err = %v", err)
	}
	if err := svc.Edit(ctx, "alice", id, "three"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if err := svc.Delete(ctx, "bob", id); !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("foreign delete err = %v", err)
	}
	if err := svc.Delete(ctx, "alice", id); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	page, _ := svc.Retrieve(ctx, "alice", 1, 10)
	if page.Total != 1 || page.Items[0].Text != "two" {
		t.Fatalf("after delete = %+v", page)
	}
}

func TestMessageService_SearchPaginates(t *testing.T) {
	svc := &MessageService{Board: newTestBoard(t)}
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := svc.Submit(ctx, fmt.Sprintf("user%d", i), "Hello board"); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	if _, err := svc.Submit(ctx, "zed", "unrelated"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	page, err := svc.Search(ctx, "HELLO", 2, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Total != 5 || len(page.Items) != 2 {
		t.Fatalf("page = %+v", page)
	}
	if page.Items[0].Author != "user2" || page.Items[1].Author != "user3" {
		t.Fatalf("order = %s, %s", page.Items[0].Author, page.Items[1].Author)
	}

	all, _ := svc.Search(ctx, "", 1, 100)
	if all.Total != 6 {
		t.Fatalf("empty query total = %d", all.Total)
	}
}

func TestMessageService_BannedAuthor(t *testing.T) {
	b := newTestBoard(t)
	msgs := &MessageService{Board: b}
	reports := &ReportService{Board: b}
	ctx := context.Background()

	for i := 0; i <= domain.BanThreshold; i++ {
		if err := reports.Report(ctx, fmt.Sprintf("r%d", i), "carl"); err != nil {
			t.Fatalf("Report %d: %v", i, err)
		}
	}
	if _, err := msgs.Submit(ctx, "carl", "hello"); !errors.Is(err, ErrBanned) {
		t.Fatalf("banned Submit err = %v", err)
	}
	// Reads are open to everyone.
	if _, err := msgs.Retrieve(ctx, "carl", 1, 10); err != nil {
		t.Fatalf("Retrieve for banned author: %v", err)
	}
}
