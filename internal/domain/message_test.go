package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNewUserMessage_Unassigned(t *testing.T) {
	m := NewUserMessage("alice", "hi")
	if m.ID != NewID || m.Points != 0 {
		t.Fatalf("fresh message = %+v", m)
	}
	if len(m.Likes()) != 0 || len(m.Dislikes()) != 0 || len(m.Reactors()) != 0 {
		t.Fatalf("fresh message should have no stances or reactions")
	}
}

func TestUserMessage_LikeDislikeSwitch(t *testing.T) {
	m := NewUserMessage("alice", "hi")

	if !m.AddLike("bob") || m.Points != 1 {
		t.Fatalf("like: points=%d", m.Points)
	}
	if m.AddLike("bob") {
		t.Fatalf("second like by the same identity must be rejected")
	}
	if !m.AddDislike("bob") {
		t.Fatalf("switch to dislike should succeed")
	}
	if m.LikedBy("bob") || !m.DislikedBy("bob") || m.Points != -1 {
		t.Fatalf("after switch: liked=%v disliked=%v points=%d", m.LikedBy("bob"), m.DislikedBy("bob"), m.Points)
	}
	if !m.AddLike("bob") || m.Points != 1 || m.DislikedBy("bob") {
		t.Fatalf("switch back to like: points=%d", m.Points)
	}
}

func TestUserMessage_RemoveStance(t *testing.T) {
	m := NewUserMessage("alice", "hi")
	m.AddLike("bob")
	m.AddDislike("carl")

	tests := []struct {
		name       string
		kind       LikeKind
		who        string
		want       bool
		wantPoints int
	}{
		{"like_absent", Like, "carl", false, 0},
		{"dislike_absent", Dislike, "bob", false, 0},
		{"remove_like", Like, "bob", true, -1},
		{"remove_dislike", Dislike, "carl", true, 0},
		{"remove_like_again", Like, "bob", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.RemoveStance(tt.kind, tt.who); got != tt.want {
				t.Fatalf("RemoveStance(%s,%s) = %v; want %v", tt.kind, tt.who, got, tt.want)
			}
			if m.Points != tt.wantPoints {
				t.Fatalf("points = %d; want %d", m.Points, tt.wantPoints)
			}
		})
	}
}

func TestUserMessage_RemoveStance_UnknownKindPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("unknown kind must panic")
		}
	}()
	NewUserMessage("a", "b").RemoveStance(LikeKind("MEH"), "x")
}

func TestUserMessage_Reactions(t *testing.T) {
	m := NewUserMessage("alice", "hi")
	if !m.AddReaction("bob", Smiley) {
		t.Fatalf("first reaction should succeed")
	}
	if m.AddReaction("bob", Smiley) {
		t.Fatalf("duplicate reaction should fail")
	}
	if !m.AddReaction("bob", Laughing) || !m.AddReaction("carl", Smiley) {
		t.Fatalf("distinct reactions should succeed")
	}
	if got := m.Reactions("bob"); !reflect.DeepEqual(got, []Emoji{Smiley, Laughing}) {
		t.Fatalf("bob reactions = %v", got)
	}
	if got := m.Reactors(); !reflect.DeepEqual(got, []string{"bob", "carl"}) {
		t.Fatalf("reactors = %v", got)
	}
}

func TestUserMessage_CloneIsDeep(t *testing.T) {
	m := NewUserMessage("alice", "hi")
	m.ID = 3
	m.AddLike("bob")
	m.AddReaction("bob", Cool)

	c := m.Clone()
	c.AddLike("carl")
	c.AddReaction("bob", Frown)
	c.Text = "changed"

	if m.LikedBy("carl") || len(m.Reactions("bob")) != 1 || m.Text != "hi" {
		t.Fatalf("mutating the clone leaked into the original: %s", m)
	}
	if c.ID != 3 || c.Points != 2 {
		t.Fatalf("clone = %s (id %d)", c, c.ID)
	}
}

func TestUserMessage_StringAndJSON(t *testing.T) {
	m := NewUserMessage("alice", "hi")
	m.ID = 0
	m.AddLike("zed")
	m.AddLike("bob")
	m.AddDislike("carl")
	m.AddReaction("bob", Surprise)

	want := "alice: hi, liked by : bob,zed, disliked by : carl, points: 1"
	if got := m.String(); got != want {
		t.Fatalf("String() = %q; want %q", got, want)
	}

	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["author"] != "alice" || out["points"].(float64) != 1 {
		t.Fatalf("json = %s", b)
	}
	if got := out["liked_by"].([]any); len(got) != 2 || got[0] != "bob" {
		t.Fatalf("liked_by = %v", got)
	}
}

func TestParseEmojiAndKind(t *testing.T) {
	if e, ok := ParseEmoji(" smiley "); !ok || e != Smiley {
		t.Fatalf("ParseEmoji smiley = %q,%v", e, ok)
	}
	if _, ok := ParseEmoji("thumbs"); ok {
		t.Fatalf("unknown emoji accepted")
	}
	if k, ok := ParseLikeKind("dislike"); !ok || k != Dislike {
		t.Fatalf("ParseLikeKind = %q,%v", k, ok)
	}
	if _, ok := ParseLikeKind("love"); ok {
		t.Fatalf("unknown kind accepted")
	}
}
