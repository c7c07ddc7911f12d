// Package domain defines the entities owned by the message store: posted
// messages with their like/dislike/reaction state, and the moderation ledger
// that derives ban status from user reports. It also carries the GORM model
// used by the HTTP layer to replay idempotent requests.
//
// Nothing in this package is safe for concurrent use. The store engine is the
// single owner of every UserMessage and Ledger it holds.
package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// NewID marks a message that has not been accepted by the store yet.
const NewID int64 = -1

// Emoji is a reaction an identity can attach to a message.
type Emoji string

const (
	Smiley    Emoji = "SMILEY"
	Laughing  Emoji = "LAUGHING"
	Frown     Emoji = "FROWN"
	Crying    Emoji = "CRYING"
	Horror    Emoji = "HORROR"
	Surprise  Emoji = "SURPRISE"
	Skeptical Emoji = "SKEPTICAL"
	Cool      Emoji = "COOL"
)

// Emojis lists every supported reaction in declaration order.
var Emojis = []Emoji{Smiley, Laughing, Frown, Crying, Horror, Surprise, Skeptical, Cool}

// Valid reports whether e is one of the supported reactions.
func (e Emoji) Valid() bool { return lo.Contains(Emojis, e) }

// ParseEmoji resolves a case-insensitive reaction name.
func ParseEmoji(s string) (Emoji, bool) {
	e := Emoji(strings.ToUpper(strings.TrimSpace(s)))
	return e, e.Valid()
}

// LikeKind selects which stance RemoveLikeOrDislike withdraws.
type LikeKind string

const (
	Like    LikeKind = "LIKE"
	Dislike LikeKind = "DISLIKE"
)

// ParseLikeKind resolves a case-insensitive stance name.
func ParseLikeKind(s string) (LikeKind, bool) {
	switch k := LikeKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case Like, Dislike:
		return k, true
	}
	return "", false
}

type set map[string]struct{}

func (s set) has(k string) bool {
	_, ok := s[k]
	return ok
}

// UserMessage is a single posted message.
//
// Fields:
//   - Author: identity of the poster; never changes after creation.
//   - Text: message body; replaced in place by edits.
//   - ID: NewID until the store accepts the message, then a unique,
//     never-reused non-negative id.
//   - Points: running score, +1 per like and -1 per dislike.
//
// Likes and Dislikes are disjoint at all times. Reactions holds, per identity,
// the distinct emoji that identity attached.
type UserMessage struct {
	Author string
	Text   string
	ID     int64
	Points int

	likes     set
	dislikes  set
	reactions map[string]map[Emoji]struct{}
}

// NewUserMessage creates an unaccepted message.
func NewUserMessage(author, text string) *UserMessage {
	return &UserMessage{
		Author:    author,
		Text:      text,
		ID:        NewID,
		likes:     set{},
		dislikes:  set{},
		reactions: map[string]map[Emoji]struct{}{},
	}
}

// LikedBy reports whether who currently likes m.
func (m *UserMessage) LikedBy(who string) bool { return m.likes.has(who) }

// DislikedBy reports whether who currently dislikes m.
func (m *UserMessage) DislikedBy(who string) bool { return m.dislikes.has(who) }

// Likes returns the sorted identities that like m.
func (m *UserMessage) Likes() []string { return sortedKeys(m.likes) }

// Dislikes returns the sorted identities that dislike m.
func (m *UserMessage) Dislikes() []string { return sortedKeys(m.dislikes) }

// Reactions returns a copy of who's reactions, in declaration order.
func (m *UserMessage) Reactions(who string) []Emoji {
	got := m.reactions[who]
	return lo.Filter(Emojis, func(e Emoji, _ int) bool {
		_, ok := got[e]
		return ok
	})
}

// Reactors returns the sorted identities holding at least one reaction.
func (m *UserMessage) Reactors() []string {
	keys := lo.Keys(m.reactions)
	sort.Strings(keys)
	return keys
}

// AddLike records a like by who. An existing dislike by who is withdrawn
// first. It returns false when who already likes m.
func (m *UserMessage) AddLike(who string) bool {
	if m.likes.has(who) {
		return false
	}
	if m.dislikes.has(who) {
		m.RemoveStance(Dislike, who)
	}
	m.likes[who] = struct{}{}
	m.Points++
	return true
}

// AddDislike records a dislike by who. An existing like by who is withdrawn
// first. It returns false when who already dislikes m.
func (m *UserMessage) AddDislike(who string) bool {
	if m.dislikes.has(who) {
		return false
	}
	if m.likes.has(who) {
		m.RemoveStance(Like, who)
	}
	m.dislikes[who] = struct{}{}
	m.Points--
	return true
}

// RemoveStance withdraws who's like or dislike and reverts its effect on
// Points. It returns false when who holds no such stance.
//
// An unknown kind is a programming error and panics.
func (m *UserMessage) RemoveStance(kind LikeKind, who string) bool {
	switch kind {
	case Like:
		if !m.likes.has(who) {
			return false
		}
		delete(m.likes, who)
		m.Points--
	case Dislike:
		if !m.dislikes.has(who) {
			return false
		}
		delete(m.dislikes, who)
		m.Points++
	default:
		panic(fmt.Sprintf("domain: unknown like kind %q", kind))
	}
	return true
}

// AddReaction attaches e on behalf of who. It returns false when who has
// already attached e.
func (m *UserMessage) AddReaction(who string, e Emoji) bool {
	got, ok := m.reactions[who]
	if !ok {
		got = map[Emoji]struct{}{}
		m.reactions[who] = got
	}
	if _, dup := got[e]; dup {
		return false
	}
	got[e] = struct{}{}
	return true
}

// Clone returns a deep copy of m.
func (m *UserMessage) Clone() *UserMessage {
	c := NewUserMessage(m.Author, m.Text)
	c.ID = m.ID
	c.Points = m.Points
	for k := range m.likes {
		c.likes[k] = struct{}{}
	}
	for k := range m.dislikes {
		c.dislikes[k] = struct{}{}
	}
	for who, es := range m.reactions {
		cp := make(map[Emoji]struct{}, len(es))
		for e := range es {
			cp[e] = struct{}{}
		}
		c.reactions[who] = cp
	}
	return c
}

// String renders m the way board transcripts print it.
func (m *UserMessage) String() string {
	return fmt.Sprintf("%s: %s, liked by : %s, disliked by : %s, points: %d",
		m.Author, m.Text,
		strings.Join(m.Likes(), ","),
		strings.Join(m.Dislikes(), ","),
		m.Points)
}

type messageJSON struct {
	ID         int64              `json:"id"`
	Author     string             `json:"author"`
	Text       string             `json:"text"`
	Points     int                `json:"points"`
	LikedBy    []string           `json:"liked_by"`
	DislikedBy []string           `json:"disliked_by"`
	Reactions  map[string][]Emoji `json:"reactions"`
}

// MarshalJSON encodes m with sorted identity lists so output is stable.
func (m *UserMessage) MarshalJSON() ([]byte, error) {
	out := messageJSON{
		ID:         m.ID,
		Author:     m.Author,
		Text:       m.Text,
		Points:     m.Points,
		LikedBy:    m.Likes(),
		DislikedBy: m.Dislikes(),
		Reactions:  make(map[string][]Emoji, len(m.reactions)),
	}
	for _, who := range m.Reactors() {
		out.Reactions[who] = m.Reactions(who)
	}
	return json.Marshal(out)
}

func sortedKeys(s set) []string {
	keys := lo.Keys(s)
	sort.Strings(keys)
	return keys
}
