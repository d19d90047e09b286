package models

import "fmt"

const (
	CommentRoot  = "ROOT"
	CommentReply = "REPLY"
)

// CommentKey and ParentKey mirror the record shape the original
// feedback backend emits (`commentKey.id`, `parentKey.value.id`).
// Field names are part of the wire contract and must not change.
type CommentKey struct {
	ID string `json:"id"`
}

type ParentKey struct {
	Value *CommentKey `json:"value"`
}

type Comment struct {
	Key       CommentKey `json:"commentKey"`
	ParentRef *ParentKey `json:"parentKey,omitempty"`
	Type      string     `json:"type"`
	Author    string     `json:"author,omitempty"`
	Content   string     `json:"content"`
	CreatedMs int64      `json:"createdMs"`

	// Replies and parent are runtime threading state maintained by the
	// Threader. They are rebuilt on restore and never serialized: the
	// parent back-reference is non-owning and together with Replies
	// forms a cycle that must not reach the marshaller.
	Replies []*Comment `json:"-"`
	parent  *Comment
}

func (c *Comment) ID() string {
	return c.Key.ID
}

// ParentID returns the referenced parent id, if any.
func (c *Comment) ParentID() (string, bool) {
	if c.ParentRef == nil || c.ParentRef.Value == nil || c.ParentRef.Value.ID == "" {
		return "", false
	}
	return c.ParentRef.Value.ID, true
}

// Parent returns the threaded parent comment, or nil for roots and
// comments not yet ingested.
func (c *Comment) Parent() *Comment {
	return c.parent
}

func (c *Comment) validate() error {
	if c.Key.ID == "" {
		return fmt.Errorf("%w: missing commentKey.id", ErrMalformedRecord)
	}
	switch c.Type {
	case CommentRoot:
		return nil
	case CommentReply:
		if _, ok := c.ParentID(); !ok {
			return fmt.Errorf("%w: reply %s missing parentKey.value.id", ErrMalformedRecord, c.Key.ID)
		}
		return nil
	default:
		return fmt.Errorf("%w: comment %s has unknown type %q", ErrMalformedRecord, c.Key.ID, c.Type)
	}
}

// ThreadNode is the nested render shape for a threaded discussion,
// one node per comment with replies inlined.
type ThreadNode struct {
	*Comment
	Replies []*ThreadNode `json:"replies"`
}

// BuildThread converts threaded comments into their nested render
// shape, preserving reply order.
func BuildThread(roots []*Comment) []*ThreadNode {
	nodes := make([]*ThreadNode, 0, len(roots))
	for _, c := range roots {
		nodes = append(nodes, &ThreadNode{
			Comment: c,
			Replies: BuildThread(c.Replies),
		})
	}
	return nodes
}
