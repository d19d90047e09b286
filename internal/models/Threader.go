package models

import (
	"errors"
	"fmt"
)

// Threader builds a discussion tree out of the flat comment lists the
// polling endpoints deliver. The seen-set owns the canonical Comment
// objects for the life of a discussion session and doubles as the
// parent lookup. Not safe for concurrent use; callers serialize
// Ingest (the discussion service does this under its own mutex).
type Threader struct {
	seen  map[string]*Comment
	roots []*Comment
	order []*Comment
}

func NewThreader() *Threader {
	return &Threader{
		seen:  make(map[string]*Comment),
		roots: make([]*Comment, 0),
		order: make([]*Comment, 0),
	}
}

// Ingest threads a batch of comments. Each call may carry a superset
// of previously seen comments (polling semantics): comments whose id
// is already in the seen-set are skipped entirely. The returned slice
// holds only the comments added by this call, in batch order.
//
// Malformed records (missing id, unknown type, reply without a parent
// reference) are skipped and reported via ErrMalformedRecord. A reply
// whose parent is absent from the seen-set is deferred: it is removed
// again so a later batch containing the parent can re-deliver it, and
// reported via ErrOrphanedReply. Errors are joined; the rest of the
// batch is processed regardless.
func (t *Threader) Ingest(batch []*Comment) ([]*Comment, error) {
	var errs []error

	fresh := make([]*Comment, 0, len(batch))
	for _, c := range batch {
		if err := c.validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, ok := t.seen[c.Key.ID]; ok {
			continue
		}
		c.Replies = make([]*Comment, 0)
		c.parent = nil
		t.seen[c.Key.ID] = c
		fresh = append(fresh, c)
	}

	// Link only the fresh comments: everything else was linked on a
	// prior call and must not be re-attached.
	added := make([]*Comment, 0, len(fresh))
	for _, c := range fresh {
		if c.Type != CommentReply {
			t.roots = append(t.roots, c)
			t.order = append(t.order, c)
			added = append(added, c)
			continue
		}
		pid, _ := c.ParentID()
		parent, ok := t.seen[pid]
		if !ok {
			delete(t.seen, c.Key.ID)
			errs = append(errs, fmt.Errorf("%w: reply %s -> %s", ErrOrphanedReply, c.Key.ID, pid))
			continue
		}
		parent.Replies = append(parent.Replies, c)
		c.parent = parent
		t.order = append(t.order, c)
		added = append(added, c)
	}

	// A reply ordered before its own parent links in the first pass
	// even when that parent is deferred afterwards. Unwind such
	// replies transitively: anything threaded under an unregistered
	// comment is deferred too, so it can come back with its parent in
	// a later batch.
	for {
		changed := false
		kept := added[:0]
		for _, c := range added {
			if c.parent != nil {
				if _, ok := t.seen[c.parent.Key.ID]; !ok {
					pid := c.parent.Key.ID
					c.parent.Replies = dropComment(c.parent.Replies, c)
					c.parent = nil
					delete(t.seen, c.Key.ID)
					t.order = dropComment(t.order, c)
					errs = append(errs, fmt.Errorf("%w: reply %s -> %s", ErrOrphanedReply, c.Key.ID, pid))
					changed = true
					continue
				}
			}
			kept = append(kept, c)
		}
		added = kept
		if !changed {
			break
		}
	}

	return added, errors.Join(errs...)
}

func dropComment(list []*Comment, c *Comment) []*Comment {
	for i, e := range list {
		if e == c {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// Get resolves a comment by id.
func (t *Threader) Get(id string) (*Comment, bool) {
	c, ok := t.seen[id]
	return c, ok
}

// Roots returns the top-level comments in ingest order. The slice is
// shared with the threader and must not be mutated.
func (t *Threader) Roots() []*Comment {
	return t.roots
}

// All returns every threaded comment in ingest order. Replies always
// follow their parent, so re-ingesting the result reproduces the same
// tree.
func (t *Threader) All() []*Comment {
	out := make([]*Comment, len(t.order))
	copy(out, t.order)
	return out
}

func (t *Threader) Len() int {
	return len(t.order)
}
