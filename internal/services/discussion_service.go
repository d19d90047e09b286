package services

import (
	"sort"
	"sync"
	"time"

	"lfd/internal/models"
	"lfd/internal/structures"
)

type DiscussionServiceInterface interface {
	AddComments(lecture string, batch []*models.Comment) ([]*models.Comment, error)
	GetThread(lecture string) []*models.ThreadNode
	GetComments(lecture string) []*models.Comment
	CommentCount(lecture string) int
	GetLectures() []string
	PutLectureComments(lecture string, comments []*models.Comment) error
	DropIdle(now time.Time) map[string][]*models.Comment
}

type discussionSession struct {
	threader *models.Threader
	lastSeen time.Time
}

// DiscussionService holds one threader session per lecture. The
// threader itself is single-threaded state; the service mutex
// serializes all access to it.
type DiscussionService struct {
	conf     *structures.Config
	mu       sync.RWMutex
	sessions map[string]*discussionSession
}

func NewDiscussionService(conf *structures.Config) DiscussionServiceInterface {
	return &DiscussionService{
		conf:     conf,
		sessions: make(map[string]*discussionSession),
	}
}

// AddComments threads a batch into the lecture's discussion, creating
// the session on first use. Returns the comments actually added;
// malformed and orphaned records are reported through the error while
// the rest of the batch still lands.
func (ds *DiscussionService) AddComments(lecture string, batch []*models.Comment) ([]*models.Comment, error) {
	if lecture == "" {
		lecture = DefaultLecture
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	s := ds.sessions[lecture]
	if s == nil {
		s = &discussionSession{threader: models.NewThreader(), lastSeen: time.Now()}
		ds.sessions[lecture] = s
	}
	added, err := s.threader.Ingest(batch)
	if len(added) > 0 {
		s.lastSeen = time.Now()
	}
	return added, err
}

// GetThread returns the nested discussion tree, or nil for lectures
// without a session.
func (ds *DiscussionService) GetThread(lecture string) []*models.ThreadNode {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	s, ok := ds.sessions[lecture]
	if !ok {
		return nil
	}
	return models.BuildThread(s.threader.Roots())
}

// GetComments returns the flat comment list in ingest order, the shape
// the polling wire contract serves.
func (ds *DiscussionService) GetComments(lecture string) []*models.Comment {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	s, ok := ds.sessions[lecture]
	if !ok {
		return nil
	}
	return s.threader.All()
}

func (ds *DiscussionService) CommentCount(lecture string) int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if s, ok := ds.sessions[lecture]; ok {
		return s.threader.Len()
	}
	return 0
}

func (ds *DiscussionService) GetLectures() []string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	lectures := make([]string, 0, len(ds.sessions))
	for lec := range ds.sessions {
		lectures = append(lectures, lec)
	}
	sort.Strings(lectures)
	return lectures
}

// PutLectureComments rebuilds a session from a flat comment list.
// Restore path: replies follow their parents in snapshot order, so a
// single ingest reproduces the tree.
func (ds *DiscussionService) PutLectureComments(lecture string, comments []*models.Comment) error {
	threader := models.NewThreader()
	_, err := threader.Ingest(comments)

	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.sessions[lecture] = &discussionSession{threader: threader, lastSeen: time.Now()}
	return err
}

// DropIdle removes sessions idle past the configured TTL and returns
// their flat comment lists for archiving.
func (ds *DiscussionService) DropIdle(now time.Time) map[string][]*models.Comment {
	ttl := ds.conf.Feedback.LectureTTL
	if ttl <= 0 {
		return nil
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	dropped := make(map[string][]*models.Comment)
	for lec, s := range ds.sessions {
		if now.Sub(s.lastSeen) > ttl {
			dropped[lec] = s.threader.All()
			delete(ds.sessions, lec)
		}
	}
	return dropped
}
