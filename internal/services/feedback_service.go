package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"lfd/internal/models"
	"lfd/internal/structures"
)

const DefaultLecture = "default"

type FeedbackServiceInterface interface {
	AddEvent(ev *models.FeedbackEvent) error
	FlushEvents()
	GetChart(lecture string) (*models.Chart, error)
	GetEvents(lecture string) []*models.FeedbackEvent
	EventCount(lecture string) int
	GetLectures() []string
	GetBufferSize() int
	DroppedEvents() int
	PutLectureEvents(lecture string, events []*models.FeedbackEvent)
	DropIdle(now time.Time) map[string][]*models.FeedbackEvent
}

type lectureEvents struct {
	events   []*models.FeedbackEvent
	lastSeen time.Time
}

// FeedbackService buffers incoming icon-feedback events and merges
// them into per-lecture, timestamp-sorted event lists on each flush
// tick. Writes land in the active buffer so the ingest path never
// contends with chart reads.
type FeedbackService struct {
	conf      *structures.Config
	mu        sync.RWMutex
	buffers   [2][]*models.FeedbackEvent
	activeIdx int
	lectures  map[string]*lectureEvents
	dropped   int
}

func NewFeedbackService(conf *structures.Config) FeedbackServiceInterface {
	return &FeedbackService{
		conf:     conf,
		lectures: make(map[string]*lectureEvents),
	}
}

// AddEvent validates and buffers one event. Unknown types and negative
// timestamps are rejected up front so the aggregation fallback only
// ever sees clean data.
func (fs *FeedbackService) AddEvent(ev *models.FeedbackEvent) error {
	if !models.KnownEventType(ev.Type) {
		return fmt.Errorf("%w: unknown feedback type %q", models.ErrMalformedRecord, ev.Type)
	}
	if ev.TimestampMs < 0 {
		return fmt.Errorf("%w: negative timestampMs %d", models.ErrMalformedRecord, ev.TimestampMs)
	}
	if ev.Lecture == "" {
		ev.Lecture = DefaultLecture
	}

	fs.mu.Lock()
	fs.buffers[fs.activeIdx] = append(fs.buffers[fs.activeIdx], ev)
	fs.mu.Unlock()
	return nil
}

// FlushEvents swaps the ingest buffers and merges the drained one into
// the per-lecture stores. Called from the scheduler tick.
func (fs *FeedbackService) FlushEvents() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	drained := fs.buffers[fs.activeIdx]
	fs.activeIdx = 1 - fs.activeIdx
	fs.buffers[fs.activeIdx] = nil

	if len(drained) == 0 {
		return
	}

	now := time.Now()
	touched := make(map[string]struct{})
	maxLectures := fs.conf.Feedback.MaxLectures
	for _, ev := range drained {
		le := fs.lectures[ev.Lecture]
		if le == nil {
			if maxLectures > 0 && len(fs.lectures) >= maxLectures {
				// Lecture cap reached: events for brand-new lectures
				// are dropped rather than growing without bound. The
				// drop counter feeds lfd_dropped_events_total.
				fs.dropped++
				continue
			}
			le = &lectureEvents{}
			fs.lectures[ev.Lecture] = le
		}
		le.events = append(le.events, ev)
		le.lastSeen = now
		touched[ev.Lecture] = struct{}{}
	}

	// Client clocks deliver events roughly ordered; keep the stored
	// lists strictly sorted so BuildChart's precondition always holds.
	for lec := range touched {
		le := fs.lectures[lec]
		sort.SliceStable(le.events, func(i, j int) bool {
			return le.events[i].TimestampMs < le.events[j].TimestampMs
		})
	}
}

func (fs *FeedbackService) GetChart(lecture string) (*models.Chart, error) {
	events := fs.GetEvents(lecture)
	if events == nil {
		return nil, nil
	}
	return models.BuildChart(events)
}

// GetEvents returns a copy of a lecture's sorted event list, or nil
// for unknown lectures.
func (fs *FeedbackService) GetEvents(lecture string) []*models.FeedbackEvent {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	le, ok := fs.lectures[lecture]
	if !ok {
		return nil
	}
	out := make([]*models.FeedbackEvent, len(le.events))
	copy(out, le.events)
	return out
}

// EventCount returns the number of stored events for a lecture
// without copying the list.
func (fs *FeedbackService) EventCount(lecture string) int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if le, ok := fs.lectures[lecture]; ok {
		return len(le.events)
	}
	return 0
}

// DroppedEvents returns how many events have been discarded because
// the lecture cap was reached.
func (fs *FeedbackService) DroppedEvents() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.dropped
}

func (fs *FeedbackService) GetLectures() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	lectures := make([]string, 0, len(fs.lectures))
	for lec := range fs.lectures {
		lectures = append(lectures, lec)
	}
	sort.Strings(lectures)
	return lectures
}

func (fs *FeedbackService) GetBufferSize() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.buffers[fs.activeIdx])
}

// PutLectureEvents replaces a lecture's event list. Restore path:
// snapshot load and archive recovery.
func (fs *FeedbackService) PutLectureEvents(lecture string, events []*models.FeedbackEvent) {
	sorted := make([]*models.FeedbackEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimestampMs < sorted[j].TimestampMs
	})

	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.lectures[lecture] = &lectureEvents{events: sorted, lastSeen: time.Now()}
}

// DropIdle removes lectures whose last activity is older than the
// configured TTL and returns their event lists for archiving. A zero
// TTL disables the sweep.
func (fs *FeedbackService) DropIdle(now time.Time) map[string][]*models.FeedbackEvent {
	ttl := fs.conf.Feedback.LectureTTL
	if ttl <= 0 {
		return nil
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	dropped := make(map[string][]*models.FeedbackEvent)
	for lec, le := range fs.lectures {
		if now.Sub(le.lastSeen) > ttl {
			dropped[lec] = le.events
			delete(fs.lectures, lec)
		}
	}
	return dropped
}
