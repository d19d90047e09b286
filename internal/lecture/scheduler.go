package lecture

import (
	"sync"
	"time"

	"github.com/roylee0704/gron"

	"lfd/internal/lecture/interfaces"
	"lfd/internal/models"
	"lfd/internal/providers"
	"lfd/internal/services"
	"lfd/internal/structures"
)

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	feedback    services.FeedbackServiceInterface
	discussion  services.DiscussionServiceInterface
	fileManager *FileManager
	archiver    interfaces.ArchiverInterface
	metrics     providers.MetricsProviderInterface
	cron        *gron.Cron
	opsMu       sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Feedback.FlushInterval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		s.feedback.FlushEvents()
		for _, lec := range s.feedback.GetLectures() {
			s.metrics.SetEventsTotal(lec, s.feedback.EventCount(lec))
		}
		for _, lec := range s.discussion.GetLectures() {
			s.metrics.SetCommentsTotal(lec, s.discussion.CommentCount(lec))
		}
	})

	s.cron.AddFunc(gron.Every(s.config.Persistence.SaveInterval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		start := time.Now()
		err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
		if err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
			return
		}
		s.metrics.ObservePersistenceDuration(time.Since(start))
		s.logger.Infof(providers.TypeApp, "Persisted data to file %s", s.config.Persistence.FilePath)
	})

	if s.config.Feedback.LectureTTL > 0 && s.config.Feedback.ArchivePath != "" {
		s.cron.AddFunc(gron.Every(s.config.Feedback.LectureTTL), func() {
			s.opsMu.Lock()
			defer s.opsMu.Unlock()
			s.sweepIdle(time.Now())
		})
	}

	s.cron.Start()
}

// sweepIdle archives lectures idle past the TTL. Events and comments
// go idle independently; a half of a lecture already sitting in the
// archive is pulled back and merged before the combined entry is
// written, so nothing is overwritten away.
func (s *Scheduler) sweepIdle(now time.Time) {
	droppedEvents := s.feedback.DropIdle(now)
	droppedComments := s.discussion.DropIdle(now)

	lectures := make(map[string]*models.LectureData)
	for lec, events := range droppedEvents {
		lectures[lec] = &models.LectureData{
			Events:   events,
			Comments: make([]*models.Comment, 0),
			LastSeen: now,
		}
	}
	for lec, comments := range droppedComments {
		ld := lectures[lec]
		if ld == nil {
			ld = &models.LectureData{
				Events:   make([]*models.FeedbackEvent, 0),
				LastSeen: now,
			}
			lectures[lec] = ld
		}
		ld.Comments = comments
	}

	for lec, ld := range lectures {
		if prev, ok, err := s.archiver.Restore(lec); err != nil {
			s.logger.Errorf(providers.TypeApp, "Error reading archive for lecture %s: %s", lec, err)
		} else if ok {
			if len(ld.Events) == 0 {
				ld.Events = prev.Events
			}
			if len(ld.Comments) == 0 {
				ld.Comments = prev.Comments
			}
		}
		if err := s.archiver.Archive(lec, ld); err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while archiving lecture %s: %s", lec, err)
			// Put the data back so it is not lost.
			s.feedback.PutLectureEvents(lec, ld.Events)
			if err := s.discussion.PutLectureComments(lec, ld.Comments); err != nil {
				s.logger.Errorf(providers.TypeApp, "Lecture %s: %s", lec, err)
			}
			continue
		}
		s.logger.Infof(providers.TypeApp, "Archived idle lecture %s", lec)
	}
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	err := s.fileManager.LoadFromFile(s.config.Persistence.FilePath)
	if err != nil {
		return err
	}
	return nil
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeApp, "Persisting lecture data to file...")
	s.feedback.FlushEvents()
	err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return err
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, feedback services.FeedbackServiceInterface, discussion services.DiscussionServiceInterface, fileManager *FileManager, archiver interfaces.ArchiverInterface, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		feedback:    feedback,
		discussion:  discussion,
		fileManager: fileManager,
		archiver:    archiver,
		metrics:     metrics,
	}
}
