package controllers

import (
	"errors"
	"net/http"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cast"

	"lfd/internal/lecture/interfaces"
	"lfd/internal/models"
	"lfd/internal/providers"
	"lfd/internal/services"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type ApiController struct {
	logger     providers.Logger
	feedback   services.FeedbackServiceInterface
	discussion services.DiscussionServiceInterface
	archiver   interfaces.ArchiverInterface
	cache      providers.CacheProviderInterface
	metrics    providers.MetricsProviderInterface
	nowMs      func() int64
}

func NewApiController(logger providers.Logger, feedback services.FeedbackServiceInterface, discussion services.DiscussionServiceInterface, archiver interfaces.ArchiverInterface, cache providers.CacheProviderInterface, metrics providers.MetricsProviderInterface) *ApiController {
	return &ApiController{
		logger:     logger,
		feedback:   feedback,
		discussion: discussion,
		archiver:   archiver,
		cache:      cache,
		metrics:    metrics,
		nowMs:      nowUnixMs,
	}
}

func nowUnixMs() int64 {
	return time.Now().UnixMilli()
}

func getLecture(r *http.Request) string {
	lec := r.URL.Query().Get("lec")
	if lec == "" {
		return services.DefaultLecture
	}
	return lec
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// unarchive pulls a lecture back into memory when neither service
// knows it but the archive does.
func (ac *ApiController) unarchive(lec string) {
	if ac.feedback.GetEvents(lec) != nil || ac.discussion.GetComments(lec) != nil {
		return
	}
	data, ok, err := ac.archiver.Restore(lec)
	if err != nil {
		ac.logger.Errorf(providers.TypeApp, "Archive restore for lecture %s failed: %s", lec, err)
		return
	}
	if !ok {
		return
	}
	ac.logger.Infof(providers.TypeApp, "Restored lecture %s from archive", lec)
	ac.feedback.PutLectureEvents(lec, data.Events)
	if err := ac.discussion.PutLectureComments(lec, data.Comments); err != nil {
		ac.logger.Warnf(providers.TypeApp, "Lecture %s: dropped bad comments during restore: %s", lec, err)
	}
}

func (ac *ApiController) ReceiveFeedback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload models.FeedbackEvent
	err := json.NewDecoder(r.Body).Decode(&payload)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if payload.Lecture == "" {
		payload.Lecture = getLecture(r)
	}
	if err := ac.feedback.AddEvent(&payload); err != nil {
		ac.logger.Debugf(providers.TypePost, "Rejected feedback event: %s", err)
		ac.metrics.IncMalformedRecords()
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (ac *ApiController) GetChart(w http.ResponseWriter, r *http.Request) {
	lec := getLecture(r)
	ac.serveFromCacheOrCompute(w, "chart:"+lec, func() (any, error) {
		ac.unarchive(lec)
		chart, err := ac.feedback.GetChart(lec)
		if err != nil {
			return nil, err
		}
		if chart == nil {
			// Unknown lectures chart as empty, same as a lecture
			// nobody clicked on yet.
			chart = models.NewChart()
		}
		return chart, nil
	})
}

func (ac *ApiController) ReceiveComment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload models.Comment
	err := json.NewDecoder(r.Body).Decode(&payload)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if payload.Key.ID == "" {
		payload.Key.ID = uuid.NewString()
	}
	if payload.CreatedMs == 0 {
		payload.CreatedMs = ac.nowMs()
	}

	lec := getLecture(r)
	ac.unarchive(lec)
	added, err := ac.discussion.AddComments(lec, []*models.Comment{&payload})
	if err != nil {
		ac.logger.Debugf(providers.TypePost, "Rejected comment for lecture %s: %s", lec, err)
		if errors.Is(err, models.ErrOrphanedReply) {
			ac.metrics.IncOrphanedReplies()
			http.Error(w, "Conflict", http.StatusConflict)
			return
		}
		ac.metrics.IncMalformedRecords()
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if len(added) == 0 {
		// Duplicate id: already threaded, nothing new.
		w.WriteHeader(http.StatusOK)
		return
	}

	gson, err := json.Marshal(added[0])
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(gson)
}

func (ac *ApiController) GetComments(w http.ResponseWriter, r *http.Request) {
	lec := getLecture(r)
	since := cast.ToInt64(r.URL.Query().Get("since"))
	cacheKey := "comments:" + lec + ":" + r.URL.Query().Get("since")
	ac.serveFromCacheOrCompute(w, cacheKey, func() (any, error) {
		ac.unarchive(lec)
		comments := ac.discussion.GetComments(lec)
		out := make([]*models.Comment, 0, len(comments))
		for _, c := range comments {
			if c.CreatedMs > since {
				out = append(out, c)
			}
		}
		return out, nil
	})
}

func (ac *ApiController) GetThread(w http.ResponseWriter, r *http.Request) {
	lec := getLecture(r)
	ac.serveFromCacheOrCompute(w, "thread:"+lec, func() (any, error) {
		ac.unarchive(lec)
		thread := ac.discussion.GetThread(lec)
		if thread == nil {
			thread = make([]*models.ThreadNode, 0)
		}
		return thread, nil
	})
}

func (ac *ApiController) GetLectures(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "lectures", func() (any, error) {
		seen := make(map[string]struct{})
		lectures := make([]string, 0)
		for _, lec := range ac.feedback.GetLectures() {
			seen[lec] = struct{}{}
			lectures = append(lectures, lec)
		}
		for _, lec := range ac.discussion.GetLectures() {
			if _, ok := seen[lec]; !ok {
				lectures = append(lectures, lec)
			}
		}
		sort.Strings(lectures)
		return lectures, nil
	})
}
