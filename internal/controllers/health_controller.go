package controllers

import (
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"lfd/internal/services"
)

type HealthController struct {
	feedback   services.FeedbackServiceInterface
	discussion services.DiscussionServiceInterface
	startTime  time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	BufferSize    int     `json:"buffer_size"`
	Lectures      int     `json:"lectures"`
	Discussions   int     `json:"discussions"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		BufferSize:    hc.feedback.GetBufferSize(),
		Lectures:      len(hc.feedback.GetLectures()),
		Discussions:   len(hc.discussion.GetLectures()),
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(feedback services.FeedbackServiceInterface, discussion services.DiscussionServiceInterface) *HealthController {
	return &HealthController{
		feedback:   feedback,
		discussion: discussion,
		startTime:  time.Now(),
	}
}
