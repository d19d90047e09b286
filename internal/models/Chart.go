package models

// IntervalWidthMs is the fixed bucket width used to group feedback
// events by lecture time. Bucket i covers [i*W, (i+1)*W) milliseconds.
const IntervalWidthMs int64 = 10000

// Chart holds the aggregation result in the shape the front-end chart
// consumes: one entry per interval in each slice, interval starts in
// seconds.
type Chart struct {
	IntervalsSec  []int64 `json:"intervalsSec"`
	GoodCounts    []int   `json:"goodCounts"`
	BadCounts     []int   `json:"badCounts"`
	TooFastCounts []int   `json:"tooFastCounts"`
	TooSlowCounts []int   `json:"tooSlowCounts"`
}

// NewChart returns an empty chart with non-nil slices so it always
// marshals as arrays, never null.
func NewChart() *Chart {
	return &Chart{
		IntervalsSec:  make([]int64, 0),
		GoodCounts:    make([]int, 0),
		BadCounts:     make([]int, 0),
		TooFastCounts: make([]int, 0),
		TooSlowCounts: make([]int, 0),
	}
}

// Events returns the total number of events counted into the chart.
func (c *Chart) Events() int {
	total := 0
	for i := range c.GoodCounts {
		total += c.GoodCounts[i] + c.BadCounts[i] + c.TooFastCounts[i] + c.TooSlowCounts[i]
	}
	return total
}

// BuildChart buckets a time-ordered event list into fixed-width
// intervals. Events must be sorted ascending by TimestampMs; unsorted
// input returns ErrUnsortedInput. Types other than the three explicit
// cases count as TOO_SLOW, which keeps charts built from snapshots
// written before ingest validation existed consistent with the old
// front-end behavior.
func BuildChart(events []*FeedbackEvent) (*Chart, error) {
	for i := 1; i < len(events); i++ {
		if events[i].TimestampMs < events[i-1].TimestampMs {
			return nil, ErrUnsortedInput
		}
	}

	chart := NewChart()
	boundary := IntervalWidthMs
	i := 0
	for i < len(events) {
		var good, bad, tooFast, tooSlow int
		for i < len(events) && events[i].TimestampMs < boundary {
			switch events[i].Type {
			case TypeGood:
				good++
			case TypeBad:
				bad++
			case TypeTooFast:
				tooFast++
			default:
				tooSlow++
			}
			i++
		}
		chart.IntervalsSec = append(chart.IntervalsSec, (boundary-IntervalWidthMs)/1000)
		chart.GoodCounts = append(chart.GoodCounts, good)
		chart.BadCounts = append(chart.BadCounts, bad)
		chart.TooFastCounts = append(chart.TooFastCounts, tooFast)
		chart.TooSlowCounts = append(chart.TooSlowCounts, tooSlow)
		boundary += IntervalWidthMs
	}
	return chart, nil
}
