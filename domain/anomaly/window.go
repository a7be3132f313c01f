package anomaly

// Window is a fixed-capacity rolling window of anomaly scores, used to
// summarize the recent behavior of a stream without retaining its whole
// history. Not safe for concurrent use; one window belongs to one stream
// consumer, same as one record belongs to one pass.
type Window struct {
	scores   []float64
	capacity int
	next     int
	full     bool
}

// NewWindow creates a rolling window holding up to capacity scores
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = 1
	}
	return &Window{
		scores:   make([]float64, capacity),
		capacity: capacity,
	}
}

// Add records one score, evicting the oldest when the window is full
func (w *Window) Add(score float64) {
	w.scores[w.next] = score
	w.next = (w.next + 1) % w.capacity
	if w.next == 0 {
		w.full = true
	}
}

// Len returns the number of scores currently held
func (w *Window) Len() int {
	if w.full {
		return w.capacity
	}
	return w.next
}

// Scores returns the held scores, oldest first
func (w *Window) Scores() []float64 {
	n := w.Len()
	out := make([]float64, 0, n)
	if w.full {
		out = append(out, w.scores[w.next:]...)
	}
	out = append(out, w.scores[:w.next]...)
	return out
}

// Summarize computes a summary over the window's current contents
func (w *Window) Summarize() (*Summary, error) {
	return Summarize(w.Scores())
}
