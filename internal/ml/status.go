package ml

import "sports-ai/internal/sport"

// SportStatus summarizes the registry state of one sport.
type SportStatus struct {
	Sport    sport.Sport `json:"sport"`
	Active   Algorithm   `json:"active,omitempty"`
	Loaded   bool        `json:"loaded"`
	Rows     int         `json:"rows"`
	Accuracy float64     `json:"accuracy"`
	Trained  []Algorithm `json:"trained"`
	Training []Algorithm `json:"training,omitempty"`
}

// Status returns one SportStatus per sport, in sport.All order. Rows and
// Accuracy describe the active model.
func (r *Registry) Status() []SportStatus {
	out := make([]SportStatus, 0, len(r.states))
	for i, s := range sport.All() {
		st := r.states[i]
		status := SportStatus{Sport: s, Trained: []Algorithm{}}
		for _, algo := range algorithms {
			idx := algo.index()
			if st.slots[idx].Load() != nil {
				status.Trained = append(status.Trained, algo)
			}
			if st.training[idx].Load() {
				status.Training = append(status.Training, algo)
			}
		}
		if a := st.active.Load(); a != nil {
			status.Active = *a
			if e := st.slots[a.index()].Load(); e != nil {
				status.Loaded = true
				if e.Metrics != nil {
					status.Rows = e.Metrics.Rows
					status.Accuracy = e.Metrics.Accuracy
				}
			}
		}
		out = append(out, status)
	}
	return out
}
