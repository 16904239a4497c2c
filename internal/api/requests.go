package api

// PredictRequest is the body of POST /predict. Omitted match fields take the
// defaults of a typical evenly matched fixture. When Features is set it is used
// as the encoded vector and the named fields are ignored.
type PredictRequest struct {
	Sport       string    `json:"sport"`
	StrengthA   *float64  `json:"strengthA"`
	StrengthB   *float64  `json:"strengthB"`
	FormA       *float64  `json:"formA"`
	FormB       *float64  `json:"formB"`
	XGA         *float64  `json:"xgA"`
	XGB         *float64  `json:"xgB"`
	InjuriesA   *float64  `json:"injuriesA"`
	InjuriesB   *float64  `json:"injuriesB"`
	ShotsA      *float64  `json:"shotsA"`
	ShotsB      *float64  `json:"shotsB"`
	PossessionA *float64  `json:"possessionA"`
	PossessionB *float64  `json:"possessionB"`
	MatchID     string    `json:"matchId,omitempty"`
	Features    []float64 `json:"features,omitempty"`
}

// Payload returns the request as per-side context fields.
func (p PredictRequest) Payload() map[string]float64 {
	return map[string]float64{
		"strength_a": orDefault(p.StrengthA, 75),
		"strength_b": orDefault(p.StrengthB, 70),
		"form_a":     orDefault(p.FormA, 0.65),
		"form_b":     orDefault(p.FormB, 0.62),
		"xg_a":       orDefault(p.XGA, 1.7),
		"xg_b":       orDefault(p.XGB, 1.5),
		"injuries_a": orDefault(p.InjuriesA, 1),
		"injuries_b": orDefault(p.InjuriesB, 1),
		"shots_a":    orDefault(p.ShotsA, 14),
		"shots_b":    orDefault(p.ShotsB, 12),
		"poss_a":     orDefault(p.PossessionA, 52),
		"poss_b":     orDefault(p.PossessionB, 48),
	}
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
