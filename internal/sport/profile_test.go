package sport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Sport
		wantErr bool
	}{
		{"lowercase", "football", Football, false},
		{"mixed case with spaces", "  Tennis ", Tennis, false},
		{"handball", "handball", Handball, false},
		{"unknown", "cricket", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownSport))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFeatureNames_FootballSchema(t *testing.T) {
	p := MustLookup(Football)

	want := []string{
		"strength_a", "strength_b", "form_a", "form_b", "xg_a", "xg_b",
		"injuries_a", "injuries_b", "shots_a", "shots_b", "poss_a", "poss_b",
		"strength_diff", "form_diff", "xg_diff", "injuries_diff", "shots_diff", "poss_diff",
	}
	assert.Equal(t, want, p.FeatureNames())
	assert.Equal(t, len(want), p.NumFeatures())
}

func TestFeatureNames_StableAcrossCalls(t *testing.T) {
	for _, s := range All() {
		p := MustLookup(s)
		assert.Equal(t, p.FeatureNames(), p.FeatureNames(), "sport %s", s)
		assert.Len(t, p.FeatureNames(), p.NumFeatures())
	}
}

func TestLabelFor(t *testing.T) {
	football := MustLookup(Football)
	tennis := MustLookup(Tennis)

	tests := []struct {
		name    string
		profile Profile
		a, b    float64
		want    Label
		wantErr error
	}{
		{"home win", football, 2, 1, HomeWin, nil},
		{"away win", football, 0, 3, AwayWin, nil},
		{"draw", football, 1, 1, Draw, nil},
		{"tennis home", tennis, 3, 1, HomeWin, nil},
		{"tennis level", tennis, 2, 2, "", ErrDrawNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.profile.LabelFor(tt.a, tt.b)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProfiles_LabelTaxonomy(t *testing.T) {
	assert.True(t, MustLookup(Football).HasDraw())
	assert.True(t, MustLookup(Rugby).HasDraw())
	assert.True(t, MustLookup(Handball).HasDraw())
	assert.False(t, MustLookup(Basketball).HasDraw())
	assert.False(t, MustLookup(Tennis).HasDraw())

	p := MustLookup(Football)
	assert.Equal(t, 0, p.LabelIndex(HomeWin))
	assert.Equal(t, 1, p.LabelIndex(Draw))
	assert.Equal(t, 2, p.LabelIndex(AwayWin))
	assert.Equal(t, -1, MustLookup(Tennis).LabelIndex(Draw))
}

func TestIndex(t *testing.T) {
	for i, s := range All() {
		assert.Equal(t, i, Index(s))
	}
	assert.Equal(t, -1, Index(Sport("curling")))
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup(Sport("polo"))
	assert.ErrorIs(t, err, ErrUnknownSport)
}
