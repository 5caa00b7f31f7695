package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateTrend(t *testing.T) {
	now := time.Now().UTC()
	valid := func() *Trend {
		return &Trend{
			ID:        "tr_1",
			Name:      "Quiet Luxury",
			Category:  "luxury",
			Scores:    Scores{Trend: 0.8, GrowthRate: 40, Sustainability: 0.5},
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Trend)
		wantErr string
	}{
		{name: "valid trend", mutate: func(*Trend) {}},
		{name: "growth above 100 is allowed", mutate: func(t *Trend) { t.Scores.GrowthRate = 240 }},
		{name: "empty id", mutate: func(t *Trend) { t.ID = "" }, wantErr: "id"},
		{name: "blank name", mutate: func(t *Trend) { t.Name = "  " }, wantErr: "name"},
		{name: "trend score above one", mutate: func(t *Trend) { t.Scores.Trend = 1.2 }, wantErr: "scores.trend"},
		{name: "negative sustainability", mutate: func(t *Trend) { t.Scores.Sustainability = -0.1 }, wantErr: "scores.sustainability"},
		{name: "gender split off", mutate: func(t *Trend) {
			t.Demographics.GenderSplit = map[string]int{"female": 60, "male": 30}
		}, wantErr: "gender_split"},
		{name: "updated before created", mutate: func(t *Trend) { t.UpdatedAt = now.Add(-time.Hour) }, wantErr: "updated_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := valid()
			tt.mutate(tr)
			err := ValidateTrend(tr)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.Error(t, ValidateTrend(nil))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(1.4, 0, 1))
	assert.Equal(t, 0.0, Clamp(-3, 0, 1))
	assert.Equal(t, 0.25, Clamp(0.25, 0, 1))
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 1))
	assert.False(t, InUnit(math.NaN()))
}
