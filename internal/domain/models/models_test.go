package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaiseIsMonotone(t *testing.T) {
	assert.Equal(t, LevelYellow, Raise(LevelGreen, LevelYellow))
	assert.Equal(t, LevelRed, Raise(LevelRed, LevelGreen))
	assert.Equal(t, LevelRed, Raise(LevelYellow, LevelRed))
	assert.Equal(t, LevelYellow, Raise(LevelYellow, LevelYellow))
}

func TestDowngrade(t *testing.T) {
	assert.Equal(t, LevelYellow, Downgrade(LevelGreen))
	assert.Equal(t, LevelRed, Downgrade(LevelYellow))
	assert.Equal(t, LevelRed, Downgrade(LevelRed))
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, 0, LevelGreen.Severity())
	assert.Equal(t, 1, LevelYellow.Severity())
	assert.Equal(t, 2, LevelRed.Severity())
}

func TestLookbackDays(t *testing.T) {
	assert.Equal(t, 56, LookbackDays("8w"))
	assert.Equal(t, 1825, LookbackDays("5y"))
	assert.Panics(t, func() { LookbackDays("10y") })
}

func TestObservationJSONKeepsDate(t *testing.T) {
	in := Series{
		ObservationAt(time.Date(2024, 3, 1, 15, 4, 0, 0, time.UTC), 4.25),
		ObservationAt(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), 4.30),
	}

	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"date":"2024-03-01","value":4.25},{"date":"2024-03-02","value":4.3}]`, string(b))

	var out Series
	require.NoError(t, json.Unmarshal(b, &out))
	require.Len(t, out, 2)
	assert.True(t, out[0].Date.Equal(in[0].Date))
	assert.Equal(t, 4.30, out[1].Value)
}

func TestObservationJSONRejectsBadDate(t *testing.T) {
	var o Observation
	require.Error(t, json.Unmarshal([]byte(`{"date":"03/01/2024","value":1}`), &o))
}

func TestDashboardFinalLevel(t *testing.T) {
	var d *Dashboard
	assert.Equal(t, LevelGreen, d.FinalLevel())
	d = &Dashboard{Alert: &AlertInfo{Level: LevelRed}}
	assert.Equal(t, LevelRed, d.FinalLevel())
}
