package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTriggerTimesCSV(t *testing.T) {
	c := Config{TriggerTimes: "16:30, 06:00,12:00"}
	got, err := c.ParseTriggerTimes()
	require.NoError(t, err)
	assert.Equal(t, []TimeOfDay{{Hour: 6}, {Hour: 12}, {Hour: 16, Minute: 30}}, got)
}

func TestParseTriggerTimesJSON(t *testing.T) {
	c := Config{TriggerTimes: `["12:00","06:00"]`}
	got, err := c.ParseTriggerTimes()
	require.NoError(t, err)
	assert.Equal(t, []TimeOfDay{{Hour: 6}, {Hour: 12}}, got)
}

func TestParseTriggerTimesRejectsBadInput(t *testing.T) {
	for _, raw := range []string{"", "25:00", "06:61", "noon", `["06:00"`} {
		c := Config{TriggerTimes: raw}
		_, err := c.ParseTriggerTimes()
		assert.Error(t, err, "input %q", raw)
	}
}

func TestNotificationShift(t *testing.T) {
	c := Config{CheckUpdatesInterval: 5 * time.Minute}
	assert.Equal(t, 10*time.Minute, c.NotificationShift())
}

func TestParseFirstDay(t *testing.T) {
	c := Config{}
	d, err := c.ParseFirstDay()
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	c.FirstDay = "2025-01-15"
	d, err = c.ParseFirstDay()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), d)

	c.FirstDay = "15/01/2025"
	_, err = c.ParseFirstDay()
	assert.Error(t, err)
}

func TestIgnoreCategorySet(t *testing.T) {
	c := Config{IgnoreCategories: []string{" deportes ", "", "sucesos"}}
	set := c.IgnoreCategorySet()
	assert.Contains(t, set, "deportes")
	assert.Contains(t, set, "sucesos")
	assert.Len(t, set, 2)
}
