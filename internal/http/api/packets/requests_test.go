package packets

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/pocketbuddy/internal/model"
)

func TestDurationDecodes(t *testing.T) {
	cases := map[string]Duration{
		`90`:          90,
		`89.6`:        90,
		`"2 minutes"`: 120,
		`"1:30"`:      90,
		`86400`:       model.MaxDurationSeconds,
	}
	for raw, want := range cases {
		var d Duration
		require.NoError(t, json.Unmarshal([]byte(raw), &d), raw)
		assert.Equal(t, want, d, raw)
	}
}

func TestDurationRejectsOutOfRange(t *testing.T) {
	for _, raw := range []string{
		`-1`,
		`1e300`,
		`86401`,
		`"99999999999999999999 hours"`,
		`"forever"`,
		`true`,
	} {
		var d Duration
		err := json.Unmarshal([]byte(raw), &d)
		require.Error(t, err, raw)
		assert.ErrorIs(t, err, model.ErrInvalidDuration, raw)
		assert.Zero(t, d, raw)
	}
}

func TestCreateExerciseRequestRejectsHugeDuration(t *testing.T) {
	var req CreateExerciseRequest
	err := json.Unmarshal([]byte(`{"name":"Frog","category":"cardio","duration":1e300}`), &req)
	assert.ErrorIs(t, err, model.ErrInvalidDuration)
}
