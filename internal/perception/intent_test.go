package perception

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	tests := []struct {
		input  string
		intent Intent
		value  *float64
		index  *int
	}{
		{"", IntentUnknown, nil, nil},
		{"   ", IntentUnknown, nil, nil},
		{"quit", IntentQuit, nil, nil},
		{"Q", IntentQuit, nil, nil},
		{"No", IntentQuit, nil, nil},
		{"yes", IntentAccept, nil, nil},
		{" OK ", IntentAccept, nil, nil},
		{"show options", IntentUnknown, floatp(-1), nil},
		{"compare them", IntentUnknown, floatp(-1), nil},
		{"list", IntentUnknown, floatp(-1), nil},
		{"B", IntentAccept, nil, intp(1)},
		{"option c", IntentAccept, nil, intp(2)},
		{"1", IntentAccept, nil, intp(0)},
		{"option 4", IntentAccept, nil, intp(3)},
		{"$5", IntentAdjustBudget, floatp(5), nil},
		{"$0.10", IntentAdjustBudget, floatp(0.10), nil},
		{"under $0.10", IntentAdjustBudget, floatp(0.10), nil},
		{"can we do $2?", IntentAdjustBudget, floatp(2), nil},
		{"cheaper please", IntentAdjustBudget, nil, nil},
		{"at least 90%", IntentAdjustQuality, floatp(0.9), nil},
		{"better quality", IntentAdjustQuality, nil, nil},
		{"under 5 minutes", IntentAdjustTime, floatp(300), nil},
		{"within 45 sec", IntentAdjustTime, floatp(45), nil},
		{"faster", IntentAdjustTime, nil, nil},
		{"only 50 sites", IntentAdjustScope, floatp(50), nil},
		{"reduce to 20", IntentAdjustScope, floatp(20), nil},
		{"what is this", IntentUnknown, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseInput(tt.input, 5)
			assert.Equal(t, tt.intent, got.Intent)
			if tt.value == nil {
				assert.Nil(t, got.Value)
			} else {
				require.NotNil(t, got.Value)
				assert.InDelta(t, *tt.value, *got.Value, 1e-9)
			}
			assert.Equal(t, tt.index, got.ChosenIndex)
		})
	}
}

func TestOptionOutOfRange(t *testing.T) {
	// "e" with four options is not a selection and matches nothing else.
	got := ParseInput("e", 4)
	assert.Equal(t, IntentUnknown, got.Intent)
	assert.Nil(t, got.ChosenIndex)

	got = ParseInput("9", 4)
	assert.Equal(t, IntentUnknown, got.Intent)

	got = ParseInput("0", 4)
	assert.Equal(t, IntentUnknown, got.Intent)

	got = ParseInput("e", 5)
	require.NotNil(t, got.ChosenIndex)
	assert.Equal(t, 4, *got.ChosenIndex)
}

func TestRuleOrder(t *testing.T) {
	// Budget is checked before quality and time.
	assert.Equal(t, IntentAdjustBudget, ParseInput("better but cheaper", 4).Intent)
	assert.Equal(t, IntentAdjustQuality, ParseInput("better and faster", 4).Intent)
	// "under $" wins over "under N min".
	assert.Equal(t, IntentAdjustBudget, ParseInput("under $3 and under 5 min", 4).Intent)
	// The show-options check precedes option selection.
	assert.True(t, ParseInput("list", 4).ShowOptions())
	assert.False(t, ParseInput("what", 4).ShowOptions())
}

func TestIsAdjustment(t *testing.T) {
	assert.True(t, ParseInput("faster", 4).IsAdjustment())
	assert.False(t, ParseInput("only 10", 4).IsAdjustment())
	assert.False(t, ParseInput("yes", 4).IsAdjustment())
}

func TestOptionLabel(t *testing.T) {
	assert.Equal(t, "A", OptionLabel(0))
	assert.Equal(t, "E", OptionLabel(4))
	assert.Equal(t, "H", OptionLabel(7))
	assert.Equal(t, "9", OptionLabel(8))
}

func floatp(v float64) *float64 { return &v }
func intp(v int) *int { return &v }
