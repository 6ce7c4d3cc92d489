package sage

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateApply(t *testing.T) {
	start := State{
		Topic:    "fusion",
		Analysts: FallbackRoster(),
		Cursor:   1,
		Sections: []string{"first"},
	}

	next := start.Apply(Update{
		Cursor:   ptr(2),
		Sections: []string{"second"},
		Failures: []InterviewFailure{{Analyst: start.Analysts[1], Error: "timeout"}},
	})

	want := State{
		Topic:    "fusion",
		Analysts: FallbackRoster(),
		Cursor:   2,
		Sections: []string{"first", "second"},
		Failures: []InterviewFailure{{Analyst: start.Analysts[1], Error: "timeout"}},
	}
	if diff := cmp.Diff(want, next); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}

	// The receiver is left alone.
	assert.Equal(t, 1, start.Cursor)
	assert.Equal(t, []string{"first"}, start.Sections)
	assert.Empty(t, start.Failures)
}

func TestStateApplyOverwritesScalars(t *testing.T) {
	s := State{Body: "old", Introduction: "old", Conclusion: "old", Final: "old"}
	next := s.Apply(Update{Body: ptr("b"), Introduction: ptr(""), Final: ptr("f")})

	assert.Equal(t, "b", next.Body)
	assert.Equal(t, "", next.Introduction)
	assert.Equal(t, "old", next.Conclusion)
	assert.Equal(t, "f", next.Final)
}

func TestStateApplyDoesNotAlias(t *testing.T) {
	roster := FallbackRoster()
	next := State{}.Apply(Update{Analysts: roster})
	roster[0].Name = "changed"
	assert.Equal(t, "Default Analyst 1", next.Analysts[0].Name)

	base := State{Sections: make([]string, 1, 4)}
	a := base.Apply(Update{Sections: []string{"a"}})
	b := base.Apply(Update{Sections: []string{"b"}})
	assert.Equal(t, "a", a.Sections[1])
	assert.Equal(t, "b", b.Sections[1])
}

func TestStateCheck(t *testing.T) {
	roster := FallbackRoster()
	tests := []struct {
		name    string
		state   State
		wantErr bool
	}{
		{"empty", State{}, false},
		{"fresh roster", State{Analysts: roster}, false},
		{"mid loop", State{Analysts: roster, Cursor: 2, Sections: []string{"a", "b"}}, false},
		{"all done", State{Analysts: roster, Cursor: 3, Sections: []string{"a", "b", "c"}}, false},
		{"cursor past roster", State{Analysts: roster, Cursor: 4, Sections: []string{"a", "b", "c", "d"}}, true},
		{"negative cursor", State{Analysts: roster, Cursor: -1}, true},
		{"section mismatch", State{Analysts: roster, Cursor: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Check()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvariant))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCurrentAnalyst(t *testing.T) {
	s := State{Analysts: FallbackRoster(), Cursor: 2}
	a, err := s.CurrentAnalyst()
	require.NoError(t, err)
	assert.Equal(t, "Policy Advisor", a.Role)
	assert.False(t, s.Done())

	s.Cursor = 3
	_, err = s.CurrentAnalyst()
	assert.ErrorIs(t, err, ErrNoAnalyst)
	assert.True(t, s.Done())
}

func TestAnalystValidate(t *testing.T) {
	assert.NoError(t, Analyst{Name: "A", Role: "R", Affiliation: "F"}.Validate())

	err := Analyst{Name: "A", Role: "  "}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role, affiliation")
}
