package release

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.9", "1.10", -1},
		{"1.10", "1.9", 1},
		{"1.12", "1.12.0", 0},
		{"1.12.2", "1.12.2", 0},
		{"1.7.10", "1.12", -1},
		{"2", "1.99.99", 1},
		{"1.0.1", "1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			got, err := Compare(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompare_AntisymmetricAndReflexive(t *testing.T) {
	ids := []string{"1", "1.0", "1.7.10", "1.9", "1.10", "1.11", "1.12", "1.12.2", "1.12.2.1", "2.0"}

	for _, a := range ids {
		self, err := Compare(a, a)
		require.NoError(t, err)
		assert.Equal(t, 0, self, "compare(%s,%s)", a, a)

		for _, b := range ids {
			ab, err := Compare(a, b)
			require.NoError(t, err)
			ba, err := Compare(b, a)
			require.NoError(t, err)
			assert.Equal(t, ab, -ba, "compare(%s,%s) vs compare(%s,%s)", a, b, b, a)
		}
	}
}

func TestCompare_Malformed(t *testing.T) {
	for _, id := range []string{"", "1.x", "1..2", "1.-2", "1.+2", "v1.2", "1.2 "} {
		t.Run(id, func(t *testing.T) {
			_, err := Compare(id, "1.0")
			require.Error(t, err)

			var mve *MalformedVersionError
			require.True(t, errors.As(err, &mve))
			assert.Equal(t, id, mve.Release)
		})
	}
}

func TestSortAscending(t *testing.T) {
	sorted, err := SortAscending([]string{"1.12.2", "1.7.10", "1.10", "1.11", "1.8"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1.7.10", "1.8", "1.10", "1.11", "1.12.2"}, sorted)
}

func TestSortAscending_EqualKeysKeepOrder(t *testing.T) {
	sorted, err := SortAscending([]string{"1.12.0", "1.1", "1.12"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1", "1.12.0", "1.12"}, sorted)
}

func TestSortAscending_DoesNotMutateInput(t *testing.T) {
	input := []string{"1.10", "1.9"}
	_, err := SortAscending(input)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.10", "1.9"}, input)
}

func TestSortAscending_Malformed(t *testing.T) {
	_, err := SortAscending([]string{"1.10", "1.a"})
	var mve *MalformedVersionError
	require.ErrorAs(t, err, &mve)
	assert.Equal(t, "a", mve.Segment)
}

func TestPredecessorOf(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		known    []string
		want     string
		wantSome bool
	}{
		{"known contains current", "1.12.2", []string{"1.10", "1.11", "1.12.2", "1.7.10"}, "1.11", true},
		{"current not yet known", "1.12.2", []string{"1.10", "1.11", "1.7.10"}, "1.11", true},
		{"current is first", "1.7.10", []string{"1.10", "1.11", "1.7.10"}, "", false},
		{"no known releases", "1.12.2", nil, "", false},
		{"current older than newest", "1.10", []string{"1.12.2", "1.7.10"}, "1.7.10", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := PredecessorOf(tt.current, tt.known)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSome, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPredecessorOf_Malformed(t *testing.T) {
	_, _, err := PredecessorOf("1.12.2", []string{"1.x"})
	var mve *MalformedVersionError
	assert.ErrorAs(t, err, &mve)

	_, _, err = PredecessorOf("latest", nil)
	assert.ErrorAs(t, err, &mve)
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "1_12_2", Escape("1.12.2"))
	assert.Equal(t, "1", Escape("1"))
}
