package postcode

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairValidTokenIsUnchanged(t *testing.T) {
	for _, mode := range []Mode{Single, Exhaustive} {
		got, err := Repair("sw1a 1aa", mode)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "SW1A 1AA", got[0].Postcode)
		assert.Equal(t, 0, got[0].Distance)
		assert.False(t, got[0].Repaired())
		assert.Empty(t, got[0].Substitutions)
	}
}

func TestRepairExhaustive(t *testing.T) {
	got, err := Repair("OOO 4SS", Exhaustive)
	require.NoError(t, err)

	var postcodes []string
	var distances []int
	for _, c := range got {
		postcodes = append(postcodes, c.Postcode)
		distances = append(distances, c.Distance)
		assert.Equal(t, "OOO 4SS", c.Original)
		assert.True(t, IsValid(c.Postcode))
	}
	assert.Equal(t, []string{"O0O 4SS", "OO0 4SS", "O00 4SS"}, postcodes)
	assert.Equal(t, []int{-1, -1, -2}, distances)
}

func TestRepairSingle(t *testing.T) {
	got, err := Repair("OOO 4SS", Single)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "O0O 4SS", got[0].Postcode)
	assert.Equal(t, -1, got[0].Distance)
	assert.Equal(t, []Substitution{{Position: 1, From: "O", To: "0"}}, got[0].Substitutions)
}

func TestRepairCommonMisreads(t *testing.T) {
	tests := []struct {
		token string
		want  string
		dist  int
	}{
		{"SWIA IAA", "SW1A 1AA", -2},
		{"0W1 0AA", "OW1 0AA", -1},
		{"E3 455", "E3 4SS", -2},
		{"EC1R lUB", "EC1R 1UB", -1},
		{"N1 9A4", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := Repair(tt.token, Single)
			if tt.want == "" {
				assert.ErrorIs(t, err, ErrNoViableCorrection)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got[0].Postcode)
			assert.Equal(t, tt.dist, got[0].Distance)
		})
	}
}

func TestRepairErrors(t *testing.T) {
	_, err := Repair("A1", Single)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = Repair("SW1A#1AA", Exhaustive)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = Repair("XXXXXXX", Exhaustive)
	assert.ErrorIs(t, err, ErrNoViableCorrection)
}

func TestRepairObserver(t *testing.T) {
	var seen []Candidate
	r := NewRepairer(WithObserver(func(c Candidate) { seen = append(seen, c) }))

	_, err := r.Repair("SW1A 1AA", Single)
	require.NoError(t, err)
	assert.Empty(t, seen, "valid tokens are not repairs")

	_, err = r.Repair("OOO 4SS", Exhaustive)
	require.NoError(t, err)
	assert.Len(t, seen, 3)
}

func TestCandidateParsed(t *testing.T) {
	got, err := Repair("EC1R IUB", Single)
	require.NoError(t, err)
	p := got[0].Parsed()
	assert.Equal(t, "EC1", p.District)
	require.NotNil(t, p.SubDistrict)
	assert.Equal(t, "EC1R", *p.SubDistrict)
}

func TestFixable(t *testing.T) {
	assert.True(t, Fixable("SW1A 1AA"))
	assert.True(t, Fixable("SW1A IAA"))
	assert.True(t, Fixable("E3 455"))
	assert.False(t, Fixable("E3 4S4"))
	assert.False(t, Fixable("HELLOWORLD"))
	assert.False(t, Fixable("AB"))
}

// Every result of a repair must be a valid postcode, and the single result
// must be the first exhaustive result.
func TestRepairProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const alphabet = "ABDEGILOSZ0125689"

	for i := 0; i < 2000; i++ {
		n := 5 + rng.Intn(3)
		buf := make([]byte, n)
		for j := range buf {
			buf[j] = alphabet[rng.Intn(len(alphabet))]
		}
		token := string(buf)

		all, errAll := Repair(token, Exhaustive)
		one, errOne := Repair(token, Single)
		if errAll != nil {
			require.ErrorIs(t, errOne, ErrNoViableCorrection, token)
			continue
		}
		require.NoError(t, errOne, token)
		require.Len(t, one, 1)
		assert.Equal(t, all[0].Postcode, one[0].Postcode, token)

		seen := map[string]bool{}
		for k, c := range all {
			assert.True(t, IsValid(c.Postcode), c.Postcode)
			assert.Equal(t, -len(c.Substitutions), c.Distance)
			assert.False(t, seen[c.Postcode], "duplicate %s", c.Postcode)
			seen[c.Postcode] = true
			if k > 0 {
				assert.LessOrEqual(t, compareCandidates(all[k-1], c), 0)
			}
		}
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": Single, "single": Single, "Exhaustive": Exhaustive, "all": Exhaustive} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("some")
	assert.Error(t, err)
}
