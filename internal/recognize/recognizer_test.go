package recognize

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukpostcodes/internal/corpus/corpustest"
	"github.com/ukpostcodes/internal/directory"
	"github.com/ukpostcodes/internal/postcode"
)

func newRecognizer(t *testing.T) *Recognizer {
	t.Helper()
	return New(directory.New(corpustest.Memory()))
}

func TestParseText(t *testing.T) {
	r := newRecognizer(t)
	got := r.ParseText(context.Background(), "Contact us at SW1A 1AA or try E3 4SS", postcode.Single)
	require.Len(t, got, 2)

	assert.Equal(t, "SW1A 1AA", got[0].Postcode)
	assert.Equal(t, "SW1A 1AA", got[0].Original)
	assert.Equal(t, 0, got[0].Distance)
	assert.True(t, got[0].InDirectory)
	assert.Equal(t, directory.Found, got[0].Status)
	require.NotNil(t, got[0].Record)
	assert.Equal(t, "Westminster", got[0].Record.Administrative.District)
	assert.Equal(t, 14, got[0].Offset)

	assert.Equal(t, "E3 4SS", got[1].Postcode)
	assert.Equal(t, "E3", got[1].Outcode)
	assert.Nil(t, got[1].SubDistrict)
}

func TestParseTextExhaustiveNotInDirectory(t *testing.T) {
	r := newRecognizer(t)
	got := r.ParseText(context.Background(), "OOO 4SS", postcode.Exhaustive)
	require.Len(t, got, 3)
	for _, g := range got {
		assert.False(t, g.InDirectory)
		assert.Equal(t, directory.NotFound, g.Status)
		assert.Equal(t, "OOO 4SS", g.Original)
	}
}

func TestParseTextStrict(t *testing.T) {
	r := newRecognizer(t)
	got := r.ParseTextStrict(context.Background(), "SWIA IAA and N1 9AA")
	require.Len(t, got, 1)
	assert.Equal(t, "N1 9AA", got[0].Postcode)
}

func TestParseTextDegraded(t *testing.T) {
	r := New(directory.New(corpustest.Broken{}))
	got := r.ParseText(context.Background(), "SW1A 1AA", postcode.Single)
	require.Len(t, got, 1)
	assert.Equal(t, directory.Unavailable, got[0].Status)
	assert.False(t, got[0].InDirectory)

	got = New(nil).ParseText(context.Background(), "SW1A 1AA", postcode.Single)
	require.Len(t, got, 1)
	assert.Equal(t, directory.Unavailable, got[0].Status)
}

func TestParseTextStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, newRecognizer(t).ParseText(ctx, "SW1A 1AA E3 4SS", postcode.Single))
}

func TestParseOne(t *testing.T) {
	r := newRecognizer(t)
	ctx := context.Background()

	got, err := r.ParseOne(ctx, "sw1a1aa", false)
	require.NoError(t, err)
	assert.Equal(t, "SW1A 1AA", got.Postcode)
	assert.Equal(t, -1, got.Offset)
	assert.True(t, got.InDirectory)

	_, err = r.ParseOne(ctx, "0W1 0AA", false)
	assert.ErrorIs(t, err, postcode.ErrInvalidFormat)

	got, err = r.ParseOne(ctx, "0W1 0AA", true)
	require.NoError(t, err)
	assert.Equal(t, "OW1 0AA", got.Postcode)
	assert.Equal(t, -1, got.Distance)
	assert.False(t, got.InDirectory)

	got, err = r.ParseOne(ctx, "SWIA IAA", true)
	require.NoError(t, err)
	assert.Equal(t, "SW1A 1AA", got.Postcode)
	assert.Equal(t, "SWIA IAA", got.Original)
	assert.True(t, got.InDirectory)
	assert.Equal(t, 80, got.Score())

	_, err = r.ParseOne(ctx, "XXXXXXX", true)
	assert.ErrorIs(t, err, postcode.ErrNoViableCorrection)

	_, err = r.ParseOne(ctx, "SW1A!1AA", true)
	assert.ErrorIs(t, err, postcode.ErrInvalidFormat)
}

func TestParseOneLogsNewport(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := New(nil, WithLogger(logger))

	_, err := r.ParseOne(context.Background(), "NPT 1AA", true)
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "NPT Newport")
}

func TestRepairObserverIsWired(t *testing.T) {
	var repaired []string
	rep := postcode.NewRepairer(postcode.WithObserver(func(c postcode.Candidate) {
		repaired = append(repaired, c.Original+"=>"+c.Postcode)
	}))
	r := New(nil, WithRepairer(rep))

	r.ParseText(context.Background(), "SW1A 1AA and E3 455", postcode.Single)
	assert.Equal(t, []string{"E3 455=>E3 4SS"}, repaired)
}
