package corpus_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/ukpostcodes/internal/corpus"
)

const snapshot = `Postcode,Latitude,Longitude,Eastings,Northings,Country,District,Unused
SW1A 1AA,51.501009,-0.141588,529090,179645,England,Westminster,x
e3 4ss,51.5403,-0.026,,,England,Tower Hamlets,y
EC1R1UB,,-0.1,,,England,Islington,z
,1,2,,,England,Nowhere,q
`

func TestReadCSV(t *testing.T) {
	records, err := corpus.ReadCSV(strings.NewReader(snapshot))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "SW1A 1AA", records[0].Postcode)
	assert.Equal(t, "SW1A", records[0].Outcode)
	assert.Equal(t, "1AA", records[0].Incode)
	require.NotNil(t, records[0].Coordinates)
	assert.Equal(t, 179645, *records[0].Coordinates.Northings)

	assert.Equal(t, "E3 4SS", records[1].Postcode)
	assert.Nil(t, records[1].Coordinates.Eastings)
	assert.Equal(t, "Tower Hamlets", records[1].Administrative.District)

	assert.Equal(t, "EC1R 1UB", records[2].Postcode)
	assert.Nil(t, records[2].Coordinates, "latitude missing")
}

func TestReadCSVRequiresPostcodeColumn(t *testing.T) {
	_, err := corpus.ReadCSV(strings.NewReader("lat,lon\n1,2\n"))
	assert.Error(t, err)

	_, err = corpus.ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestLoadCSVCompressed(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "postcodes.csv")
	require.NoError(t, os.WriteFile(plain, []byte(snapshot), 0o644))

	packed := filepath.Join(dir, "postcodes.csv.xz")
	f, err := os.Create(packed)
	require.NoError(t, err)
	w, err := xz.NewWriter(f)
	require.NoError(t, err)
	_, err = w.Write([]byte(snapshot))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	for _, path := range []string{plain, packed} {
		m, err := corpus.LoadCSV(path)
		require.NoError(t, err, path)
		assert.Equal(t, 3, m.Len())

		r, err := m.Lookup(context.Background(), "E34SS")
		require.NoError(t, err)
		require.NotNil(t, r)

		st, err := m.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, path, st.Source)
		assert.Len(t, st.SourceFingerprint, 64)
		assert.Positive(t, st.SourceSizeBytes)
	}
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := corpus.LoadCSV(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	require.NoError(t, os.WriteFile(a, []byte("release 2024-11"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("release 2025-02"), 0o644))

	fa, err := corpus.Fingerprint(a)
	require.NoError(t, err)
	again, err := corpus.Fingerprint(a)
	require.NoError(t, err)
	fb, err := corpus.Fingerprint(b)
	require.NoError(t, err)

	assert.Equal(t, fa, again)
	assert.NotEqual(t, fa, fb)
}
