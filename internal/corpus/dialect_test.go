package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	q := "SELECT x FROM postcodes WHERE a = ? AND b LIKE ? LIMIT ?"
	assert.Equal(t, q, SQLite.rebind(q))
	assert.Equal(t, "SELECT x FROM postcodes WHERE a = $1 AND b LIKE $2 LIMIT $3", Postgres.rebind(q))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `SW1\%\_\\`, escapeLike(`SW1%_\`))
	assert.Equal(t, "SW1A", escapeLike("SW1A"))
}

func TestCoverage(t *testing.T) {
	assert.Equal(t, 0.0, coverage(0, 0))
	assert.Equal(t, 85.71, coverage(6, 7))
	assert.Equal(t, 100.0, coverage(3, 3))
}
