package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	it, ok := c.Get("code-loom")
	require.True(t, ok)
	assert.Equal(t, "Code Loom", it.Name)
	assert.True(t, it.Price.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "INR", c.Currency)

	_, ok = c.Get("CODE-LOOM")
	assert.True(t, ok, "lookups are case-insensitive")
}

func TestTotal(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	total, err := c.Total([]string{"code-loom", "robo-race", "tech-quiz"})
	require.NoError(t, err)
	assert.Equal(t, "350", total.String())

	_, err = c.Total(nil)
	assert.ErrorIs(t, err, ErrSelectionSize)

	_, err = c.Total([]string{"code-loom", "robo-race", "tech-quiz", "hack-sprint"})
	assert.ErrorIs(t, err, ErrSelectionSize)

	_, err = c.Total([]string{"code-loom", "code-loom"})
	assert.ErrorIs(t, err, ErrDuplicateEvent)

	_, err = c.Total([]string{"nope"})
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestSpotPriceFallsBackToPrice(t *testing.T) {
	c, err := Parse([]byte(`
events:
  - slug: demo
    name: Demo
    price: "75.50"
`))
	require.NoError(t, err)
	sp, err := c.SpotPrice("demo")
	require.NoError(t, err)
	assert.Equal(t, "75.5", sp.String())
	it, _ := c.Get("demo")
	assert.Equal(t, 1, it.TeamSize)
}

func TestParseRejectsBadEntries(t *testing.T) {
	_, err := Parse([]byte("events:\n  - slug: a\n    name: A\n    price: free\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("events:\n  - slug: a\n    name: A\n    price: \"1\"\n  - slug: A\n    name: B\n    price: \"2\"\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "events.yaml")
	require.NoError(t, os.WriteFile(p, []byte("events:\n  - slug: solo\n    name: Solo\n    price: \"10\"\n"), 0o600))

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "Solo", c.Names([]string{"solo"}))

	c, err = Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	_, ok := c.Get("code-loom")
	assert.True(t, ok)
}

func TestNamesAndModels(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "Code Loom, Robo Race", c.Names([]string{"code-loom", "robo-race"}))

	rows := c.Models()
	require.Len(t, rows, len(c.Events))
	assert.Equal(t, "code-loom", rows[0].EventSlug)
	require.NotNil(t, rows[0].EventMaxParticipants)
	assert.Equal(t, 200, *rows[0].EventMaxParticipants)
}

func TestParseDerivesSlugs(t *testing.T) {
	c, err := Parse([]byte("events:\n  - name: Hack Sprint 2.0\n    price: \"50\"\n  - slug: \" Robo_Race \"\n    name: Robo Race\n    price: \"200\"\n"))
	require.NoError(t, err)
	_, ok := c.Get("hack-sprint-2-0")
	assert.True(t, ok)
	_, ok = c.Get("robo-race")
	assert.True(t, ok)

	_, err = Parse([]byte("events:\n  - slug: x\n    price: \"1\"\n"))
	assert.Error(t, err)
}
