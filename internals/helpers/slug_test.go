package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Code Loom":       "code-loom",
		"  Robo__Race!! ": "robo-race",
		"Café Débat":      "cafe-debat",
		"Hack Sprint 2.0": "hack-sprint-2-0",
		"---":             "item",
		"":                "item",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in, 0), in)
	}
	assert.Equal(t, "abc", Slugify("abc-def", 4))
}
