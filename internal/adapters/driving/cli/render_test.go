package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

func TestRenderer_Answer(t *testing.T) {
	t.Run("detailed", func(t *testing.T) {
		buf := new(bytes.Buffer)
		r, err := newRenderer(buf, formatDetailed)
		require.NoError(t, err)
		assert.False(t, r.colour)

		r.Answer(spaceNeedleAnswer())

		assert.Equal(t, `The Space Needle is an observation tower [1].

Sources
  [1] Space Needle
      Seattle, Washington, United States
      id=p1 score=0.912
  [2] Pike Place Market
      id=p2 score=0.500
`, buf.String())
	})

	t.Run("compact", func(t *testing.T) {
		buf := new(bytes.Buffer)
		r, err := newRenderer(buf, formatCompact)
		require.NoError(t, err)

		r.Answer(spaceNeedleAnswer())

		assert.Equal(t, "The Space Needle is an observation tower [1].\n\nSources: [1] Space Needle, [2] Pike Place Market\n", buf.String())
	})

	t.Run("no sources", func(t *testing.T) {
		buf := new(bytes.Buffer)
		r, err := newRenderer(buf, formatDetailed)
		require.NoError(t, err)

		r.Answer(&domain.Answer{Text: domain.InsufficientInformation, NoContext: true})

		assert.Equal(t, domain.InsufficientInformation+"\n", buf.String())
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := newRenderer(new(bytes.Buffer), "fancy")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSourceName(t *testing.T) {
	assert.Equal(t, "Space Needle", sourceName(domain.Document{ID: "p1", Metadata: map[string]any{domain.MetaName: "Space Needle"}}))
	assert.Equal(t, "p9", sourceName(domain.Document{ID: "p9"}))
}
