package geoapify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

const spaceNeedle = `{
  "type": "Feature",
  "properties": {
    "place_id": "51a3",
    "name": "Space Needle",
    "categories": ["tourism", "tourism.attraction"],
    "formatted": "Space Needle, 400 Broad Street, Seattle, WA 98109, United States of America",
    "address_line1": "Space Needle",
    "address_line2": "400 Broad Street, Seattle, WA 98109",
    "city": "Seattle",
    "state": "Washington",
    "postcode": "98109",
    "country": "United States",
    "datasource": {"sourcename": "openstreetmap"},
    "wiki_and_media": {"wikipedia": "en:Space Needle"}
  },
  "geometry": {"type": "Point", "coordinates": [-122.3493, 47.6205]}
}`

func TestSource(t *testing.T) {
	assert.Equal(t, "geoapify", New().Source())
}

func TestNormalise_Success(t *testing.T) {
	rec, err := New().Normalise(context.Background(), &domain.RawRecord{
		Source:  SourceName,
		Content: []byte(spaceNeedle),
		Region:  "Seattle",
	})
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "51a3", rec.ID)
	assert.Equal(t, "Space Needle", rec.Name)
	assert.Equal(t, []string{"tourism", "tourism.attraction"}, rec.Categories)
	assert.Equal(t, "Seattle", rec.Address.City)
	assert.Equal(t, "Washington", rec.Address.State)
	assert.Equal(t, "98109", rec.Address.Postcode)
	assert.Equal(t, "United States", rec.Country())
	assert.Equal(t, "en:Space Needle", rec.WikiRef)
	assert.Equal(t, "openstreetmap", rec.Datasource)
	assert.Equal(t, "Seattle", rec.Region)
	assert.True(t, rec.HasCoordinates)
	assert.InDelta(t, 47.6205, rec.Lat, 1e-9)
	assert.InDelta(t, -122.3493, rec.Lon, 1e-9)
}

func TestNormalise_MissingWikiRef(t *testing.T) {
	raw := `{"properties":{"place_id":"p2","name":"Gum Wall"},"geometry":{"coordinates":[-122.34,47.60]}}`

	rec, err := New().Normalise(context.Background(), &domain.RawRecord{Content: []byte(raw)})

	assert.ErrorIs(t, err, domain.ErrEnrichmentMissing)
	assert.False(t, domain.IsRetryable(err))
	require.NotNil(t, rec)
	assert.Equal(t, "Gum Wall", rec.Name)
}

func TestNormalise_MissingCoordinates(t *testing.T) {
	raw := `{"properties":{"place_id":"p3","name":"Somewhere","wiki_and_media":{"wikipedia":"en:Somewhere"}}}`

	rec, err := New().Normalise(context.Background(), &domain.RawRecord{Content: []byte(raw)})

	require.NoError(t, err)
	assert.False(t, rec.HasCoordinates)
}

func TestNormalise_Invalid(t *testing.T) {
	n := New()
	ctx := context.Background()

	_, err := n.Normalise(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = n.Normalise(ctx, &domain.RawRecord{Content: []byte("not json")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = n.Normalise(ctx, &domain.RawRecord{Content: []byte(`{"properties":{"place_id":"x"}}`)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
