package fakeyou

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(voices []Voice) []string {
	out := make([]string, 0, len(voices))
	for _, v := range voices {
		out = append(out, v.Title)
	}
	return out
}

func TestVoicesByCategory(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv)

	assert.ElementsMatch(t, []string{"Goku", "Link"}, titles(c.VoicesByCategoryToken("CAT:anime")))
	assert.ElementsMatch(t, []string{"Mario", "Link"}, titles(c.VoicesByCategory(Category{CategoryToken: "CAT:games"})))
	assert.Empty(t, c.VoicesByCategoryToken("CAT:missing"))
}

func TestVoicesByCategoryEmptyCache(t *testing.T) {
	c := &Client{}
	assert.Empty(t, c.VoicesByCategoryToken("CAT:anime"))
	assert.Empty(t, c.Voices())
	assert.Empty(t, c.Categories())
}

func TestCatalogReturnsCopies(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv)

	voices := c.Voices()
	voices[0].Title = "changed"
	voices[0].CategoryTokens[0] = "changed"
	cats := c.Categories()
	cats[0].Title = "changed"

	assert.NotEqual(t, "changed", c.Voices()[0].Title)
	assert.NotEqual(t, "changed", c.Voices()[0].CategoryTokens[0])
	assert.NotEqual(t, "changed", c.Categories()[0].Title)
}

func TestVoiceByToken(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv)

	v, ok := c.VoiceByToken("TM:mario")
	require.True(t, ok)
	assert.Equal(t, "Mario", v.Title)

	_, ok = c.VoiceByToken("TM:nobody")
	assert.False(t, ok)
}

func TestRefreshIsAllOrNothing(t *testing.T) {
	tests := []struct {
		name       string
		categories string
		voices     string
		status     int
		wantErr    error
	}{
		{
			name:       "category missing field",
			categories: `{"categories":[{"name":"A","category_token":"CAT:a"}]}`,
			voices:     testVoices,
			wantErr:    ErrImproperResponse,
		},
		{
			name:       "category non string field",
			categories: `{"categories":[{"name":1,"category_token":"CAT:a","model_type":"tts"}]}`,
			voices:     testVoices,
			wantErr:    ErrImproperResponse,
		},
		{
			name:       "categories not an array",
			categories: `{"categories":null}`,
			voices:     testVoices,
			wantErr:    ErrImproperResponse,
		},
		{
			name:       "voice token not a string",
			categories: testCategories,
			voices:     `{"models":[{"title":"A","model_token":"TM:a","category_tokens":["CAT:a",7]}]}`,
			wantErr:    ErrImproperResponse,
		},
		{
			name:       "voice tokens missing",
			categories: testCategories,
			voices:     `{"models":[{"title":"A","model_token":"TM:a"}]}`,
			wantErr:    ErrImproperResponse,
		},
		{
			name:       "malformed json",
			categories: testCategories,
			voices:     `{"models":[`,
			wantErr:    ErrSerialization,
		},
		{
			name:       "rate limited",
			categories: testCategories,
			voices:     testVoices,
			status:     http.StatusTooManyRequests,
			wantErr:    ErrTooManyRequests,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, srv := newFakeService(t)
			c := newTestClient(t, srv)
			beforeVoices := c.Voices()
			beforeCategories := c.Categories()
			beforeGenerated := c.CacheGenerated()

			f.set(func(f *fakeService) {
				f.categoriesBody = tt.categories
				f.voicesBody = tt.voices
				if tt.status != 0 {
					f.listStatus = tt.status
				}
			})

			err := c.Refresh(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, beforeVoices, c.Voices())
			assert.Equal(t, beforeCategories, c.Categories())
			assert.Equal(t, beforeGenerated, c.CacheGenerated())
		})
	}
}

func TestRefreshReplacesWholesale(t *testing.T) {
	f, srv := newFakeService(t)
	c := newTestClient(t, srv)
	before := c.CacheGenerated()

	f.set(func(f *fakeService) {
		f.categoriesBody = `{"categories":[{"name":"New","category_token":"CAT:new","model_type":"vc"}]}`
		f.voicesBody = `{"models":[{"title":"Solo","model_token":"TM:solo","category_tokens":["CAT:unknown"]}]}`
	})
	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, []Category{{Title: "New", CategoryToken: "CAT:new", ModelType: "vc"}}, c.Categories())
	assert.Equal(t, []Voice{{Title: "Solo", ModelToken: "TM:solo", CategoryTokens: []string{"CAT:unknown"}}}, c.Voices())
	assert.False(t, c.CacheGenerated().Before(before))
}
