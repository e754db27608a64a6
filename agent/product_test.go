package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedalhaus/pedalhaus/store"
)

func TestExtractBudget(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"I'm looking for a mountain bike under 2000 euros", 2000},
		{"below €1500 please", 1500},
		{"max 800", 800},
		{"my budget is around... budget of €1200", 1200},
		{"something for 950 euro", 950},
		{"no budget mentioned here", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ExtractBudget(tc.in), tc.in)
	}
}

func TestCondenseProductQuery(t *testing.T) {
	assert.Equal(t, "mountain trail",
		CondenseProductQuery("I need a mountain bike for trail riding under 2000"))
	assert.Equal(t, "electric commuting",
		CondenseProductQuery("an electric bike for commuting to work"))
	// No whitelist hits: longest words win.
	got := CondenseProductQuery("something nice please")
	assert.NotEmpty(t, got)
	// Degenerate input still produces a query.
	assert.Equal(t, "bike", CondenseProductQuery("??"))
}

func TestExtractPreferences(t *testing.T) {
	var prefs store.Preferences
	ExtractPreferences("I want a mountain bike for trail riding under 2000 euro", &prefs)
	assert.Equal(t, "mountain", prefs.BikeType)
	assert.Equal(t, []string{"trail"}, prefs.IntendedUse)
	assert.Equal(t, 2000, prefs.BudgetEUR)

	// Existing bike type is kept; new uses accumulate without duplicates.
	ExtractPreferences("actually also for commuting, maybe a city bike", &prefs)
	assert.Equal(t, "mountain", prefs.BikeType)
	assert.Equal(t, []string{"trail", "commuting"}, prefs.IntendedUse)
}

func TestParseProduct(t *testing.T) {
	content := `{"id":1,"name":"Trailblazer 500","type":"mountain","brand":"Ridgeline","price_eur":1299,"frame_material":"aluminum","gears":21,"brakes":"hydraulic disc","intended_use":["trail","off-road"]}`
	rec, ok := parseProduct(content)
	require.True(t, ok)
	assert.Equal(t, 1, rec.ID)
	assert.Equal(t, "Trailblazer 500", rec.Name)
	assert.Equal(t, 1299, rec.PriceEUR)
	assert.Equal(t, "aluminum frame, 21 gears, hydraulic disc", rec.KeyFeatures)
	assert.Equal(t, []string{"trail", "off-road"}, rec.IntendedUse)
}

func TestParseProductEmbeddedJSON(t *testing.T) {
	content := `Product match: {"id":4,"name":"Urban Cruiser","price_eur":649,"frame_material":"steel","gears":7,"brakes":"rim"} (score 0.91)`
	rec, ok := parseProduct(content)
	require.True(t, ok)
	assert.Equal(t, "Urban Cruiser", rec.Name)
}

func TestParseProductGarbage(t *testing.T) {
	_, ok := parseProduct("not a product at all")
	assert.False(t, ok)
	_, ok = parseProduct(`{"no_name": true}`)
	assert.False(t, ok)
}

func TestProductSearchAppliesPriceCeiling(t *testing.T) {
	kb := &fakeSearcher{snippets: productSnippets(
		`{"id":2,"name":"Summit Pro X","price_eur":1899,"frame_material":"carbon","gears":24,"brakes":"hydraulic disc"}`,
		`{"id":5,"name":"Metro Glide E","price_eur":2499,"frame_material":"aluminum","gears":9,"brakes":"hydraulic disc"}`,
		`{"id":3,"name":"Rockhopper Lite","price_eur":849,"frame_material":"aluminum","gears":18,"brakes":"mechanical disc"}`,
	)}
	h := NewProductHandler(kb, nil)

	products := h.Search(context.Background(), "mountain bike", 2000)
	require.Len(t, products, 2)
	for _, p := range products {
		assert.LessOrEqual(t, p.PriceEUR, 2000)
	}
}

func TestProductSearchRetrievalFailure(t *testing.T) {
	kb := &fakeSearcher{err: errGenFailed}
	h := NewProductHandler(kb, nil)

	products := h.Search(context.Background(), "mountain bike", 0)
	assert.Empty(t, products)
}

func TestRecommendFallbackOnGenerationFailure(t *testing.T) {
	h := NewProductHandler(nil, &fakeGenerator{err: errGenFailed})
	products := []ProductRecord{
		{ID: 1, Name: "Trailblazer 500", Brand: "Ridgeline", PriceEUR: 1299, KeyFeatures: "aluminum frame, 21 gears, hydraulic disc", IntendedUse: []string{"trail"}},
	}

	text := h.Recommend(context.Background(), "mountain bike", products, store.Preferences{}, nil)
	assert.Contains(t, text, "Trailblazer 500")
	assert.Contains(t, text, "€1299")
}

func TestFAQSearchAndAnswer(t *testing.T) {
	kb := &fakeSearcher{snippets: productSnippets(
		"Q: What warranty do you offer?\nA: All bikes come with a 2-year warranty.",
	)}
	h := NewFAQHandler(kb, &fakeGenerator{err: errGenFailed})

	entries := h.Search(context.Background(), "what is the warranty?")
	require.Len(t, entries, 1)
	assert.Equal(t, "What warranty do you offer?", entries[0].Question)

	// Generation failure degrades to the top entry's answer.
	text := h.Answer(context.Background(), "what is the warranty?", entries)
	assert.Equal(t, "All bikes come with a 2-year warranty.", text)
}

func TestFAQAnswerNoEntries(t *testing.T) {
	h := NewFAQHandler(nil, nil)
	text := h.Answer(context.Background(), "anything", nil)
	assert.Equal(t, noFAQReply, text)
}
