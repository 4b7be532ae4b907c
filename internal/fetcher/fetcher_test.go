package fetcher

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProductData_Validate(t *testing.T) {
	t.Parallel()

	valid := func() *ProductData {
		price := decimal.NewFromFloat(99.99)
		rank := 120
		rating := 4.7
		reviews := 1500
		return &ProductData{
			ASIN:        "B08N5WRWNW",
			Marketplace: "US",
			Price:       &price,
			SubRank:     &rank,
			Rating:      &rating,
			ReviewCount: &reviews,
			InStock:     true,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ProductData)
		wantErr bool
	}{
		{"valid payload", func(*ProductData) {}, false},
		{"missing asin", func(d *ProductData) { d.ASIN = "" }, true},
		{"missing marketplace", func(d *ProductData) { d.Marketplace = "" }, true},
		{"negative price", func(d *ProductData) {
			neg := decimal.NewFromInt(-1)
			d.Price = &neg
		}, true},
		{"nil price is fine", func(d *ProductData) { d.Price = nil }, false},
		{"negative rank", func(d *ProductData) {
			r := -5
			d.SubRank = &r
		}, true},
		{"rating above five", func(d *ProductData) {
			r := 5.1
			d.Rating = &r
		}, true},
		{"negative review count", func(d *ProductData) {
			n := -1
			d.ReviewCount = &n
		}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := valid()
			tt.mutate(data)

			err := data.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPayload)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain dollars", "$49.99", "49.99"},
		{"thousands separator", "$1,299.00", "1299"},
		{"euro", "€23.50", "23.5"},
		{"whitespace", "  $5.00  ", "5"},
		{"empty", "", ""},
		{"no digits", "unavailable", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parsePrice(tt.input)
			if tt.want == "" {
				assert.Nil(t, got)
			} else {
				assert.NotNil(t, got)
				assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
			}
		})
	}
}

func TestParseCurrency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		symbol string
		want   string
	}{
		{"$", "USD"},
		{"£", "GBP"},
		{"€", "EUR"},
		{"₹", "INR"},
		{"¥", "JPY"},
		{"", "USD"}, // default
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.want+"_"+tt.symbol, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseCurrency(tt.symbol))
		})
	}
}

func TestParseRating(t *testing.T) {
	t.Parallel()

	got := parseRating("4.6 out of 5 stars")
	assert.NotNil(t, got)
	assert.Equal(t, 4.6, *got)

	assert.Nil(t, parseRating(""))
	assert.Nil(t, parseRating("no rating"))
}

func TestParseNumber(t *testing.T) {
	t.Parallel()

	got := parseNumber("1,500 ratings")
	assert.NotNil(t, got)
	assert.Equal(t, 1500, *got)

	assert.Nil(t, parseNumber("none"))
}

func TestRankPattern(t *testing.T) {
	t.Parallel()

	text := "#1,234 in Electronics (#56 in Smart Speakers)"
	matches := rankPattern.FindAllStringSubmatch(text, 2)

	assert.Len(t, matches, 2)
	assert.Equal(t, "1,234", matches[0][1])
	assert.Equal(t, "Electronics ", matches[0][2])
	assert.Equal(t, "56", matches[1][1])
}
