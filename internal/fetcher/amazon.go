package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// Common user agents for rotation
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
}

var marketplaceDomains = map[string]string{
	"US": "www.amazon.com",
	"CA": "www.amazon.ca",
	"UK": "www.amazon.co.uk",
	"DE": "www.amazon.de",
	"FR": "www.amazon.fr",
	"IT": "www.amazon.it",
	"ES": "www.amazon.es",
	"JP": "www.amazon.co.jp",
	"AU": "www.amazon.com.au",
	"IN": "www.amazon.in",
}

var (
	rankPattern   = regexp.MustCompile(`#([\d,\.]+)\s+in\s+([^(#]+)`)
	numberPattern = regexp.MustCompile(`[\d,\.]+`)
)

// AmazonFetcher fetches product pages over HTTP and parses them with goquery.
type AmazonFetcher struct {
	client *http.Client
	retry  RetryConfig
	logger *slog.Logger
}

// NewAmazonFetcher creates an HTTP-backed fetcher with the given timeout.
func NewAmazonFetcher(timeout time.Duration, logger *slog.Logger) *AmazonFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AmazonFetcher{
		client: &http.Client{Timeout: timeout},
		retry:  DefaultRetryConfig(),
		logger: logger,
	}
}

// Fetch retrieves and parses the product page for an ASIN.
func (f *AmazonFetcher) Fetch(ctx context.Context, asin, marketplace string) (*ProductData, error) {
	domain, ok := marketplaceDomains[marketplace]
	if !ok {
		return nil, fmt.Errorf("%w: unknown marketplace %q", ErrInvalidPayload, marketplace)
	}

	url := fmt.Sprintf("https://%s/dp/%s", domain, asin)

	var data *ProductData
	err := WithRetry(ctx, f.retry, f.logger, func() error {
		doc, err := f.fetchPage(ctx, url)
		if err != nil {
			return err
		}
		data = f.parse(doc, asin, marketplace)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}

// fetchPage fetches a product page and returns a goquery document
func (f *AmazonFetcher) fetchPage(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Set headers to mimic a real browser
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Cache-Control", "max-age=0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrProductNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFetchFailed, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing HTML: %v", ErrFetchFailed, err)
	}

	return doc, nil
}

func (f *AmazonFetcher) parse(doc *goquery.Document, asin, marketplace string) *ProductData {
	data := &ProductData{
		ASIN:        asin,
		Marketplace: marketplace,
		Title:       strings.TrimSpace(doc.Find("#productTitle").First().Text()),
		Brand:       strings.TrimPrefix(strings.TrimSpace(doc.Find("#bylineInfo").First().Text()), "Brand: "),
	}

	if price := parsePrice(doc.Find("#corePrice_feature_div .a-offscreen").First().Text()); price != nil {
		data.Price = price
	}
	if orig := parsePrice(doc.Find(".basisPrice .a-offscreen").First().Text()); orig != nil {
		data.OriginalPrice = orig
	}
	data.Currency = parseCurrency(doc.Find("#corePrice_feature_div .a-price-symbol").First().Text())

	if data.Price != nil && data.OriginalPrice != nil && data.OriginalPrice.IsPositive() {
		discount := data.OriginalPrice.Sub(*data.Price).
			Div(*data.OriginalPrice).
			Mul(decimal.NewFromInt(100)).
			Round(2)
		data.DiscountPercent = &discount
	}

	availability := strings.TrimSpace(doc.Find("#availability span").First().Text())
	data.StockStatus = availability
	data.InStock = availability != "" && !strings.Contains(strings.ToLower(availability), "unavailable")

	if rating := parseRating(doc.Find("#acrPopover").AttrOr("title", "")); rating != nil {
		data.Rating = rating
	}
	if count := parseNumber(doc.Find("#acrCustomerReviewText").First().Text()); count != nil {
		data.ReviewCount = count
	}

	// Best Sellers Rank lines look like "#1,234 in Electronics (#56 in Headphones)"
	rankText := doc.Find("#productDetails_detailBullets_sections1 tr:contains('Best Sellers Rank') td").Text()
	if rankText == "" {
		rankText = doc.Find("#detailBulletsWrapper_feature_div li:contains('Best Sellers Rank')").Text()
	}
	for i, m := range rankPattern.FindAllStringSubmatch(rankText, 2) {
		rank := parseNumber(m[1])
		category := strings.TrimSpace(m[2])
		if i == 0 {
			data.MainRank, data.MainCategory = rank, category
		} else {
			data.SubRank, data.SubCategory = rank, category
		}
	}

	data.SellerName = strings.TrimSpace(doc.Find("#sellerProfileTriggerId").First().Text())
	if strings.Contains(doc.Find("#fulfillerInfoFeature_feature_div").Text(), "Amazon") {
		data.FulfilledBy = "FBA"
	} else if data.SellerName != "" {
		data.FulfilledBy = "FBM"
	}

	doc.Find("#feature-bullets li span.a-list-item").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			data.Features = append(data.Features, text)
		}
	})

	specs := map[string]string{}
	doc.Find("#productDetails_techSpec_section_1 tr").Each(func(_ int, s *goquery.Selection) {
		key := strings.TrimSpace(s.Find("th").Text())
		val := strings.TrimSpace(s.Find("td").Text())
		if key != "" && val != "" {
			specs[key] = val
		}
	})
	if len(specs) > 0 {
		data.Specs = specs
	}

	data.Description = strings.TrimSpace(doc.Find("#productDescription p").First().Text())
	data.ImageURL = doc.Find("#landingImage").AttrOr("src", "")

	return data
}

func parsePrice(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	m := numberPattern.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return nil
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return nil
	}
	return &d
}

func parseCurrency(symbol string) string {
	switch strings.TrimSpace(symbol) {
	case "$":
		return "USD"
	case "£":
		return "GBP"
	case "€":
		return "EUR"
	case "₹":
		return "INR"
	case "￥", "¥":
		return "JPY"
	default:
		return "USD"
	}
}

func parseRating(title string) *float64 {
	// e.g. "4.6 out of 5 stars"
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return nil
	}
	r, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil
	}
	return &r
}

func parseNumber(s string) *int {
	m := numberPattern.FindString(s)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return nil
	}
	return &n
}
