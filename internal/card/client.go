package card

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxSuggestions caps how many autocomplete entries a fallback returns
const maxSuggestions = 3

// ErrCardNotFound indicates the provider has no card matching the name,
// even with fuzzy matching applied
var ErrCardNotFound = errors.New("card not found")

// RulingSource resolves a card name to rulings or near-name suggestions
type RulingSource interface {
	Lookup(ctx context.Context, name string) (*LookupResult, error)
}

// ScryfallClient implements RulingSource against the Scryfall REST API
type ScryfallClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewScryfallClient creates a new ScryfallClient. baseURL defaults to the
// public Scryfall API when empty.
func NewScryfallClient(baseURL string, version string) *ScryfallClient {
	if baseURL == "" {
		baseURL = "https://api.scryfall.com"
	}

	return &ScryfallClient{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: fmt.Sprintf("rules-lawyer/%s", version),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// namedCard is the slice of the provider's card object that the lookup
// consumes. rulings_uri points at the card's rulings collection.
type namedCard struct {
	Name       string `json:"name"`
	RulingsURI string `json:"rulings_uri"`
}

// The provider wraps lists in a data envelope. Rulings pages carry ruling
// objects; autocomplete pages carry plain name strings.
type rulingsPage struct {
	Data []Ruling `json:"data"`
}

type autocompletePage struct {
	Data []string `json:"data"`
}

// Lookup resolves a candidate name through the fuzzy-named endpoint and
// follows its rulings link. Every failure on the primary path, from a
// transport error to a card object without a rulings link, funnels into
// the autocomplete fallback so a misread name still gets the user close.
// An empty fallback is a valid "nothing found" result, not an error.
func (c *ScryfallClient) Lookup(ctx context.Context, name string) (*LookupResult, error) {
	matched, rulings, err := c.fetchRulings(ctx, name)
	if err == nil {
		return &LookupResult{CardName: matched, Rulings: rulings}, nil
	}
	if !errors.Is(err, ErrCardNotFound) {
		slog.Warn("Primary lookup failed, falling back to autocomplete", "name", name, "error", err)
	}

	suggestions, err := c.fetchSuggestions(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("autocomplete fallback: %w", err)
	}
	return &LookupResult{CardName: name, Suggestions: suggestions}, nil
}

// fetchRulings resolves the name via fuzzy match and follows rulings_uri.
// Returns the provider's canonical card name alongside the rulings.
func (c *ScryfallClient) fetchRulings(ctx context.Context, name string) (string, []Ruling, error) {
	lookupURL := fmt.Sprintf("%s/cards/named?fuzzy=%s", c.baseURL, url.QueryEscape(name))

	var card namedCard
	if err := c.getJSON(ctx, lookupURL, &card); err != nil {
		return "", nil, err
	}
	if card.RulingsURI == "" {
		return "", nil, fmt.Errorf("card %q: %w", name, ErrCardNotFound)
	}

	var page rulingsPage
	if err := c.getJSON(ctx, card.RulingsURI, &page); err != nil {
		return "", nil, fmt.Errorf("fetching rulings: %w", err)
	}

	matched := card.Name
	if matched == "" {
		matched = name
	}
	return matched, page.Data, nil
}

// fetchSuggestions queries the autocomplete endpoint and returns at most
// maxSuggestions entries, in provider order
func (c *ScryfallClient) fetchSuggestions(ctx context.Context, name string) ([]string, error) {
	autocompleteURL := fmt.Sprintf("%s/cards/autocomplete?q=%s", c.baseURL, url.QueryEscape(name))

	var page autocompletePage
	if err := c.getJSON(ctx, autocompleteURL, &page); err != nil {
		return nil, err
	}

	suggestions := page.Data
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions, nil
}

// getJSON performs a GET and decodes the JSON body into out. A 404 maps
// to ErrCardNotFound; other non-2xx statuses surface as errors with the
// response body attached.
func (c *ScryfallClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling card API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrCardNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("card API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
