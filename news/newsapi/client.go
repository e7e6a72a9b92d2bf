package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
)

const (
	DefaultBaseURL    = "https://newsapi.org/v2"
	ArticlesPerSymbol = 5
)

// ErrUpstream is returned when NewsAPI answers with a non-200 status.
var ErrUpstream = errors.New("news provider error")

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

func NewClient(c *http.Client, baseURL, apiKey string, logger *zap.Logger) Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  c,
		logger:  logger.With(zap.String("caller", "NewsAPIClient")),
	}
}

type everythingResp struct {
	Articles []struct {
		Title  string `json:"title"`
		URL    string `json:"url"`
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// SymbolNews returns the most recent English articles mentioning symbol.
func (c Client) SymbolNews(ctx context.Context, symbol string) ([]entities.Article, error) {
	logger := c.logger.With(zap.String("method", "SymbolNews"), zap.String("symbol", symbol))

	path, err := url.JoinPath(c.baseURL, "/everything")
	if err != nil {
		return nil, fmt.Errorf("build request url: %w", err)
	}
	params := url.Values{
		"q":        {symbol},
		"apiKey":   {c.apiKey},
		"pageSize": {strconv.Itoa(ArticlesPerSymbol)},
		"sortBy":   {"publishedAt"},
		"language": {"en"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	logger.Debug("finish run", zap.Duration("duration", time.Since(start)))
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrUpstream, symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w for %s: responded with %v http code", ErrUpstream, symbol, resp.StatusCode)
	}

	var r everythingResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w for %s: decode response: %w", ErrUpstream, symbol, err)
	}

	articles := make([]entities.Article, 0, len(r.Articles))
	for _, a := range r.Articles {
		articles = append(articles, entities.Article{
			Title:       a.Title,
			Source:      a.Source.Name,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
		})
	}

	return articles, nil
}

// News merges the articles of every distinct symbol. Any upstream failure
// aborts the whole request.
func (c Client) News(ctx context.Context, symbols []string) ([]entities.Article, error) {
	all := make([]entities.Article, 0, len(symbols)*ArticlesPerSymbol)
	for _, sym := range entities.NormalizeSymbols(symbols) {
		articles, err := c.SymbolNews(ctx, sym)
		if err != nil {
			return nil, err
		}
		all = append(all, articles...)
	}

	return all, nil
}
