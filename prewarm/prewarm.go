// Package prewarm provides cache prewarming and prefetching for httpcache.
// It allows proactive cache population before requests arrive, reducing
// initial latency for known critical resources.
package prewarm

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meridiancache/httpcache"
)

// Prewarmer proactively loads URLs into the cache via an *http.Client whose
// Transport is an httpcache.Transport.
type Prewarmer struct {
	client       *http.Client
	userAgent    string
	timeout      time.Duration
	forceRefresh bool
}

// Config holds configuration options for the Prewarmer.
type Config struct {
	// Client is the HTTP client to use for requests. It should be
	// configured with an httpcache.Transport to enable caching. Required.
	Client *http.Client
	// UserAgent is the User-Agent string to use for requests. Defaults to
	// "httpcache-prewarmer/1.0".
	UserAgent string
	// Timeout is the timeout for each individual request. Defaults to 30s.
	Timeout time.Duration
	// ForceRefresh adds Cache-Control: no-cache to bypass any cached
	// response and force revalidation against the origin.
	ForceRefresh bool
}

// Result represents the outcome of prewarming a single URL.
type Result struct {
	URL        string
	Success    bool
	StatusCode int
	Duration   time.Duration
	Size       int64
	Error      error
	FromCache  bool
}

// Stats contains aggregate statistics from a prewarm operation.
type Stats struct {
	Total         int
	Successful    int
	Failed        int
	FromCache     int
	TotalDuration time.Duration
	TotalBytes    int64
	Errors        []error
}

// ProgressCallback is invoked after each URL is processed.
type ProgressCallback func(result *Result, completed, total int)

// New creates a Prewarmer from cfg.
func New(cfg Config) (*Prewarmer, error) {
	if cfg.Client == nil {
		return nil, errors.New("prewarm: Client is required")
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "httpcache-prewarmer/1.0"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Prewarmer{client: cfg.Client, userAgent: userAgent, timeout: timeout, forceRefresh: cfg.ForceRefresh}, nil
}

// Prewarm loads urls into the cache sequentially.
func (p *Prewarmer) Prewarm(ctx context.Context, urls []string) (*Stats, error) {
	return p.PrewarmWithCallback(ctx, urls, nil)
}

// PrewarmWithCallback loads urls sequentially, invoking callback after each.
func (p *Prewarmer) PrewarmWithCallback(ctx context.Context, urls []string, callback ProgressCallback) (*Stats, error) {
	stats := &Stats{Total: len(urls)}
	start := time.Now()

	for i, url := range urls {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		result := p.fetchURL(ctx, url)
		recordResult(stats, result)
		if callback != nil {
			callback(result, i+1, len(urls))
		}
	}

	stats.TotalDuration = time.Since(start)
	return stats, nil
}

// PrewarmConcurrent loads urls with the given number of concurrent workers.
func (p *Prewarmer) PrewarmConcurrent(ctx context.Context, urls []string, workers int) (*Stats, error) {
	return p.PrewarmConcurrentWithCallback(ctx, urls, workers, nil)
}

// PrewarmConcurrentWithCallback loads urls concurrently, invoking callback
// after each. callback may be called from multiple goroutines.
func (p *Prewarmer) PrewarmConcurrentWithCallback(ctx context.Context, urls []string, workers int, callback ProgressCallback) (*Stats, error) {
	if workers <= 0 {
		workers = 1
	}

	stats := &Stats{Total: len(urls)}
	start := time.Now()

	urlChan := make(chan string, len(urls))
	for _, url := range urls {
		urlChan <- url
	}
	close(urlChan)

	resultChan := make(chan *Result, len(urls))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for url := range urlChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				resultChan <- p.fetchURL(ctx, url)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var mu sync.Mutex
	var completed int32
	for result := range resultChan {
		mu.Lock()
		recordResult(stats, result)
		mu.Unlock()
		n := atomic.AddInt32(&completed, 1)
		if callback != nil {
			callback(result, int(n), len(urls))
		}
	}

	stats.TotalDuration = time.Since(start)
	return stats, nil
}

func recordResult(stats *Stats, result *Result) {
	if result.Success {
		stats.Successful++
		stats.TotalBytes += result.Size
		if result.FromCache {
			stats.FromCache++
		}
		return
	}
	stats.Failed++
	if result.Error != nil {
		stats.Errors = append(stats.Errors, result.Error)
	}
}

// PrewarmFromSitemap parses an XML sitemap and prewarms every URL found.
func (p *Prewarmer) PrewarmFromSitemap(ctx context.Context, sitemapURL string) (*Stats, error) {
	return p.PrewarmFromSitemapWithCallback(ctx, sitemapURL, 1, nil)
}

// PrewarmFromSitemapConcurrent parses an XML sitemap and prewarms with concurrency.
func (p *Prewarmer) PrewarmFromSitemapConcurrent(ctx context.Context, sitemapURL string, workers int) (*Stats, error) {
	return p.PrewarmFromSitemapWithCallback(ctx, sitemapURL, workers, nil)
}

// PrewarmFromSitemapWithCallback parses a sitemap and prewarms with callback.
func (p *Prewarmer) PrewarmFromSitemapWithCallback(ctx context.Context, sitemapURL string, workers int, callback ProgressCallback) (*Stats, error) {
	urls, err := p.parseSitemap(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("prewarm: parse sitemap: %w", err)
	}
	if workers <= 1 {
		return p.PrewarmWithCallback(ctx, urls, callback)
	}
	return p.PrewarmConcurrentWithCallback(ctx, urls, workers, callback)
}

func (p *Prewarmer) fetchURL(ctx context.Context, url string) *Result {
	result := &Result{URL: url}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = fmt.Errorf("new request: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	req.Header.Set("User-Agent", p.userAgent)
	if p.forceRefresh {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		result.Error = fmt.Errorf("request: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Error = fmt.Errorf("read body: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Duration = time.Since(start)
	result.StatusCode = resp.StatusCode
	result.Size = int64(len(body))
	result.Success = resp.StatusCode >= 200 && resp.StatusCode < 400
	result.FromCache = resp.Header.Get(httpcache.XFromCache) == "1"

	if !result.Success {
		result.Error = fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return result
}

// Sitemap represents an XML sitemap.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapURL represents a single URL entry in a sitemap.
type SitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// SitemapIndex represents an XML sitemap index.
type SitemapIndex struct {
	XMLName  xml.Name          `xml:"sitemapindex"`
	Sitemaps []SitemapLocation `xml:"sitemap"`
}

// SitemapLocation references a sitemap within a sitemap index.
type SitemapLocation struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// parseSitemap fetches and parses an XML sitemap, supporting both plain
// sitemaps and sitemap indexes (parsed recursively).
func (p *Prewarmer) parseSitemap(ctx context.Context, sitemapURL string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sitemap returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var index SitemapIndex
	if err := xml.Unmarshal(body, &index); err == nil && len(index.Sitemaps) > 0 {
		var all []string
		for _, sm := range index.Sitemaps {
			urls, err := p.parseSitemap(ctx, sm.Loc)
			if err != nil {
				continue
			}
			all = append(all, urls...)
		}
		return all, nil
	}

	var sitemap Sitemap
	if err := xml.Unmarshal(body, &sitemap); err != nil {
		return nil, fmt.Errorf("parse sitemap XML: %w", err)
	}

	urls := make([]string, 0, len(sitemap.URLs))
	for _, u := range sitemap.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}
