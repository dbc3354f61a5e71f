package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultBaseURL = "https://openlibrary.org"

// BookResult is one candidate from an OpenLibrary lookup, decoded once at
// the boundary. Missing fields are zero values; nothing downstream deals
// with the raw API's optionality.
type BookResult struct {
	Title            string `json:"title"`
	Author           string `json:"author,omitempty"`
	ISBN             string `json:"isbn,omitempty"`
	CoverURL         string `json:"cover_url,omitempty"`
	Publisher        string `json:"publisher,omitempty"`
	FirstPublishYear int    `json:"first_publish_year,omitempty"`
	PageCount        int    `json:"page_count,omitempty"`
	WorkKey          string `json:"work_key,omitempty"`
}

// Edition is a known edition of a work.
type Edition struct {
	Key             string `json:"key"`
	Title           string `json:"title"`
	ISBN            string `json:"isbn,omitempty"`
	Publisher       string `json:"publisher,omitempty"`
	PublicationYear int    `json:"publication_year,omitempty"`
	PageCount       int    `json:"page_count,omitempty"`
	CoverURL        string `json:"cover_url,omitempty"`
}

// OpenLibraryClient fetches book metadata from the OpenLibrary API.
type OpenLibraryClient struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewOpenLibraryClient creates a new OpenLibrary API client with rate limiting.
func NewOpenLibraryClient(baseURL string) *OpenLibraryClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenLibraryClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     baseURL,
		rateLimiter: newRateLimiter(time.Second), // 1 request per second
	}
}

// Search returns the ranked candidate list for a free-text query, in the
// API's relevance order.
func (c *OpenLibraryClient) Search(ctx context.Context, query string, limit int) ([]BookResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	c.rateLimiter.wait()

	searchURL := fmt.Sprintf("%s/search.json?q=%s&limit=%d", c.baseURL, url.QueryEscape(query), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var searchResult openLibrarySearchResult
	if err := json.NewDecoder(resp.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]BookResult, 0, len(searchResult.Docs))
	for i := range searchResult.Docs {
		results = append(results, convertSearchDoc(&searchResult.Docs[i]))
	}
	return results, nil
}

// SearchBest returns the single best match for a title/author pair, used by
// the enrichment flow. Exact title and author matches outrank substring
// matches; candidates carrying ISBNs and covers break ties.
func (c *OpenLibraryClient) SearchBest(ctx context.Context, title, author string) (*BookResult, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	query := title
	if author != "" {
		query = fmt.Sprintf("%s %s", title, author)
	}

	c.rateLimiter.wait()

	searchURL := fmt.Sprintf("%s/search.json?q=%s&limit=5", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var searchResult openLibrarySearchResult
	if err := json.NewDecoder(resp.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	if len(searchResult.Docs) == 0 {
		return nil, fmt.Errorf("no results found for: %s", title)
	}

	best := findBestMatch(searchResult.Docs, title, author)
	result := convertSearchDoc(best)
	return &result, nil
}

// SearchByISBN looks up a book by its ISBN.
func (c *OpenLibraryClient) SearchByISBN(ctx context.Context, isbn string) (*BookResult, error) {
	isbn = normalizeISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("invalid ISBN")
	}

	c.rateLimiter.wait()

	bookURL := fmt.Sprintf("%s/isbn/%s.json", c.baseURL, isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bookURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ISBN data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("ISBN not found: %s", isbn)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var bookData openLibraryBook
	if err := json.NewDecoder(resp.Body).Decode(&bookData); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	result := &BookResult{
		Title:     bookData.Title,
		ISBN:      isbn,
		CoverURL:  coverURLForISBN(isbn),
		PageCount: bookData.NumberOfPages,
		WorkKey:   bookData.Key,
	}
	if len(bookData.Publishers) > 0 {
		result.Publisher = bookData.Publishers[0]
	}
	if bookData.PublishDate != "" {
		result.FirstPublishYear = extractYear(bookData.PublishDate)
	}

	// The ISBN endpoint only carries author references; resolve the first.
	if len(bookData.Authors) > 0 {
		if name, err := c.fetchAuthorName(ctx, bookData.Authors[0].Key); err == nil {
			result.Author = name
		}
	}

	return result, nil
}

// Editions returns the known editions of a work.
func (c *OpenLibraryClient) Editions(ctx context.Context, workKey string) ([]Edition, error) {
	workKey = strings.TrimPrefix(strings.TrimSpace(workKey), "/works/")
	if workKey == "" {
		return nil, fmt.Errorf("work key is required")
	}

	c.rateLimiter.wait()

	editionsURL := fmt.Sprintf("%s/works/%s/editions.json", c.baseURL, workKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, editionsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch editions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("work not found: %s", workKey)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var payload openLibraryEditionsResult
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode editions response: %w", err)
	}

	editions := make([]Edition, 0, len(payload.Entries))
	for i := range payload.Entries {
		editions = append(editions, convertEdition(&payload.Entries[i]))
	}
	return editions, nil
}

func (c *OpenLibraryClient) fetchAuthorName(ctx context.Context, authorKey string) (string, error) {
	if authorKey == "" {
		return "", fmt.Errorf("empty author key")
	}

	c.rateLimiter.wait()

	authorURL := fmt.Sprintf("%s%s.json", c.baseURL, authorKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authorURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status: %d", resp.StatusCode)
	}

	var authorData struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&authorData); err != nil {
		return "", err
	}

	return authorData.Name, nil
}

const userAgent = "Bookends/1.0 (https://github.com/chadjholmes/bookends)"

func findBestMatch(docs []openLibrarySearchDoc, title, author string) *openLibrarySearchDoc {
	titleLower := strings.ToLower(title)
	authorLower := strings.ToLower(author)

	var bestMatch *openLibrarySearchDoc
	bestScore := -1

	for i := range docs {
		doc := &docs[i]
		score := 0

		if strings.ToLower(doc.Title) == titleLower {
			score += 10
		} else if strings.Contains(strings.ToLower(doc.Title), titleLower) {
			score += 5
		}

		if author != "" && len(doc.AuthorName) > 0 {
			for _, docAuthor := range doc.AuthorName {
				if strings.ToLower(docAuthor) == authorLower {
					score += 10
					break
				} else if strings.Contains(strings.ToLower(docAuthor), authorLower) {
					score += 5
					break
				}
			}
		}

		if len(doc.ISBN) > 0 {
			score += 2
		}
		if doc.CoverI != 0 {
			score += 1
		}

		if score > bestScore {
			bestScore = score
			bestMatch = doc
		}
	}

	if bestMatch == nil && len(docs) > 0 {
		bestMatch = &docs[0]
	}

	return bestMatch
}

func convertSearchDoc(doc *openLibrarySearchDoc) BookResult {
	result := BookResult{
		Title:            doc.Title,
		FirstPublishYear: doc.FirstPublishYear,
		PageCount:        doc.NumberOfPagesMedian,
		WorkKey:          doc.Key,
	}

	if len(doc.AuthorName) > 0 {
		result.Author = doc.AuthorName[0]
	}
	if len(doc.Publisher) > 0 {
		result.Publisher = doc.Publisher[0]
	}
	if len(doc.ISBN) > 0 {
		result.ISBN = doc.ISBN[0]
		result.CoverURL = coverURLForISBN(doc.ISBN[0])
	} else if doc.CoverI != 0 {
		result.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", doc.CoverI)
	}

	return result
}

func convertEdition(entry *openLibraryEditionEntry) Edition {
	edition := Edition{
		Key:       entry.Key,
		Title:     entry.Title,
		PageCount: entry.NumberOfPages,
	}

	if len(entry.ISBN13) > 0 {
		edition.ISBN = entry.ISBN13[0]
	} else if len(entry.ISBN10) > 0 {
		edition.ISBN = entry.ISBN10[0]
	}
	if edition.ISBN != "" {
		edition.CoverURL = coverURLForISBN(edition.ISBN)
	} else if len(entry.Covers) > 0 && entry.Covers[0] > 0 {
		edition.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", entry.Covers[0])
	}
	if len(entry.Publishers) > 0 {
		edition.Publisher = entry.Publishers[0]
	}
	if entry.PublishDate != "" {
		edition.PublicationYear = extractYear(entry.PublishDate)
	}

	return edition
}

func coverURLForISBN(isbn string) string {
	return fmt.Sprintf("https://covers.openlibrary.org/b/isbn/%s-L.jpg", isbn)
}

// normalizeISBN removes hyphens and spaces from ISBN.
func normalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	isbn = strings.TrimSpace(isbn)

	// Basic validation: ISBN-10 or ISBN-13
	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}

	return isbn
}

// extractYear tries to extract a 4-digit year from a date string.
func extractYear(dateStr string) int {
	dateStr = strings.TrimSpace(dateStr)
	if len(dateStr) < 4 {
		return 0
	}

	formats := []string{
		"2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"2006-01-02",
		"January 2006",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t.Year()
		}
	}

	// Last resort: find 4 consecutive digits
	for i := 0; i <= len(dateStr)-4; i++ {
		if dateStr[i] >= '0' && dateStr[i] <= '9' {
			yearStr := dateStr[i : i+4]
			var year int
			if _, err := fmt.Sscanf(yearStr, "%d", &year); err == nil && year > 1000 && year < 3000 {
				return year
			}
		}
	}

	return 0
}

// OpenLibrary API response types (internal)

type openLibraryBook struct {
	Key           string      `json:"key"`
	Title         string      `json:"title"`
	Authors       []authorRef `json:"authors"`
	Publishers    []string    `json:"publishers"`
	PublishDate   string      `json:"publish_date"`
	NumberOfPages int         `json:"number_of_pages"`
}

type authorRef struct {
	Key string `json:"key"`
}

type openLibrarySearchResult struct {
	NumFound int                    `json:"numFound"`
	Docs     []openLibrarySearchDoc `json:"docs"`
}

type openLibrarySearchDoc struct {
	Key                 string   `json:"key"`
	Title               string   `json:"title"`
	AuthorName          []string `json:"author_name"`
	FirstPublishYear    int      `json:"first_publish_year"`
	Publisher           []string `json:"publisher"`
	ISBN                []string `json:"isbn"`
	CoverI              int      `json:"cover_i"`
	NumberOfPagesMedian int      `json:"number_of_pages_median"`
}

type openLibraryEditionsResult struct {
	Size    int                       `json:"size"`
	Entries []openLibraryEditionEntry `json:"entries"`
}

type openLibraryEditionEntry struct {
	Key           string   `json:"key"`
	Title         string   `json:"title"`
	Publishers    []string `json:"publishers"`
	PublishDate   string   `json:"publish_date"`
	ISBN10        []string `json:"isbn_10"`
	ISBN13        []string `json:"isbn_13"`
	NumberOfPages int      `json:"number_of_pages"`
	Covers        []int    `json:"covers"`
}
