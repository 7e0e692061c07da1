// Package jobsearch retrieves job listings from the JSearch API and
// normalizes them into ListingRecord values. Search failures are absorbed:
// the pipeline treats an unreachable or misbehaving provider the same as a
// query with no results.
package jobsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/med-zino/cvmatch/internal/types"
)

// DefaultBaseURL is the JSearch API endpoint.
const DefaultBaseURL = "https://jsearch.p.rapidapi.com"

// DefaultTimeout bounds a single search request.
const DefaultTimeout = 30 * time.Second

const rapidAPIHost = "jsearch.p.rapidapi.com"

// Client searches the listing provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	vocabulary Vocabulary
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at a different endpoint.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithVocabulary replaces the skill vocabulary used for inference.
func WithVocabulary(v Vocabulary) Option {
	return func(c *Client) { c.vocabulary = v }
}

// NewClient creates a search client authenticated with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		vocabulary: DefaultVocabulary(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// providerJob mirrors the JSearch response fields we consume.
type providerJob struct {
	JobID          string   `json:"job_id"`
	Title          string   `json:"job_title"`
	Employer       string   `json:"employer_name"`
	City           string   `json:"job_city"`
	Country        string   `json:"job_country"`
	Posted         string   `json:"job_posted_at_datetime_utc"`
	ApplyLink      string   `json:"job_apply_link"`
	Description    string   `json:"job_description"`
	EmploymentType string   `json:"job_employment_type"`
	IsRemote       bool     `json:"job_is_remote"`
	MinSalary      *float64 `json:"job_min_salary"`
	MaxSalary      *float64 `json:"job_max_salary"`
	SalaryCurrency string   `json:"job_salary_currency"`
	SalaryPeriod   string   `json:"job_salary_period"`
	Publisher      string   `json:"job_publisher"`
	Highlights     struct {
		Qualifications []string `json:"Qualifications"`
	} `json:"job_highlights"`
}

type searchResponse struct {
	Status string        `json:"status"`
	Data   []providerJob `json:"data"`
}

// Search queries the provider and returns normalized listings.
// Any failure (transport, status, decode) is logged and yields an empty
// slice; callers distinguish "no results" from "failure" by log output only.
func (c *Client) Search(ctx context.Context, query string, filters types.SearchFilters) []types.ListingRecord {
	reqURL, err := c.buildURL(query, filters)
	if err != nil {
		log.Printf("[JOBSEARCH] Bad search request for %q: %v", query, err)
		return []types.ListingRecord{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		log.Printf("[JOBSEARCH] Failed to create request: %v", err)
		return []types.ListingRecord{}
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", rapidAPIHost)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[JOBSEARCH] Search request failed: %v", err)
		return []types.ListingRecord{}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("[JOBSEARCH] Provider returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		return []types.ListingRecord{}
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Printf("[JOBSEARCH] Failed to decode provider response: %v", err)
		return []types.ListingRecord{}
	}

	listings := make([]types.ListingRecord, 0, len(payload.Data))
	for _, job := range payload.Data {
		listings = append(listings, c.normalize(job))
	}
	return listings
}

// buildURL assembles the search URL. Filters with an empty or "all" value
// are omitted entirely rather than sent as wildcards.
func (c *Client) buildURL(query string, filters types.SearchFilters) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("empty query")
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "1")
	params.Set("num_pages", "1")

	if active(filters.DatePosted) {
		params.Set("date_posted", filters.DatePosted)
	}
	if active(filters.WorkFromHome) {
		params.Set("work_from_home", filters.WorkFromHome)
	}
	if active(filters.JobRequirements) {
		params.Set("job_requirements", filters.JobRequirements)
	}
	if active(filters.EmploymentTypes) {
		params.Set("employment_types", filters.EmploymentTypes)
	}

	return c.baseURL + "/search?" + params.Encode(), nil
}

func active(filter string) bool {
	return filter != "" && !strings.EqualFold(filter, "all")
}

// normalize maps one provider job onto a ListingRecord.
func (c *Client) normalize(job providerJob) types.ListingRecord {
	description := flattenHTML(job.Description)

	skills := job.Highlights.Qualifications
	if len(skills) == 0 {
		skills = c.vocabulary.Infer(description)
	}

	return types.ListingRecord{
		ProviderID:     job.JobID,
		Title:          job.Title,
		Company:        job.Employer,
		Location:       joinLocation(job.City, job.Country),
		Posted:         job.Posted,
		Link:           job.ApplyLink,
		Description:    description,
		RequiredSkills: skills,
		EmploymentType: job.EmploymentType,
		Remote:         job.IsRemote,
		Salary:         formatSalary(job.MinSalary, job.MaxSalary, job.SalaryCurrency, job.SalaryPeriod),
		Publisher:      job.Publisher,
	}
}

func joinLocation(city, country string) string {
	switch {
	case city != "" && country != "":
		return city + ", " + country
	case city != "":
		return city
	default:
		return country
	}
}

func formatSalary(min, max *float64, currency, period string) string {
	if min == nil || max == nil {
		return "Not specified"
	}
	s := fmt.Sprintf("%.0f - %.0f", *min, *max)
	if currency != "" {
		s += " " + currency
	}
	if period != "" {
		s += " per " + strings.ToLower(period)
	}
	return s
}

// flattenHTML strips markup from a description. Providers mix plain text
// and HTML fragments; plain text passes through untouched.
func flattenHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	text := doc.Text()
	// Collapse runs of whitespace left behind by block elements.
	return strings.Join(strings.Fields(text), " ")
}
