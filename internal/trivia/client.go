// Package trivia fetches question batches from the Open Trivia Database.
package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizi-backend/internal/model"
)

// DefaultBaseURL is the public OpenTDB endpoint.
const DefaultBaseURL = "https://opentdb.com/api.php"

const maxBodyBytes = 1 << 20

// OpenTDB response codes.
const (
	codeSuccess       = 0
	codeNoResults     = 1
	codeInvalidParam  = 2
	codeTokenNotFound = 3
	codeTokenEmpty    = 4
	codeRateLimit     = 5
)

type apiResponse struct {
	ResponseCode int              `json:"response_code"`
	Results      []model.Question `json:"results"`
}

// Client talks to OpenTDB. The underlying http.Client has a hard timeout so a
// hanging provider surfaces as an upstream error instead of blocking start.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Client.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "trivia_client").Logger(),
	}
}

// FetchQuestions requests amount questions. Text fields are returned exactly
// as the provider encoded them. Every failure wraps model.ErrUpstream.
func (c *Client) FetchQuestions(ctx context.Context, amount int) ([]model.Question, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad provider url: %v", model.ErrUpstream, err)
	}
	q := u.Query()
	q.Set("amount", strconv.Itoa(amount))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", model.ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstream, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Int("amount", amount).
		Msg("Provider responded")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider status %d", model.ErrUpstream, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", model.ErrUpstream, err)
	}
	if err := validatePayload(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstream, err)
	}

	var body apiResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", model.ErrUpstream, err)
	}
	if body.ResponseCode != codeSuccess {
		return nil, fmt.Errorf("%w: %s", model.ErrUpstream, describeCode(body.ResponseCode))
	}

	questions := usable(body.Results)
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions returned", model.ErrUpstream)
	}
	return questions, nil
}

// usable drops entries without a question or a correct answer.
func usable(in []model.Question) []model.Question {
	out := make([]model.Question, 0, len(in))
	for _, q := range in {
		if q.Question == "" || q.CorrectAnswer == "" {
			continue
		}
		if q.IncorrectAnswers == nil {
			q.IncorrectAnswers = []string{}
		}
		out = append(out, q)
	}
	return out
}

func describeCode(code int) string {
	switch code {
	case codeNoResults:
		return "not enough questions for the query"
	case codeInvalidParam:
		return "invalid request parameter"
	case codeTokenNotFound:
		return "session token not found"
	case codeTokenEmpty:
		return "session token exhausted"
	case codeRateLimit:
		return "rate limited"
	default:
		return "response code " + strconv.Itoa(code)
	}
}
