// backend/src/services/insight_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/username/leora/backend/src/logger"
	"github.com/username/leora/backend/src/models"
	"github.com/username/leora/backend/src/security/validation"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	dailyInsightsPath     = "/v1/insights/daily"
	maxRemoteBodyBytes    = 1 << 20
	maxRemoteCards        = 20
	defaultRemotePriority = 50
)

var remoteCardNamespace = uuid.MustParse("0b7f4a52-3c1e-4f7e-a1d9-5e2c8b6f9d13")

type remoteInsightClient struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	forceLimiter *rate.Limiter
	tone         models.InsightTone
}

// NewRemoteInsightClient creates a client for the AI insight service. Forced
// refreshes are limited to forcePerMinute; regular fetches are not limited here.
func NewRemoteInsightClient(baseURL, apiKey string, timeout time.Duration, forcePerMinute int, tone models.InsightTone) RemoteInsightClient {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}
	if forcePerMinute <= 0 {
		forcePerMinute = 1
	}
	return &remoteInsightClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		forceLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(forcePerMinute)), forcePerMinute),
		tone:         tone,
	}
}

// remoteCard is the wire shape of one card; fields are optional on the wire.
type remoteCard struct {
	ID       string               `json:"id"`
	Title    string               `json:"title"`
	Body     string               `json:"body"`
	Category string               `json:"category"`
	Priority *int                 `json:"priority"`
	CTA      models.InsightAction `json:"cta"`
	Payload  map[string]string    `json:"payload"`
}

type remoteResponse struct {
	Date  string       `json:"date"`
	Cards []remoteCard `json:"cards"`
}

func (c *remoteInsightClient) FetchDailyInsights(ctx context.Context, req DailyInsightsRequest) (*DailyInsightsResponse, error) {
	if req.Force && !c.forceLimiter.Allow() {
		return nil, ErrRefreshThrottled
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode insight request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+dailyInsightsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxRemoteBodyBytes))
		return nil, fmt.Errorf("%w: remote returned status %s", ErrRemoteUnavailable, resp.Status)
	}

	var decoded remoteResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRemoteBodyBytes)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrRemoteUnavailable, err)
	}

	date := decoded.Date
	if date == "" {
		date = req.Date
	}
	return &DailyInsightsResponse{Date: date, Cards: c.sanitizeCards(date, decoded.Cards)}, nil
}

// sanitizeCards strips markup from remote text, drops cards that are empty or
// carry unsafe CTAs, and orders the rest by descending priority.
func (c *remoteInsightClient) sanitizeCards(date string, raw []remoteCard) []models.InsightCard {
	cards := make([]models.InsightCard, 0, len(raw))
	for i, rc := range raw {
		contextID := fmt.Sprintf("remote-card-%d", i)
		title := validation.CleanCardText(rc.Title, validation.MaxCardTitleLength)
		body := validation.CleanCardText(rc.Body, validation.MaxCardBodyLength)
		if title == "" && body == "" {
			continue
		}

		cta := models.InsightAction{
			Label:  validation.CleanCardText(rc.CTA.Label, validation.DefaultMaxStringLength),
			Action: rc.CTA.Action,
			Target: rc.CTA.Target,
		}
		if cta.Action != "" {
			if validation.ValidateAction(cta.Action, contextID) != nil ||
				validation.CheckXSSPatterns(cta.Target, "cta.target", contextID) != nil {
				continue
			}
		}

		id := validation.StripUnprintable(rc.ID)
		if id == "" || validation.ValidateStringMaxLength(id, validation.DefaultMaxStringLength, "id") != nil {
			id = uuid.NewSHA1(remoteCardNamespace, []byte(date+"|"+title+"|"+body)).String()
		}
		priority := defaultRemotePriority
		if rc.Priority != nil {
			priority = *rc.Priority
		}
		category := validation.CleanCardText(rc.Category, validation.DefaultMaxStringLength)
		if category == "" {
			category = "ai"
		}

		var payload map[string]string
		if len(rc.Payload) > 0 {
			payload = make(map[string]string, len(rc.Payload))
			for k, v := range rc.Payload {
				payload[validation.StripUnprintable(k)] = validation.CleanCardText(v, validation.DefaultMaxStringLength)
			}
		}

		cards = append(cards, models.InsightCard{
			ID:        id,
			Scenario:  "remote",
			Title:     title,
			Body:      body,
			Tone:      c.tone,
			Category:  category,
			Priority:  priority,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
			CTA:       cta,
			Payload:   payload,
		})
	}

	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].Priority > cards[j].Priority
	})
	if len(cards) > maxRemoteCards {
		cards = cards[:maxRemoteCards]
	}
	return cards
}
