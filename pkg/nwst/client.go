package nwst

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var ErrUnexpectedStatus = errors.New("unexpected status")

const userAgent = "etascraper/1.0"

type API interface {
	GetRouteList(ctx context.Context) ([]Route, error)
	GetVariantList(ctx context.Context, routeID string) ([]Variant, error)
	GetStopList(ctx context.Context, company string, rdv Rdv, bound Bound) ([]RouteStop, error)
	// GetEtaList returns either the ETAs for a stop or a NoEta when the upstream has nothing to report
	GetEtaList(ctx context.Context, routeNumber string, sequence int, stopID int, rdv Rdv, bound Bound) ([]Eta, *NoEta, error)
}

type Client struct {
	BaseURL    string
	Language   string
	HTTPClient *http.Client
}

func NewClient(baseURL string, language string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Language: language,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) GetRouteList(ctx context.Context) ([]Route, error) {
	var routes []Route
	if err := c.getJSON(ctx, "/routes", url.Values{}, &routes); err != nil {
		return nil, fmt.Errorf("route list: %w", err)
	}

	return routes, nil
}

func (c *Client) GetVariantList(ctx context.Context, routeID string) ([]Variant, error) {
	var variants []Variant
	path := fmt.Sprintf("/routes/%s/variants", url.PathEscape(routeID))
	if err := c.getJSON(ctx, path, url.Values{}, &variants); err != nil {
		return nil, fmt.Errorf("variant list for route %s: %w", routeID, err)
	}

	return variants, nil
}

func (c *Client) GetStopList(ctx context.Context, company string, rdv Rdv, bound Bound) ([]RouteStop, error) {
	query := url.Values{}
	query.Set("company", company)
	query.Set("rdv", rdv.String())
	query.Set("bound", string(bound))

	var stops []RouteStop
	if err := c.getJSON(ctx, "/stops", query, &stops); err != nil {
		return nil, fmt.Errorf("stop list for %s: %w", rdv, err)
	}

	return stops, nil
}

func (c *Client) GetEtaList(ctx context.Context, routeNumber string, sequence int, stopID int, rdv Rdv, bound Bound) ([]Eta, *NoEta, error) {
	query := url.Values{}
	query.Set("route", routeNumber)
	query.Set("sequence", strconv.Itoa(sequence))
	query.Set("stop_id", strconv.Itoa(stopID))
	query.Set("rdv", rdv.String())
	query.Set("bound", string(bound))

	var response etaResponse
	if err := c.getJSON(ctx, "/eta", query, &response); err != nil {
		return nil, nil, fmt.Errorf("eta list for stop %d: %w", stopID, err)
	}

	if response.NoEta != nil {
		return nil, response.NoEta, nil
	}

	if response.Etas == nil {
		response.Etas = []Eta{}
	}

	return response.Etas, nil, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c.Language != "" {
		query.Set("lang", c.Language)
	}

	requestURL := c.BaseURL + path
	if encoded := query.Encode(); encoded != "" {
		requestURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d from %s", ErrUnexpectedStatus, resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
