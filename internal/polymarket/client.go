// Package polymarket reads the daily Seoul temperature event from the gamma
// API and order books from the CLOB API.
package polymarket

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rickgao/seoulhigh/internal/api"
)

// ErrEventNotFound is returned when no event exists for a slug.
var ErrEventNotFound = errors.New("event not found")

// Client wraps the gamma and CLOB endpoints.
type Client struct {
	gamma *api.Client
	clob  *api.Client
}

// NewClient returns a Client using gamma for event metadata and clob for books.
func NewClient(gamma, clob *api.Client) *Client {
	return &Client{gamma: gamma, clob: clob}
}

// EventBySlug fetches an event with its markets. It tries /events/slug/{slug}
// first and falls back to /events?slug= when that path 404s.
func (c *Client) EventBySlug(ctx context.Context, slug string) (*Event, error) {
	var ev Event
	err := c.gamma.GetJSON(ctx, "/events/slug/"+url.PathEscape(slug), nil, &ev)
	if err == nil {
		return &ev, nil
	}
	if !api.IsNotFound(err) {
		return nil, fmt.Errorf("get event %s: %w", slug, err)
	}

	var list eventList
	if err := c.gamma.GetJSON(ctx, "/events", url.Values{"slug": {slug}}, &list); err != nil {
		if api.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrEventNotFound, slug)
		}
		return nil, fmt.Errorf("list events %s: %w", slug, err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, slug)
	}
	return &list[0], nil
}

// Book fetches the order book for a token.
func (c *Client) Book(ctx context.Context, tokenID string) (*Book, error) {
	var b Book
	if err := c.clob.GetJSON(ctx, "/book", url.Values{"token_id": {tokenID}}, &b); err != nil {
		return nil, fmt.Errorf("get book %s: %w", tokenID, err)
	}
	return &b, nil
}
