// Package api is a typed client for the retos REST endpoints.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Makepad-fr/retos/internal/gateway"
	"github.com/Makepad-fr/retos/internal/model"
)

// Endpoints locates the resource on the server.
type Endpoints struct {
	BaseURL      string
	ListPath     string
	FilterPath   string // empty: filter with a query on ListPath
	UpdateMethod string // PATCH or PUT
	// Labels is the server's status/difficulty vocabulary.
	// The zero value means model.SpanishLabels.
	Labels model.Labels
}

// Client talks to the retos resource through a gateway.
// Values go out in the server's vocabulary and come back canonical.
type Client struct {
	gw  *gateway.Client
	ep  Endpoints
	log *zap.Logger
}

func New(gw *gateway.Client, ep Endpoints) *Client {
	ep.BaseURL = strings.TrimRight(ep.BaseURL, "/")
	if ep.UpdateMethod == "" {
		ep.UpdateMethod = http.MethodPatch
	}
	if ep.Labels.Name == "" {
		ep.Labels = model.SpanishLabels
	}
	return &Client{gw: gw, ep: ep, log: gw.Logger().Named("api")}
}

func (c *Client) listURL() string { return c.ep.BaseURL + c.ep.ListPath }

func (c *Client) itemURL(id int64) string {
	return c.listURL() + "/" + strconv.FormatInt(id, 10)
}

// List returns the challenges matching f in server order.
func (c *Client) List(ctx context.Context, f model.Filter) ([]model.Challenge, error) {
	u := c.listURL()
	if !f.Empty() {
		if c.ep.FilterPath != "" {
			u = c.ep.BaseURL + c.ep.FilterPath
		}
		u += "?" + c.ep.Labels.Filter(f).Query().Encode()
	}
	body, err := c.gw.Do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	if body.Empty() {
		return []model.Challenge{}, nil
	}
	var out []model.Challenge
	if err := body.Decode(&out); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	if out == nil {
		out = []model.Challenge{}
	}
	for i := range out {
		out[i] = out[i].Canonical()
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id int64) (*model.Challenge, error) {
	body, err := c.gw.Do(ctx, http.MethodGet, c.itemURL(id), nil)
	if err != nil {
		return nil, fmt.Errorf("get %d: %w", id, err)
	}
	var out model.Challenge
	if err := body.Decode(&out); err != nil {
		return nil, fmt.Errorf("get %d: %w", id, err)
	}
	out = out.Canonical()
	return &out, nil
}

// Create posts d and returns the server's record when it sends one.
// A success body that is not a challenge yields nil and no error.
func (c *Client) Create(ctx context.Context, d model.Draft) (*model.Challenge, error) {
	u := c.listURL()
	body, err := c.gw.Do(ctx, http.MethodPost, u, &gateway.Options{JSON: c.ep.Labels.Draft(d)})
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	var out model.Challenge
	if !c.decodeAccepted(http.MethodPost, u, body, &out) || out.ID == 0 {
		return nil, nil
	}
	out = out.Canonical()
	return &out, nil
}

// Update sends a partial update. The response may itself be partial, so
// the returned Patch holds exactly the fields the server echoed back.
// A success body that is not an object yields an empty Patch.
func (c *Client) Update(ctx context.Context, id int64, p model.Patch) (model.Patch, error) {
	u := c.itemURL(id)
	body, err := c.gw.Do(ctx, c.ep.UpdateMethod, u, &gateway.Options{JSON: c.ep.Labels.Patch(p)})
	if err != nil {
		return model.Patch{}, fmt.Errorf("update %d: %w", id, err)
	}
	var echoed model.Patch
	if !c.decodeAccepted(c.ep.UpdateMethod, u, body, &echoed) {
		return model.Patch{}, nil
	}
	return echoed.Canonical(), nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	if _, err := c.gw.Do(ctx, http.MethodDelete, c.itemURL(id), nil); err != nil {
		return fmt.Errorf("delete %d: %w", id, err)
	}
	return nil
}

// decodeAccepted decodes the body of a 2xx reply to a mutation. The server
// already applied the change, so a body of another shape is logged and
// ignored rather than reported as a failure.
func (c *Client) decodeAccepted(method, url string, body gateway.Body, v any) bool {
	if body.Empty() {
		return false
	}
	if err := body.Decode(v); err != nil {
		c.log.Warn("ignoring unexpected success body",
			zap.String("method", method),
			zap.String("url", url),
			zap.Error(err),
		)
		return false
	}
	return true
}
