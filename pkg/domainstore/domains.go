package domainstore

import (
	"context"
	"net/http"
	"net/url"

	errs "github.com/matzehuels/semtiles/pkg/errors"
	"github.com/matzehuels/semtiles/pkg/graph"
	"github.com/matzehuels/semtiles/pkg/observability"
)

// ListingResult is one fetched hierarchy level.
type ListingResult struct {
	ParentID string
	Listing  graph.Listing
	// Stale is set when the store was unreachable and Listing came from
	// the cache.
	Stale bool
	// Err is the fetch failure that caused the fallback.
	Err error
}

// Domains fetches the children of parentID, or the root level when parentID
// is empty. On failure it falls back to the last cached listing for the same
// parent; the original error is returned only when no cached copy exists.
func (c *Client) Domains(ctx context.Context, parentID string) (*ListingResult, error) {
	if parentID != "" {
		if err := errs.ValidateID(parentID); err != nil {
			return nil, err
		}
	}
	path := "domains"
	if parentID != "" {
		path += "?parentId=" + url.QueryEscape(parentID)
	}
	key := c.keyer.ListingKey(c.baseURL, parentID)

	var l graph.Listing
	err := c.getJSON(ctx, "/domains", path, &l)
	if err == nil {
		if err = l.Validate(); err == nil {
			c.storeListing(ctx, key, l)
			return &ListingResult{ParentID: parentID, Listing: l}, nil
		}
	}

	cached, ok := c.cachedListing(ctx, key)
	if !ok {
		return nil, err
	}
	c.logger.Warn("Using cached data", "parent", parentID, "error", err)
	return &ListingResult{ParentID: parentID, Listing: cached, Stale: true, Err: err}, nil
}

func (c *Client) storeListing(ctx context.Context, key string, l graph.Listing) {
	data, err := graph.MarshalListing(l)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Debug("listing cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "listing", len(data))
}

func (c *Client) cachedListing(ctx context.Context, key string) (graph.Listing, bool) {
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, "listing")
		return graph.Listing{}, false
	}
	l, err := graph.UnmarshalListing(data)
	if err != nil {
		_ = c.cache.Delete(ctx, key)
		return graph.Listing{}, false
	}
	observability.Cache().OnCacheHit(ctx, "listing")
	return l, true
}

// Domain fetches a single domain.
func (c *Client) Domain(ctx context.Context, id string) (graph.Domain, error) {
	var d graph.Domain
	if err := errs.ValidateID(id); err != nil {
		return d, err
	}
	err := c.getJSON(ctx, "/domains/{id}", "domains/"+url.PathEscape(id), &d)
	if errs.Is(err, errs.ErrCodeNotFound) {
		return d, errs.Wrap(errs.ErrCodeDomainNotFound, err, "domain %s", id)
	}
	return d, err
}

// Path returns the ancestor chain of id, root first, ending with id itself.
func (c *Client) Path(ctx context.Context, id string) ([]graph.Domain, error) {
	if err := errs.ValidateID(id); err != nil {
		return nil, err
	}
	var resp graph.PathResponse
	if err := c.getJSON(ctx, "/domains/{id}/path", "domains/"+url.PathEscape(id)+"/path", &resp); err != nil {
		return nil, err
	}
	return resp.Path, nil
}

// CreateDomain adds a domain under req.ParentID (nil for the root level).
func (c *Client) CreateDomain(ctx context.Context, req graph.CreateDomainRequest) (graph.Domain, error) {
	var d graph.Domain
	if req.Name == "" {
		return d, errs.New(errs.ErrCodeInvalidInput, "name is required")
	}
	if req.ParentID != nil {
		if err := errs.ValidateID(*req.ParentID); err != nil {
			return d, err
		}
	}
	err := c.sendJSON(ctx, http.MethodPost, "/domains", "domains", req, &d)
	return d, err
}

// UpdateDomain changes the name, description or coordinates of a domain.
func (c *Client) UpdateDomain(ctx context.Context, id string, req graph.UpdateDomainRequest) (graph.Domain, error) {
	var d graph.Domain
	if err := errs.ValidateID(id); err != nil {
		return d, err
	}
	err := c.sendJSON(ctx, http.MethodPut, "/domains/{id}", "domains/"+url.PathEscape(id), req, &d)
	if errs.Is(err, errs.ErrCodeNotFound) {
		return d, errs.Wrap(errs.ErrCodeDomainNotFound, err, "domain %s", id)
	}
	return d, err
}

// DeleteDomain removes a domain and all of its descendants.
func (c *Client) DeleteDomain(ctx context.Context, id string) error {
	if err := errs.ValidateID(id); err != nil {
		return err
	}
	err := c.sendJSON(ctx, http.MethodDelete, "/domains/{id}", "domains/"+url.PathEscape(id), nil, nil)
	if errs.Is(err, errs.ErrCodeNotFound) {
		return errs.Wrap(errs.ErrCodeDomainNotFound, err, "domain %s", id)
	}
	return err
}

// SavePositions writes coordinates back in one request. It is not retried.
func (c *Client) SavePositions(ctx context.Context, pos graph.Positions) error {
	if len(pos) == 0 {
		return nil
	}
	return c.sendJSON(ctx, http.MethodPost, "/domains/positions", "domains/positions", graph.PositionsRequest{Positions: pos}, nil)
}

// Invalidate drops the cached listing of parentID.
func (c *Client) Invalidate(ctx context.Context, parentID string) error {
	return c.cache.Delete(ctx, c.keyer.ListingKey(c.baseURL, parentID))
}

