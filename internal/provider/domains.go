package provider

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// GetDomain reports whether name is attached to the project.
func (c *Client) GetDomain(ctx context.Context, name string) (bool, error) {
	path := "/v9/projects/" + url.PathEscape(c.cfg.ProjectID) + "/domains/" + url.PathEscape(name)
	err := c.do(ctx, "get_domain", http.MethodGet, path, nil, nil, nil)
	if err == nil {
		return true, nil
	}
	var pe *Error
	if errors.As(err, &pe) && pe.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, err
}

type addDomainRequest struct {
	Name string `json:"name"`
}

// AddDomain attaches name to the project. A domain that is already attached
// counts as success.
func (c *Client) AddDomain(ctx context.Context, name string) error {
	path := "/v10/projects/" + url.PathEscape(c.cfg.ProjectID) + "/domains"
	err := c.do(ctx, "add_domain", http.MethodPost, path, nil, addDomainRequest{Name: name}, nil)
	var pe *Error
	if errors.As(err, &pe) && pe.StatusCode == http.StatusConflict && pe.Code == "domain_already_exists" {
		return nil
	}
	return err
}
