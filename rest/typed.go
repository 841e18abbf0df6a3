// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package rest

import (
	"context"

	"github.com/juju/errors"
)

// Call dispatches one request and returns the decoded response as a
// value of the statically known type T.
func Call[T any](ctx context.Context, c *Client, method, path string, body interface{}) (T, error) {
	var result T
	if err := c.Call(ctx, method, path, body, &result); err != nil {
		return result, errors.Trace(err)
	}
	return result, nil
}

// Get dispatches a GET request, returning a decoded T.
func Get[T any](ctx context.Context, c *Client, path string) (T, error) {
	return Call[T](ctx, c, "GET", path, nil)
}

// Post dispatches a POST request, returning a decoded T.
func Post[T any](ctx context.Context, c *Client, path string, body interface{}) (T, error) {
	return Call[T](ctx, c, "POST", path, body)
}
