// package services defines typed clients for the collection backend's REST API
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

func decode[T any](resp *APIResponse, method, path string) (T, error) {
	var out T
	if err := checkResponse(resp, method, path); err != nil {
		return out, err
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return out, nil
}

func getJSON[T any](ctx context.Context, api *APIService, path string) (T, error) {
	resp, err := api.Get(ctx, path)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](resp, http.MethodGet, path)
}

func sendJSON[T any](ctx context.Context, api *APIService, method, path string, body any) (T, error) {
	var zero T

	data, err := json.Marshal(body)
	if err != nil {
		return zero, fmt.Errorf("failed to encode request: %w", err)
	}

	var resp *APIResponse
	switch method {
	case http.MethodPost:
		resp, err = api.Post(ctx, path, data)
	case http.MethodPatch:
		resp, err = api.Patch(ctx, path, data)
	default:
		return zero, fmt.Errorf("unsupported method %s", method)
	}
	if err != nil {
		return zero, err
	}
	return decode[T](resp, method, path)
}
