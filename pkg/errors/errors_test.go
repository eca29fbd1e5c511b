package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err    *StandardError
		status int
	}{
		{NewEmptyOrder(), http.StatusBadRequest},
		{NewInvalidRequest("bad body", ""), http.StatusBadRequest},
		{NewValidationError("invalid id", "id"), http.StatusBadRequest},
		{NewOrderNotFound("o-1"), http.StatusNotFound},
		{NewProductNotFound("p-1"), http.StatusNotFound},
		{NewInsufficientStock("p-1", 2, 3), http.StatusConflict},
		{NewAlreadyPaid("o-1"), http.StatusConflict},
		{NewOrderExpired("o-1"), http.StatusConflict},
		{NewOrderCancelled("o-1"), http.StatusConflict},
		{NewDuplicateName("Milk"), http.StatusConflict},
		{NewStandardError("Unauthorized", "nope", ""), http.StatusUnauthorized},
		{NewStandardError("Forbidden", "nope", ""), http.StatusForbidden},
		{NewInternalError("boom", nil), http.StatusInternalServerError},
		{NewStandardError("SomethingElse", "unknown", ""), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.HTTPStatus(), "code %s", tc.err.Code)
	}
}

func TestInsufficientStockDetails(t *testing.T) {
	err := NewInsufficientStock("p-1", 2, 3)

	assert.Equal(t, "InsufficientStock", err.Code)
	assert.Contains(t, err.Details, "Available: 2")
	assert.Contains(t, err.Details, "Requested: 3")
	assert.Equal(t, "insufficient stock available", err.Error())
}
