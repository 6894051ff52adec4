package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSuccessResponse(t *testing.T) {
	c, rec := newTestContext(t)

	err := SuccessResponse(c, http.StatusAccepted, "Payment request sent", map[string]string{
		"checkout_request_id": "ws_CO_191220191020363925",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Payment request sent", resp.Message)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Error)
}

func TestSuccessResponse_OmitsEmptyMessage(t *testing.T) {
	c, rec := newTestContext(t)

	err := SuccessResponse(c, http.StatusOK, "", nil)
	require.NoError(t, err)
	assert.NotContains(t, rec.Body.String(), "message")
}

func TestErrorResponseHandler(t *testing.T) {
	c, rec := newTestContext(t)

	err := ErrorResponseHandler(c, http.StatusBadGateway, "payment provider unavailable")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "payment provider unavailable", resp.Error)
	assert.Equal(t, http.StatusBadGateway, resp.Code)
}

func TestStatusHelpers(t *testing.T) {
	tests := []struct {
		name           string
		call           func(echo.Context) error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "bad request",
			call:           func(c echo.Context) error { return BadRequestResponse(c, "booking_id is required") },
			expectedStatus: http.StatusBadRequest,
			expectedError:  "booking_id is required",
		},
		{
			name:           "unauthorized with default message",
			call:           func(c echo.Context) error { return UnauthorizedResponse(c, "") },
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Unauthorized",
		},
		{
			name:           "not found with default message",
			call:           func(c echo.Context) error { return NotFoundResponse(c, "") },
			expectedStatus: http.StatusNotFound,
			expectedError:  "Resource not found",
		},
		{
			name:           "not found with custom message",
			call:           func(c echo.Context) error { return NotFoundResponse(c, "Booking not found") },
			expectedStatus: http.StatusNotFound,
			expectedError:  "Booking not found",
		},
		{
			name:           "internal server error with default message",
			call:           func(c echo.Context) error { return InternalServerErrorResponse(c, "") },
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestContext(t)

			require.NoError(t, tt.call(c))
			assert.Equal(t, tt.expectedStatus, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.expectedError, resp.Error)
		})
	}
}
