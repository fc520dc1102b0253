package testutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/dom/scrapjack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse decodes JSON response into v and verifies success
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertErrorResponse verifies the status and the error body's code and
// message
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedCode, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	AssertJSONResponse(t, resp, &body)
	assert.Equal(t, expectedCode, body.Code, "error code mismatch")
	assert.Contains(t, body.Message, expectedMessage, "error message mismatch")
}

// AssertDomainError checks that err is the given sentinel and carries its
// classification.
func AssertDomainError(t *testing.T, err error, expected *domain.Error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, expected), "expected %q, got %q", expected, err)
	assert.Equal(t, expected.Code, domain.CodeOf(err))
}

// AssertCode checks only the classification of err.
func AssertCode(t *testing.T, err error, expected codes.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, expected, domain.CodeOf(err), "unexpected code for %v", err)
}
