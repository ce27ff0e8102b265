package handlers_test

import (
	"encoding/json"
	"testing"

	"github.com/farmbasket/farmbasket-backend/internal/utils/response"
	"github.com/stretchr/testify/require"
)

// decodeData unmarshals the envelope's Data field into a typed value. The
// envelope parses Data as map[string]any; round-tripping through JSON gives
// the concrete shape back.
func decodeData(t *testing.T, body []byte, dest any) response.APIResponse {
	t.Helper()

	var envelope response.APIResponse
	require.NoError(t, json.Unmarshal(body, &envelope))

	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dest))

	return envelope
}

func decodeError(t *testing.T, body []byte) *response.ErrorResponse {
	t.Helper()

	var envelope response.APIResponse
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)

	return envelope.Error
}
