package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret("  "))
	assert.Equal(t, "sk_live_****7890", MaskSecret("sk_live_1234567890"))
	assert.Equal(t, "****", MaskSecret("abc"))
}

func TestMaskJSON(t *testing.T) {
	out := MaskJSON(map[string]any{
		"onboarding_completed": false,
		"account_id":           "acct_1ABC",
		"api_key":              "plainvalue123",
		"webhook":              "whsec_abcdefgh",
		"nested": map[string]any{
			"secret_key": "sk_test_99999999",
		},
		"": "dropped",
	})

	assert.Equal(t, false, out["onboarding_completed"])
	assert.Equal(t, "acct_1ABC", out["account_id"])
	assert.Equal(t, "****e123", out["api_key"])
	assert.Equal(t, "whsec_****efgh", out["webhook"])
	assert.Equal(t, map[string]any{"secret_key": "sk_test_****9999"}, out["nested"])
	assert.NotContains(t, out, "")

	assert.Nil(t, MaskJSON(nil))
}
