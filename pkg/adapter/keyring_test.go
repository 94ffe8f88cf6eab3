package adapter_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/recap/pkg/adapter"
	"github.com/zalando/go-keyring"
)

func TestSecret(t *testing.T) {
	keyring.MockInit()

	secret, err := adapter.LookupSecret("gemini_api_key")
	gt.NoError(t, err)
	gt.Equal(t, secret, "")

	gt.NoError(t, adapter.StoreSecret("gemini_api_key", "xyz"))

	secret, err = adapter.LookupSecret("gemini_api_key")
	gt.NoError(t, err)
	gt.Equal(t, secret, "xyz")
}
