package common

import (
	"testing"
	"vms/src/types"

	"github.com/stretchr/testify/assert"
)

func TestResolveBlacklistInputCanonicalPairWins(t *testing.T) {
	body := types.CreateBlacklistRequestBody{
		Identifier:     "12345678",
		IdentifierType: string(types.IDENTIFIER_DOCUMENT),
		Email:          "someone@example.com",
	}
	kind, value, err := ResolveBlacklistInput(&body)
	assert.Nil(t, err)
	assert.Equal(t, types.IDENTIFIER_DOCUMENT, kind)
	assert.Equal(t, "12345678", value)
}

func TestResolveBlacklistInputLegacyFields(t *testing.T) {
	cases := []struct {
		body  types.CreateBlacklistRequestBody
		kind  types.IdentifierType
		value string
	}{
		{types.CreateBlacklistRequestBody{Email: "someone@example.com"}, types.IDENTIFIER_EMAIL, "someone@example.com"},
		{types.CreateBlacklistRequestBody{Document: "12345678"}, types.IDENTIFIER_DOCUMENT, "12345678"},
		{types.CreateBlacklistRequestBody{Phone: "+525500000000"}, types.IDENTIFIER_PHONE, "+525500000000"},
		// email beats document beats phone when several are present
		{types.CreateBlacklistRequestBody{Email: "someone@example.com", Document: "12345678", Phone: "+525500000000"}, types.IDENTIFIER_EMAIL, "someone@example.com"},
	}
	for _, c := range cases {
		kind, value, err := ResolveBlacklistInput(&c.body)
		assert.Nil(t, err)
		assert.Equal(t, c.kind, kind)
		assert.Equal(t, c.value, value)
	}
}

func TestResolveBlacklistInputRequiresAnIdentifier(t *testing.T) {
	body := types.CreateBlacklistRequestBody{}
	_, _, err := ResolveBlacklistInput(&body)
	assert.NotNil(t, err)
}
