package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	c, err := NewCatalog("en")
	require.NoError(t, err)

	subject, body, err := c.Render("", "member_invite", map[string]any{
		"OrgName":      "Helping Hands",
		"FirstName":    "Ana",
		"Link":         "http://localhost:3000/accept-invite?token=abc",
		"ExpiresHours": 72,
	})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to Helping Hands - Complete Your Membership", subject)
	assert.Contains(t, body, "token=abc")
	assert.Contains(t, body, "72 hours")
}

func TestRender_Spanish(t *testing.T) {
	c, err := NewCatalog("en")
	require.NoError(t, err)

	subject, _, err := c.Render("es", "member_denied", map[string]any{
		"OrgName": "Manos", "FirstName": "Ana", "Reason": "incompleto",
	})
	require.NoError(t, err)
	assert.Equal(t, "Actualización de registro - Manos", subject)
}

func TestRender_PluralInBody(t *testing.T) {
	c, err := NewCatalog("en")
	require.NoError(t, err)

	_, body, err := c.Render("en", "event_registration", map[string]any{
		"FirstName": "Ana", "EventTitle": "Food Drive", "StartsAt": "2026-11-01 10:00", "Count": 3, "Status": "CONFIRMED",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "3 people")
}

func TestT_UnknownKey(t *testing.T) {
	c, err := NewCatalog("fr")
	require.NoError(t, err)

	_, err = c.T("fr", "does_not_exist", nil)
	assert.Error(t, err)
}
