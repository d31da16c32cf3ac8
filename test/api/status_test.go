package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFlow(t *testing.T) {
	// Get current status
	getResp := makeRequest("GET", "/status?route=/", nil, "")
	assert.True(t, getResp.IsSuccess(), "Failed to get status: %s", getResp.Message)
	assert.NotNil(t, getResp.Data["status"])
	assert.NotNil(t, getResp.Data["overlay"])

	// Force a refresh; the payload shape matches the poll endpoint
	refreshResp := makeRequest("POST", "/status/refresh", nil, "")
	assert.True(t, refreshResp.IsSuccess(), "Failed to refresh status: %s", refreshResp.Message)
	assert.NotNil(t, refreshResp.Data["status"])

	status, ok := refreshResp.Data["status"].(map[string]interface{})
	if assert.True(t, ok) {
		assert.Contains(t, []interface{}{"open", "closed", "special_notification"}, status["status"])
	}
}

func TestOverlayDirectivesAreConsistent(t *testing.T) {
	resp := makeRequest("GET", "/status?route=/", nil, "")
	assert.True(t, resp.IsSuccess())

	overlay, ok := resp.Data["overlay"].(map[string]interface{})
	if !assert.True(t, ok) {
		return
	}

	shown := overlay["state"] == "shown"
	assert.Equal(t, shown, overlay["lock_scroll"])
	assert.Equal(t, shown, overlay["trap_focus"])
	assert.Equal(t, shown, overlay["suppress_escape"])
	assert.Equal(t, !shown, overlay["dismissible"])
}

func TestHideOverlayRespectsShopState(t *testing.T) {
	statusResp := makeRequest("GET", "/status?route=/", nil, "")
	assert.True(t, statusResp.IsSuccess())

	overlay, _ := statusResp.Data["overlay"].(map[string]interface{})
	shown := overlay != nil && overlay["state"] == "shown"

	hideResp := makeRequest("POST", "/status/overlay/hide", map[string]interface{}{
		"route": "/",
	}, "")

	if shown {
		// Dismissal must be rejected while the shop is closed
		assert.Equal(t, 409, hideResp.StatusCode)
	} else {
		assert.True(t, hideResp.IsSuccess(), "Failed to hide overlay: %s", hideResp.Message)
		assert.Equal(t, "hidden", hideResp.GetString("state"))
	}
}

func TestAdminRouteNeverShowsOverlay(t *testing.T) {
	resp := makeRequest("GET", "/status?route=/admin/orders", nil, "")
	assert.True(t, resp.IsSuccess())

	overlay, ok := resp.Data["overlay"].(map[string]interface{})
	if assert.True(t, ok) {
		assert.Equal(t, "hidden", overlay["state"])
	}
}
