package rayid_test

import (
	"net/http/httptest"
	"testing"

	"netbox-sync/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(rayid.New())
	app.Get("/", func(c *fiber.Ctx) error {
		rid, _ := c.Locals(rayid.LocalsKey).(string)
		return c.SendString(rid)
	})
	return app
}

func TestRayID_Generated(t *testing.T) {
	app := newApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	rid := resp.Header.Get(rayid.HeaderName)
	assert.NotEmpty(t, rid, "every request must get a ray id")
}

func TestRayID_IncomingHonored(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(rayid.HeaderName, "upstream-trace-1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "upstream-trace-1", resp.Header.Get(rayid.HeaderName))
}

func TestRayID_UniquePerRequest(t *testing.T) {
	app := newApp()

	first, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	second, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	assert.NotEqual(t,
		first.Header.Get(rayid.HeaderName),
		second.Header.Get(rayid.HeaderName))
}
