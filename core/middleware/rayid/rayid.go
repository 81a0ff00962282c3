package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderName is the response header carrying the request's RayID.
const HeaderName = "X-Ray-Id"

// LocalsKey is where the RayID lives in the request context locals.
const LocalsKey = "ray_id"

// New returns a middleware that assigns every request a unique RayID,
// exposing it both to handlers (via locals) and to the caller (via a
// response header) so a failing request can be traced through the logs.
// An incoming X-Ray-Id is honored, letting upstream proxies correlate.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(HeaderName)
		if rid == "" {
			rid = uuid.NewString()
		}

		c.Locals(LocalsKey, rid)
		c.Set(HeaderName, rid)

		return c.Next()
	}
}
