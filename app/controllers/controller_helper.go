package controllers

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/doctornoo/pdpa-consent/internal/pkg/consent"
)

// transportFromRequest collects the audit inputs of a request. The raw
// X-Forwarded-For header is used instead of c.IP() so the leftmost entry is
// recorded regardless of the proxy settings of the fiber app.
func transportFromRequest(c *fiber.Ctx) consent.Transport {
	peer := ""
	if ip := c.Context().RemoteIP(); ip != nil {
		peer = ip.String()
	}
	return consent.Transport{
		ForwardedFor: c.Get(fiber.HeaderXForwardedFor),
		PeerAddr:     peer,
		UserAgent:    c.Get(fiber.HeaderUserAgent),
	}
}

// GetClientIP returns the address recorded as ip_address for the request,
// falling back to c.IP() when nothing can be derived. The rate limiter keys on
// it so clients behind one proxy get separate buckets.
func GetClientIP(c *fiber.Ctx) string {
	audit := consent.DeriveAuditContext(transportFromRequest(c))
	if audit.IPAddress == nil {
		return c.IP()
	}
	return *audit.IPAddress
}

// isJSONRequest reports whether the body is declared as JSON. Other content
// types are treated like an empty body.
func isJSONRequest(c *fiber.Ctx) bool {
	ctype := strings.ToLower(string(c.Request().Header.ContentType()))
	return strings.HasPrefix(ctype, fiber.MIMEApplicationJSON)
}

// decodeJSONBody unmarshals a JSON body into out. Missing or non-JSON bodies
// leave out untouched.
func decodeJSONBody(c *fiber.Ctx, out any) error {
	body := c.Body()
	if len(body) == 0 || !isJSONRequest(c) {
		return nil
	}
	return json.Unmarshal(body, out)
}

func errorResponse(c *fiber.Ctx, status int, key, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"ok": false,
		key:  message,
	})
}
