package oss

import (
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func IsMultipart(c *fiber.Ctx) bool {
	ct := strings.ToLower(strings.TrimSpace(c.Get(fiber.HeaderContentType)))
	return strings.HasPrefix(ct, "multipart/form-data")
}

var defaultProofFields = []string{"proof", "proof_of_payment", "file", "image"}

// FormFile returns the first uploaded file among fieldNames, or nil when the
// request carries none.
func FormFile(c *fiber.Ctx, fieldNames ...string) *multipart.FileHeader {
	if !IsMultipart(c) {
		return nil
	}
	if len(fieldNames) == 0 {
		fieldNames = defaultProofFields
	}
	for _, fn := range fieldNames {
		if fh, err := c.FormFile(fn); err == nil && fh != nil {
			return fh
		}
	}
	return nil
}
