// file: internals/helpers/csv.go
package helper

import (
	"bytes"
	"encoding/csv"

	"github.com/gofiber/fiber/v2"
)

// SendCSV writes header and rows as an attachment named filename.
func SendCSV(c *fiber.Ctx, filename string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment(filename)
	return c.Send(buf.Bytes())
}
