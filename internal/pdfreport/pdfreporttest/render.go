// Package pdfreporttest renders gene report text into real PDF files for
// tests of the extraction path.
package pdfreporttest

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/signintech/gopdf"
	"golang.org/x/image/font/gofont/goregular"
)

// SampleReport is a three-gene report: TP53 deficient, BRCA1 excessive and
// APC normal, for a 45 year old female with blood group AB-.
const SampleReport = `Gene Report
Patient Information:
Age: 45
Gender: Female
Blood Group: AB-
History: Diabetes
Type: Diagnostic
Gene Analysis:
Gene: TP53
Value: 0.8
Normal: 1.0 - 2.0
Gene: BRCA1
Value: 2.5
Normal: 1.0 - 2.0
Gene: APC
Value: 1.5
Normal: 1.0 - 2.0`

// Render writes each line of text on its own line of an A4 page.
func Render(text string) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	if err := pdf.AddTTFFontData("regular", goregular.TTF); err != nil {
		return nil, errors.Wrap(err, "load font")
	}
	pdf.AddPage()
	if err := pdf.SetFont("regular", "", 12); err != nil {
		return nil, errors.Wrap(err, "set font")
	}

	y := 40.0
	for _, line := range strings.Split(text, "\n") {
		if y > 800 {
			pdf.AddPage()
			y = 40
		}
		if strings.TrimSpace(line) != "" {
			pdf.SetXY(40, y)
			if err := pdf.Cell(nil, line); err != nil {
				return nil, errors.Wrap(err, "write line")
			}
		}
		y += 18
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "write pdf")
	}
	return buf.Bytes(), nil
}
