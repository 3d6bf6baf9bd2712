package report

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/signintech/gopdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	margin     = 40.0
	lineHeight = 18.0
	pageBottom = 800.0
)

var columns = []struct {
	title string
	width float64
}{
	{"Patient", 120},
	{"Risk score", 100},
	{"Risk level", 100},
	{"Health status", 195},
}

// RenderPDF writes r as an A4 document: a header, the status summary and
// one table line per patient.
func RenderPDF(w io.Writer, r Report) error {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	if err := pdf.AddTTFFontData("regular", goregular.TTF); err != nil {
		return errors.Wrap(err, "load regular font")
	}
	if err := pdf.AddTTFFontData("bold", gobold.TTF); err != nil {
		return errors.Wrap(err, "load bold font")
	}

	pdf.AddPage()
	if err := pdf.SetFont("bold", "", 18); err != nil {
		return errors.Wrap(err, "set font")
	}
	pdf.SetXY(margin, margin)
	if err := pdf.Cell(nil, "GeneWell risk report"); err != nil {
		return errors.Wrap(err, "write title")
	}

	if err := pdf.SetFont("regular", "", 11); err != nil {
		return errors.Wrap(err, "set font")
	}
	lines := []string{
		"Generated: " + r.Generated.Format("2006-01-02 15:04:05 MST"),
		fmt.Sprintf("Total patients: %d", r.TotalPatients),
		fmt.Sprintf("High risk: %d   At risk: %d   Normal: %d", r.Summary.HighRisk, r.Summary.AtRisk, r.Summary.Normal),
	}
	y := margin + 2*lineHeight
	for _, l := range lines {
		pdf.SetXY(margin, y)
		if err := pdf.Cell(nil, l); err != nil {
			return errors.Wrap(err, "write summary")
		}
		y += lineHeight
	}

	y += lineHeight
	if err := header(&pdf, y); err != nil {
		return err
	}
	y += lineHeight

	for _, p := range r.Patients {
		if y > pageBottom {
			pdf.AddPage()
			y = margin
			if err := header(&pdf, y); err != nil {
				return err
			}
			y += lineHeight
		}
		status := p.HealthStatus
		if p.Error != "" {
			status += ": " + p.Error
		}
		cells := []string{p.PatientID, fmt.Sprintf("%.3f", p.RiskScore), p.RiskLevel, status}
		if err := row(&pdf, y, cells); err != nil {
			return err
		}
		y += lineHeight
	}

	if _, err := pdf.WriteTo(w); err != nil {
		return errors.Wrap(err, "write pdf")
	}
	return nil
}

func header(pdf *gopdf.GoPdf, y float64) error {
	if err := pdf.SetFont("bold", "", 11); err != nil {
		return errors.Wrap(err, "set font")
	}
	titles := make([]string, len(columns))
	for i, c := range columns {
		titles[i] = c.title
	}
	if err := row(pdf, y, titles); err != nil {
		return err
	}
	pdf.Line(margin, y+lineHeight-3, margin+515, y+lineHeight-3)
	return errors.Wrap(pdf.SetFont("regular", "", 10), "set font")
}

func row(pdf *gopdf.GoPdf, y float64, cells []string) error {
	x := margin
	for i, c := range columns {
		pdf.SetXY(x, y)
		if err := pdf.CellWithOption(&gopdf.Rect{W: c.width - 5, H: lineHeight}, cells[i], gopdf.CellOption{Align: gopdf.Left}); err != nil {
			return errors.Wrap(err, "write cell")
		}
		x += c.width
	}
	return nil
}
