package letter

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ClearanceData carries the structured fields printed on a clearance certificate.
type ClearanceData struct {
	ApplicationNumber string
	ApplicationType   string
	CompanyName       string
	FacilityName      string
	FacilityAddress   string
	Divisions         []string
	Remarks           string
	IssuedBy          string
	IssuedAt          time.Time
}

// ClearanceRenderer produces the clearance certificate document.
type ClearanceRenderer struct {
	agencyName string
}

// NewClearanceRenderer constructs a renderer stamped with the agency letterhead.
func NewClearanceRenderer(agencyName string) *ClearanceRenderer {
	if agencyName == "" {
		agencyName = "National Regulatory Authority"
	}
	return &ClearanceRenderer{agencyName: agencyName}
}

// Render creates the certificate PDF for a cleared application.
func (r *ClearanceRenderer) Render(data ClearanceData) ([]byte, error) {
	if data.ApplicationNumber == "" {
		return nil, fmt.Errorf("application number required")
	}
	if data.IssuedAt.IsZero() {
		data.IssuedAt = time.Now().UTC()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, r.agencyName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 9, "CERTIFICATE OF CLEARANCE", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 11)
	writeRow := func(label, value string) {
		if value == "" {
			return
		}
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(55, 8, label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 8, value, "", "", false)
	}

	writeRow("Application No.", data.ApplicationNumber)
	writeRow("Application Type", data.ApplicationType)
	writeRow("Applicant", data.CompanyName)
	writeRow("Facility", data.FacilityName)
	writeRow("Facility Address", data.FacilityAddress)
	if len(data.Divisions) > 0 {
		writeRow("Reviewing Divisions", joinDivisions(data.Divisions))
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 11)
	pdf.MultiCell(0, 7, "This is to certify that the above application has completed the full review workflow and has been cleared by the Director.", "", "", false)
	pdf.Ln(4)
	if data.Remarks != "" {
		pdf.SetFont("Arial", "I", 10)
		pdf.MultiCell(0, 6, "Executive remarks: "+data.Remarks, "", "", false)
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, "Issued on "+data.IssuedAt.Format("02 January 2006"), "", 1, "", false, 0, "")
	if data.IssuedBy != "" {
		pdf.Ln(12)
		pdf.CellFormat(0, 8, data.IssuedBy, "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 6, "Director", "", 1, "", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render clearance certificate: %w", err)
	}
	return buf.Bytes(), nil
}

func joinDivisions(divisions []string) string {
	out := ""
	for i, d := range divisions {
		if i > 0 {
			out += ", "
		}
		out += d
	}
	return out
}
