package report

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/phpdave11/gofpdf"
)

// Manifest renders a trip sheet with the seat list. company may be nil.
func Manifest(trip *domain.Trip, company *domain.Account) ([]byte, string, error) {
	if trip == nil {
		return nil, "", domain.ErrNotFound
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Trip manifest", false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TRIP MANIFEST")
	pdf.Ln(12)

	companyName := "-"
	if company != nil && company.Name != "" {
		companyName = company.Name
	}

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Trip       : %s", trip.ID),
		fmt.Sprintf("Company    : %s", companyName),
		fmt.Sprintf("Route      : %s -> %s", safe(trip.DepartureCity), safe(trip.DestinationCity)),
		fmt.Sprintf("Departure  : %s", safe(trip.DateTime)),
		fmt.Sprintf("Vehicle    : %s (%d seats)", trip.CarType, trip.Capacity()),
		fmt.Sprintf("Price      : %.2f", trip.Price),
		fmt.Sprintf("Status     : %s", trip.Status),
		fmt.Sprintf("Available  : %d", trip.SeatsAvailable),
		fmt.Sprintf("Booked     : %d", trip.SeatsBooked),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, tr(s))
		pdf.Ln(7)
	}
	pdf.Ln(6)

	if !trip.HasSeatMap() {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, "The seat map has not been initialized for this trip yet.", "", "", false)
	} else {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(30, 8, "Seat", "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 8, "Status", "1", 1, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, seat := range trip.Seats.List() {
			pdf.CellFormat(30, 7, fmt.Sprintf("%d", seat.ID), "1", 0, "C", false, 0, "")
			pdf.CellFormat(50, 7, string(seat.Status), "1", 1, "C", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render manifest: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("MANIFEST_%s.pdf", safeFilenamePart(trip.ID)), nil
}

func safe(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func safeFilenamePart(s string) string {
	return unsafeFilename.ReplaceAllString(s, "_")
}
