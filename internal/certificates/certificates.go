// Package certificates renders the course-completion certificate PDF.
package certificates

import (
	"bytes"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"aulago/backend/internal/model"
)

// Generate produces a landscape A4 certificate naming the student, the course
// and the completion date, signed by the course's teacher.
func Generate(student model.User, course model.Course, teacher model.User, completedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 30)
	pdf.SetTextColor(64, 64, 64)
	pdf.SetY(40)
	pdf.CellFormat(0, 14, "CERTIFICADO DE FINALIZACION", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 18)
	pdf.SetTextColor(128, 128, 128)
	pdf.Ln(14)
	pdf.CellFormat(0, 10, "Este certificado se otorga a:", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)
	fullName := strings.ToUpper(strings.TrimSpace(student.Name + " " + student.Surname))
	pdf.CellFormat(0, 12, fullName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 18)
	pdf.SetTextColor(128, 128, 128)
	pdf.Ln(6)
	pdf.CellFormat(0, 10, "Por haber completado satisfactoriamente el curso:", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(0, 0, 200)
	pdf.Ln(6)
	pdf.CellFormat(0, 11, course.Title, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(128, 128, 128)
	pdf.Ln(16)
	pdf.CellFormat(0, 8, "Otorgado el "+completedAt.Format("02/01/2006"), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 16)
	pdf.Ln(14)
	pdf.CellFormat(0, 8, "_________________________", "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 8, teacher.Name+" "+teacher.Surname, "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 8, "Instructor", "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
