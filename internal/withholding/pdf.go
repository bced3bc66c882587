package withholding

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const thaiFont = "THSarabunNew"

// Renderer draws certificates onto A4. When a template image (a scan of the
// blank form) is configured the values land on top of it; otherwise only the
// values and a plain heading are printed.
type Renderer struct {
	fontPath     string
	templatePath string
}

// NewRenderer accepts empty paths. Thai text needs a UTF-8 TrueType font.
func NewRenderer(fontPath, templatePath string) *Renderer {
	return &Renderer{fontPath: fontPath, templatePath: templatePath}
}

// Filename is the download name of a certificate PDF.
func Filename(c *Certificate) string {
	return c.DocNo + ".pdf"
}

func (r *Renderer) Render(w io.Writer, c *Certificate) error {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(c.DocNo, true)
	pdf.AddPage()
	_, pageH := pdf.GetPageSize()

	font := "Helvetica"
	if fileExists(r.fontPath) {
		pdf.AddUTF8Font(thaiFont, "", r.fontPath)
		font = thaiFont
	}

	if fileExists(r.templatePath) {
		pageW, _ := pdf.GetPageSize()
		pdf.ImageOptions(r.templatePath, 0, 0, pageW, pageH, false,
			gofpdf.ImageOptions{ReadDpi: true}, 0, "")
	} else {
		pdf.SetFont(font, "", 16)
		pdf.Text(90, 40, "หนังสือรับรองการหักภาษี ณ ที่จ่าย "+c.FormType.Title())
	}

	d := &drawer{pdf: pdf, font: font, pageH: pageH}
	d.text(FieldPayerName, c.Payer.Name)
	d.wrapped(FieldPayerAddress, c.Payer.Address, 2)
	d.taxID(FieldPayerTaxID, c.Payer.TaxID)
	d.text(FieldPayeeName, c.Payee.Name)
	d.wrapped(FieldPayeeAddress, c.Payee.Address, 2)
	d.taxID(FieldPayeeTaxID, c.Payee.TaxID)

	switch c.FormType {
	case FormPND3:
		d.check(FieldCheckPND3)
	case FormPND53:
		d.check(FieldCheckPND53)
	}
	d.check(FieldCheckWithheld)

	date := c.PaymentDate.Format("02/01/2006")
	d.text(FieldPaymentDate, date)
	d.text(FieldRowBase, FormatAmount(c.BaseAmount))
	d.text(FieldRowWHT, FormatAmount(c.WHTAmount))
	d.text(FieldSumBase, FormatAmount(c.BaseAmount))
	d.text(FieldSumWHT, FormatAmount(c.WHTAmount))
	d.text(FieldWHTText, BahtText(c.WHTAmount))
	d.dateBoxes(FieldSignDate, date)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render certificate %s: %w", c.DocNo, err)
	}
	return nil
}

type drawer struct {
	pdf   *gofpdf.Fpdf
	font  string
	pageH float64
}

// top converts a bottom-up form coordinate to gofpdf's top-down one.
func (d *drawer) top(y float64) float64 {
	return d.pageH - y
}

func (d *drawer) text(f Field, s string) {
	if s == "" {
		return
	}
	slot := Layout[f]
	d.pdf.SetFont(d.font, "", slot.Size)
	x := slot.X
	if slot.Right {
		x -= d.pdf.GetStringWidth(s)
	}
	d.pdf.Text(x, d.top(slot.Y), s)
}

func (d *drawer) wrapped(f Field, s string, maxLines int) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return
	}
	slot := Layout[f]
	d.pdf.SetFont(d.font, "", slot.Size)
	lines := []string{s}
	// SplitText indexes glyph widths by rune, which core fonts only cover up to 255.
	if d.font == thaiFont {
		lines = d.pdf.SplitText(s, slot.Width)
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	y := slot.Y
	for _, ln := range lines {
		d.pdf.Text(slot.X, d.top(y), ln)
		y -= slot.Size + 2
	}
}

// centered prints ch in the middle of the box whose left edge is x.
func (d *drawer) centered(slot Slot, x float64, ch string) {
	w := d.pdf.GetStringWidth(ch)
	baseline := slot.Y + boxHeight/2 - slot.Size*baselineTweak
	d.pdf.Text(x+(slot.BoxW-w)/2, d.top(baseline), ch)
}

func (d *drawer) taxID(f Field, digits string) {
	if digits == "" {
		return
	}
	slot := Layout[f]
	d.pdf.SetFont(d.font, "", slot.Size)
	x := slot.X
	for i, ch := range digitsOnly(digits) {
		if i >= 13 {
			break
		}
		d.centered(slot, x, string(ch))
		x += slot.BoxW
		for _, g := range taxIDGroups {
			if i+1 == g {
				x += slot.Gap
			}
		}
	}
}

// dateBoxes prints dd/mm/yyyy one digit per box; slashes become a narrow gap.
func (d *drawer) dateBoxes(f Field, date string) {
	slot := Layout[f]
	d.pdf.SetFont(d.font, "", slot.Size)
	x := slot.X
	for _, ch := range date {
		if ch == '/' {
			x += slot.BoxW * 0.85
			continue
		}
		d.centered(slot, x, string(ch))
		x += slot.BoxW
	}
}

// check draws a tick inside the box whose bottom-left corner is the slot.
func (d *drawer) check(f Field) {
	slot := Layout[f]
	size := slot.Size
	pad := size * 0.22
	x1, y1 := slot.X+pad, slot.Y+size*0.45
	x2, y2 := slot.X+size*0.42, slot.Y+pad
	x3, y3 := slot.X+size-pad, slot.Y+size-pad

	d.pdf.SetLineWidth(1.8)
	d.pdf.Line(x1, d.top(y1), x2, d.top(y2))
	d.pdf.Line(x2, d.top(y2), x3, d.top(y3))
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
