// Package document renders order tickets and delivery notes as PDF.
package document

import (
	"bytes"
	"fmt"
	"strings"

	"autoparts/internal/domain"

	"github.com/go-pdf/fpdf"
)

const (
	defaultCompanyName = "AutoParts Pro"

	pageMargin = 12.7 // half an inch, in mm
	lineHeight = 5.5
)

// item table column widths in mm
var columns = []struct {
	title string
	width float64
	align string
}{
	{"Producto", 80, "L"},
	{"Tipo", 25, "L"},
	{"Cant.", 20, "R"},
	{"Precio", 32, "R"},
	{"Subtotal", 32, "R"},
}

// Renderer builds Letter-sized PDFs with the built-in Helvetica fonts
type Renderer struct {
	compress bool
}

// NewRenderer returns a renderer producing compressed PDFs
func NewRenderer() *Renderer {
	return &Renderer{compress: true}
}

// Render lays out the order document. company and bank may be empty.
func (r *Renderer) Render(kind domain.DocumentKind, order *domain.Order, company *domain.CompanyConfig, bank *domain.BankConfig) ([]byte, error) {
	if order == nil {
		return nil, fmt.Errorf("order is required")
	}
	if company == nil {
		company = &domain.CompanyConfig{}
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCompression(r.compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(fmt.Sprintf("%s %s", kind.Title(), order.OrderID), true)
	pdf.AddPage()

	w := &writer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	w.header(company)
	w.title(kind, order)
	w.customer(order)
	w.shipping(order.ShippingAddress)
	w.items(order)
	w.payment(order, bank)
	w.origin(order)
	w.notes(order.Notes)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to lay out document: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// writer wraps fpdf with the cp1252 translation needed for Spanish text
type writer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (w *writer) heading(text string, size float64) {
	w.pdf.SetFont("Helvetica", "B", size)
	w.pdf.CellFormat(0, size*0.6, w.tr(text), "", 1, "L", false, 0, "")
	w.pdf.Ln(2)
}

func (w *writer) section(text string) {
	w.pdf.SetFont("Helvetica", "B", 10)
	w.pdf.CellFormat(0, lineHeight, w.tr(text), "", 1, "L", false, 0, "")
}

func (w *writer) line(format string, args ...interface{}) {
	w.pdf.SetFont("Helvetica", "", 10)
	w.pdf.MultiCell(0, lineHeight, w.tr(fmt.Sprintf(format, args...)), "", "L", false)
}

func (w *writer) header(company *domain.CompanyConfig) {
	name := company.Name
	if name == "" {
		name = defaultCompanyName
	}
	w.heading(name, 18)

	if company.Address != "" {
		w.line("Dirección: %s", company.Address)
	}
	if company.Phone != "" {
		w.line("Teléfono: %s", company.Phone)
	}
	if company.RIF != "" {
		w.line("RIF: %s", company.RIF)
	}
	w.pdf.Ln(7)
}

func (w *writer) title(kind domain.DocumentKind, order *domain.Order) {
	w.heading(kind.Title(), 18)
	w.section("Nº de Pedido: " + order.OrderID)
	w.line("Fecha: %s", order.CreatedAt.Format("2006-01-02"))
	w.pdf.Ln(5)
}

func (w *writer) customer(order *domain.Order) {
	w.section("DATOS DEL CLIENTE")
	w.line("Nombre: %s", order.CustomerName)
	w.line("Email: %s", order.CustomerEmail)
	if order.CustomerPhone != "" {
		w.line("Teléfono: %s", order.CustomerPhone)
	}
}

func (w *writer) shipping(addr *domain.ShippingAddress) {
	if addr == nil {
		return
	}
	parts := make([]string, 0, 5)
	for _, p := range []string{addr.Street, addr.City, addr.State, addr.Zip, addr.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return
	}

	w.pdf.Ln(2.5)
	w.section("DIRECCIÓN DE ENVÍO")
	w.line("%s", strings.Join(parts, ", "))
}

func (w *writer) items(order *domain.Order) {
	w.pdf.Ln(5)
	w.section("PRODUCTOS")

	w.pdf.SetFont("Helvetica", "B", 10)
	w.pdf.SetFillColor(128, 128, 128)
	w.pdf.SetTextColor(245, 245, 245)
	for _, col := range columns {
		w.pdf.CellFormat(col.width, 8, w.tr(col.title), "1", 0, col.align, true, 0, "")
	}
	w.pdf.Ln(-1)

	w.pdf.SetFont("Helvetica", "", 10)
	w.pdf.SetTextColor(0, 0, 0)
	for _, item := range order.Items {
		cells := []string{
			item.ProductName,
			saleTypeLabel(item.SaleType),
			fmt.Sprintf("%d", item.Quantity),
			"$" + item.Price.StringFixed(2),
			"$" + item.Subtotal().StringFixed(2),
		}
		for i, col := range columns {
			w.pdf.CellFormat(col.width, 7, w.tr(truncate(cells[i], 45)), "1", 0, col.align, false, 0, "")
		}
		w.pdf.Ln(-1)
	}

	offset := 0.0
	for _, col := range columns[:3] {
		offset += col.width
	}
	w.pdf.CellFormat(offset, 7, "", "", 0, "L", false, 0, "")
	w.pdf.SetFont("Helvetica", "B", 10)
	w.pdf.CellFormat(columns[3].width, 7, "TOTAL:", "", 0, "R", false, 0, "")
	w.pdf.CellFormat(columns[4].width, 7, "$"+order.Total.StringFixed(2), "", 1, "R", false, 0, "")
}

func (w *writer) payment(order *domain.Order, bank *domain.BankConfig) {
	w.pdf.Ln(5)
	w.section("INFORMACIÓN DE PAGO")
	method := order.PaymentMethod
	if method == "" || method == domain.PaymentMethodBankTransfer {
		method = "Transferencia bancaria"
	}
	w.line("Método: %s", method)
	w.line("Estado: %s", strings.ToUpper(string(order.PaymentStatus)))

	if bank == nil || bank.BankName == "" {
		return
	}
	w.pdf.Ln(2.5)
	w.section("DATOS BANCARIOS")
	w.line("Banco: %s", bank.BankName)
	w.line("Cuenta: %s", bank.AccountNumber)
	w.line("Titular: %s", bank.AccountHolder)
	w.line("Tipo: %s", bank.AccountType)
	if bank.Identification != "" {
		w.line("Cédula/RIF: %s", bank.Identification)
	}
}

func (w *writer) origin(order *domain.Order) {
	if order.Source == "" || order.Source == domain.SourceWeb {
		return
	}
	w.pdf.Ln(2.5)
	w.line("Origen del pedido: %s", strings.ToUpper(order.Source))
	if order.ExternalOrderID != "" {
		w.line("ID Externo: %s", order.ExternalOrderID)
	}
}

func (w *writer) notes(notes string) {
	if strings.TrimSpace(notes) == "" {
		return
	}
	w.pdf.Ln(2.5)
	w.section("NOTAS")
	w.line("%s", notes)
}

func saleTypeLabel(t domain.SaleType) string {
	switch t {
	case domain.SaleTypeWholesale:
		return "Mayor"
	default:
		return "Detal"
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
