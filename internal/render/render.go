// Package render produces the printable invoice representations. It only
// reads committed records; nothing here mutates state.
package render

import (
	"html/template"
	"io"

	"serenia/backend/internal/csvio"
	"serenia/backend/internal/domain"
)

var invoiceTmpl = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{if .IsReturn}}Return{{else}}Invoice{{end}} #{{.Record.InvoiceNumber}}</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; }
table { width: 100%; border-collapse: collapse; }
th, td { text-align: left; padding: 2px 8px; }
td.num, th.num { text-align: right; }
.totals td { border-top: 1px solid #000; }
.negative { color: #a00; }
</style>
</head>
<body>
<h2>{{.ShopName}}</h2>
<p>GSTIN: {{.GSTNumber}}</p>
<p>
{{if .IsReturn}}Return{{else}}Invoice{{end}} #{{.Record.InvoiceNumber}}<br>
{{if .IsReturn}}Original invoice #{{.Record.OriginalInvoiceNumber}}<br>{{end}}
Date: {{.Date}}<br>
{{if .Record.CustomerName}}Customer: {{.Record.CustomerName}} ({{.Record.CustomerPhone}})<br>{{end}}
Status: {{.Record.PaymentStatus}}
</p>
<table>
<tr><th>Code</th><th>Item</th><th class="num">Price</th><th class="num">Qty</th><th class="num">Total</th></tr>
{{range .Record.Lines}}
<tr><td>{{.Code}}</td><td>{{.Name}}</td><td class="num">{{.UnitPrice}}</td><td class="num">{{.Qty}}</td><td class="num">{{.LineTotal}}</td></tr>
{{end}}
<tr class="totals"><td colspan="4">Subtotal</td><td class="num">{{.Record.Totals.Subtotal}}</td></tr>
<tr><td colspan="4">Discount ({{.Record.Totals.DiscountPercent}}%)</td><td class="num">{{.Record.Totals.DiscountAmount}}</td></tr>
<tr><td colspan="4">Taxable value</td><td class="num">{{.Record.Totals.SubtotalAfterDiscount}}</td></tr>
<tr><td colspan="4">CGST</td><td class="num">{{.Record.Totals.CGST}}</td></tr>
<tr><td colspan="4">SGST</td><td class="num">{{.Record.Totals.SGST}}</td></tr>
<tr><td colspan="4"><strong>Grand total</strong></td><td class="num{{if .IsReturn}} negative{{end}}"><strong>{{.Record.Totals.GrandTotal}}</strong></td></tr>
{{if .IsReturn}}
<tr><td colspan="4">Loyalty points deducted</td><td class="num">{{.Record.PointsAwarded}}</td></tr>
{{else if .Record.CustomerID}}
<tr><td colspan="4">Loyalty points earned</td><td class="num">{{.Record.PointsAwarded}}</td></tr>
{{end}}
</table>
</body>
</html>
`))

type invoiceView struct {
	ShopName  string
	GSTNumber string
	Record    domain.InvoiceRecord
	IsReturn  bool
	Date      string
}

// InvoiceHTML writes the printable invoice page.
func InvoiceHTML(w io.Writer, shopName, gstNumber string, record domain.InvoiceRecord) error {
	return invoiceTmpl.Execute(w, invoiceView{
		ShopName:  shopName,
		GSTNumber: gstNumber,
		Record:    record,
		IsReturn:  record.Kind == domain.InvoiceKindReturn,
		Date:      record.Date.Format(csvio.DateLayout),
	})
}

// InvoiceCSV writes the persisted CSV form of the record.
func InvoiceCSV(w io.Writer, shopName, gstNumber string, record domain.InvoiceRecord) error {
	return csvio.WriteInvoice(w, shopName, gstNumber, record)
}
