// Package render produces the customer-facing HTML document for an invoice.
package render

import (
	"bytes"
	"html/template"

	invoicedomain "github.com/wifinitylabs/wifinity/internal/invoice/domain"
	subscriberdomain "github.com/wifinitylabs/wifinity/internal/subscriber/domain"
)

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Invoice #{{.Invoice.ID}}</title>
  <style>
    body { font-family: Arial, sans-serif; padding: 20px; }
    .card { border: 1px solid #eee; padding: 20px; border-radius: 8px; max-width: 800px; margin: auto; }
    .header { display: flex; justify-content: space-between; align-items: center; }
    table { width: 100%; border-collapse: collapse; margin-top: 20px; }
    th, td { text-align: left; padding: 8px; border-bottom: 1px solid #ddd; }
    .amount { text-align: right; }
  </style>
</head>
<body>
  <div class="card">
    <div class="header">
      <div>
        <h2>Wifinity</h2>
        <div>Invoice #: {{.Invoice.ID}}</div>
        <div>Date: {{.Invoice.GeneratedAt.Format "2006-01-02"}}</div>
        <div>Due: {{.Invoice.DueDate.Format "2006-01-02"}}</div>
      </div>
      <div>
        <strong>Bill To:</strong><br/>
        {{if .Subscriber.Name}}{{.Subscriber.Name}}{{else}}{{.Subscriber.Phone}}{{end}}<br/>
        {{.Subscriber.Email}}<br/>
        {{.Subscriber.Phone}}
      </div>
    </div>

    <table>
      <thead><tr><th>Description</th><th class="amount">Amount</th></tr></thead>
      <tbody>
        <tr>
          <td>Subscription charge ({{.Invoice.PeriodStart.Format "2006-01-02"}} &rarr; {{.Invoice.PeriodEnd.Format "2006-01-02"}})</td>
          <td class="amount">{{printf "%.2f" .Details.ProratedPrice}}</td>
        </tr>
        {{if gt .Details.UsageCharge 0.0}}
        <tr>
          <td>Usage charge ({{.Details.UsageBytes}} bytes)</td>
          <td class="amount">{{printf "%.2f" .Details.UsageCharge}}</td>
        </tr>
        {{end}}
      </tbody>
      <tfoot>
        <tr><th class="amount">Total</th><th class="amount">{{printf "%.2f" .Invoice.Amount}}</th></tr>
      </tfoot>
    </table>

    {{if .Details.Note}}<p>{{.Details.Note}}</p>{{end}}
    <p>Payment Status: {{.Invoice.Status}}</p>
  </div>
</body>
</html>
`

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("invoice").Parse(invoiceTemplate)
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

type renderData struct {
	Invoice    *invoicedomain.Invoice
	Subscriber *subscriberdomain.Subscriber
	Details    invoicedomain.Details
}

func (r *Renderer) RenderHTML(inv *invoicedomain.Invoice, sub *subscriberdomain.Subscriber) ([]byte, error) {
	details, err := inv.DecodeDetails()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, renderData{Invoice: inv, Subscriber: sub, Details: details}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
