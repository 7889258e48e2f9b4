package notification

import (
	"bytes"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
)

// OverdueLine is one row of the overdue digest.
type OverdueLine struct {
	PaymentID     int64
	ReservationID int64
	ClientName    string
	ClientEmail   string
	Amount        decimal.Decimal
	DueDate       time.Time
	Installment   int
	Installments  int
}

const dateFormat = "2006-01-02"

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format(dateFormat) },
	"daysLate": func(due, asOf time.Time) int {
		return int(asOf.Sub(due).Hours() / 24)
	},
}

var overdueDigest = template.Must(template.New("overdue").Funcs(funcs).Parse(`<html><body>
<h2>Overdue payments as of {{date .AsOf}}</h2>
<p>{{len .Lines}} payment(s) totalling {{money .Total}} are past their due date.</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Payment</th><th>Reservation</th><th>Client</th><th>Installment</th><th>Amount</th><th>Due</th><th>Days late</th></tr>
{{- range .Lines}}
<tr><td>#{{.PaymentID}}</td><td>#{{.ReservationID}}</td><td>{{.ClientName}}{{if .ClientEmail}} ({{.ClientEmail}}){{end}}</td><td>{{if .Installments}}{{.Installment}}/{{.Installments}}{{else}}-{{end}}</td><td>{{money .Amount}}</td><td>{{date .DueDate}}</td><td>{{daysLate .DueDate $.AsOf}}</td></tr>
{{- end}}
</table>
</body></html>`))

var allClear = template.Must(template.New("all_clear").Funcs(funcs).Parse(`<html><body>
<h2>Weekly payment report {{date .AsOf}}</h2>
<p>No payments are overdue. Nothing to follow up this week.</p>
</body></html>`))

var settlement = template.Must(template.New("settlement").Funcs(funcs).Parse(`<html><body>
<p>Dear {{.Name}},</p>
<p>Reservation #{{.ReservationID}} is now fully paid. We received {{money .Total}} in total.</p>
<p>Thank you for staying with us.</p>
</body></html>`))

var refund = template.Must(template.New("refund").Funcs(funcs).Parse(`<html><body>
<p>Dear {{.Name}},</p>
<p>A refund of {{money .Amount}} was issued for payment #{{.PaymentID}} on reservation #{{.ReservationID}}.</p>
<p>Reason: {{.Reason}}</p>
</body></html>`))

// RenderOverdueDigest lists overdue payments for the billing desk.
func RenderOverdueDigest(lines []OverdueLine, asOf time.Time) (string, error) {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return render(overdueDigest, struct {
		Lines []OverdueLine
		AsOf  time.Time
		Total decimal.Decimal
	}{lines, asOf, total})
}

func RenderAllClear(asOf time.Time) (string, error) {
	return render(allClear, struct{ AsOf time.Time }{asOf})
}

func RenderSettlement(name string, reservationID int64, total decimal.Decimal) (string, error) {
	return render(settlement, struct {
		Name          string
		ReservationID int64
		Total         decimal.Decimal
	}{name, reservationID, total})
}

func RenderRefund(name string, paymentID, reservationID int64, amount decimal.Decimal, reason string) (string, error) {
	return render(refund, struct {
		Name          string
		PaymentID     int64
		ReservationID int64
		Amount        decimal.Decimal
		Reason        string
	}{name, paymentID, reservationID, amount, reason})
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
