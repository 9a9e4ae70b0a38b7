package audit

import (
	"time"

	"github.com/hmansour/farmgate-pos/pkg/db/models"
	"github.com/hmansour/farmgate-pos/pkg/enums"
)

// Change is one pending mutation awaiting an audit log row. Old is populated
// for updates/deletes, New for inserts/updates. Snapshots are produced by the
// explicit per-entity functions below; nothing is derived via reflection.
type Change struct {
	Table     string
	Operation enums.AuditOperation
	EntityID  string
	Old       map[string]any
	New       map[string]any
}

// Recorder collects pending changes for audit materialization at save time.
type Recorder interface {
	Record(change Change)
}

func SnapshotTruck(t *models.Truck) map[string]any {
	if t == nil {
		return nil
	}
	return map[string]any{
		"id":          t.ID.String(),
		"number":      t.Number,
		"driver_name": t.DriverName,
		"is_active":   t.IsActive,
	}
}

func SnapshotCustomer(c *models.Customer) map[string]any {
	if c == nil {
		return nil
	}
	return map[string]any{
		"id":         c.ID.String(),
		"name":       c.Name,
		"phone":      strPtr(c.Phone),
		"address":    strPtr(c.Address),
		"total_debt": c.TotalDebt.StringFixed(2),
		"is_active":  c.IsActive,
		"version":    c.Version,
	}
}

func SnapshotTruckLoad(l *models.TruckLoad) map[string]any {
	if l == nil {
		return nil
	}
	return map[string]any{
		"id":           l.ID.String(),
		"truck_id":     l.TruckID.String(),
		"load_date":    l.LoadDate.Format(time.DateOnly),
		"total_weight": l.TotalWeight.StringFixed(2),
		"cages_count":  l.CagesCount,
		"status":       string(l.Status),
		"notes":        strPtr(l.Notes),
	}
}

func SnapshotInvoice(i *models.Invoice) map[string]any {
	if i == nil {
		return nil
	}
	return map[string]any{
		"id":                  i.ID.String(),
		"number":              i.Number,
		"customer_id":         i.CustomerID.String(),
		"truck_id":            i.TruckID.String(),
		"invoice_date":        i.InvoiceDate.Format(time.RFC3339),
		"gross_weight":        i.GrossWeight.StringFixed(2),
		"cages_weight":        i.CagesWeight.StringFixed(2),
		"cages_count":         i.CagesCount,
		"net_weight":          i.NetWeight.StringFixed(2),
		"unit_price":          i.UnitPrice.StringFixed(2),
		"total_amount":        i.TotalAmount.StringFixed(2),
		"discount_percentage": i.DiscountPercentage.StringFixed(2),
		"final_amount":        i.FinalAmount.StringFixed(2),
		"previous_balance":    i.PreviousBalance.StringFixed(2),
		"current_balance":     i.CurrentBalance.StringFixed(2),
	}
}

func SnapshotPayment(p *models.Payment) map[string]any {
	if p == nil {
		return nil
	}
	snapshot := map[string]any{
		"id":             p.ID.String(),
		"customer_id":    p.CustomerID.String(),
		"payment_date":   p.PaymentDate.Format(time.RFC3339),
		"amount":         p.Amount.StringFixed(2),
		"payment_method": string(p.PaymentMethod),
		"notes":          strPtr(p.Notes),
	}
	if p.InvoiceID != nil {
		snapshot["invoice_id"] = p.InvoiceID.String()
	}
	return snapshot
}

func SnapshotReconciliation(r *models.DailyReconciliation) map[string]any {
	if r == nil {
		return nil
	}
	return map[string]any{
		"id":                 r.ID.String(),
		"truck_id":           r.TruckID.String(),
		"date":               r.Date.Format(time.DateOnly),
		"load_weight":        r.LoadWeight.StringFixed(2),
		"sold_weight":        r.SoldWeight.StringFixed(2),
		"wastage_weight":     r.WastageWeight.StringFixed(2),
		"wastage_percentage": r.WastagePercentage.StringFixed(2),
		"status":             string(r.Status),
		"notes":              strPtr(r.Notes),
	}
}

// SnapshotOperator deliberately omits the PIN hash.
func SnapshotOperator(o *models.Operator) map[string]any {
	if o == nil {
		return nil
	}
	return map[string]any{
		"id":           o.ID.String(),
		"login_name":   o.LoginName,
		"display_name": o.DisplayName,
		"role":         string(o.Role),
		"is_active":    o.IsActive,
	}
}

func strPtr(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
