package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"trainerpro-backend/config"
	"trainerpro-backend/models"
	"trainerpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type MonthlyFinancials struct {
	Month       string          `json:"month"`
	Billed      decimal.Decimal `json:"billed"`
	Collected   decimal.Decimal `json:"collected"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Obligations int64           `json:"obligations"`
}

// reportRange resolves ?year= (default: current year) into the covered span.
func reportRange(c *gin.Context) (time.Time, time.Time, int) {
	year := time.Now().Year()
	if raw := c.Query("year"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &year); err != nil {
			year = time.Now().Year()
		}
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	return from, to, year
}

func monthlyFinancials(from, to time.Time) ([]MonthlyFinancials, error) {
	var payments []models.PaymentObligation
	err := config.DB.
		Where("due_at >= ? AND due_at < ?", from, to).
		Order("due_at").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]*MonthlyFinancials)
	var order []string
	for _, p := range payments {
		key := p.DueAt.Format("2006-01")
		row, ok := byMonth[key]
		if !ok {
			row = &MonthlyFinancials{Month: key}
			byMonth[key] = row
			order = append(order, key)
		}
		row.Billed = row.Billed.Add(p.Amount)
		row.Collected = row.Collected.Add(p.PaidAmount)
		row.Outstanding = row.Outstanding.Add(p.PendingAmount())
		row.Obligations++
	}

	out := make([]MonthlyFinancials, 0, len(order))
	for _, key := range order {
		out = append(out, *byMonth[key])
	}
	return out, nil
}

// GetFinancialReport returns month-by-month billed, collected and outstanding
// totals for one year.
func GetFinancialReport(c *gin.Context) {
	from, to, year := reportRange(c)

	months, err := monthlyFinancials(from, to)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build financial report")
		return
	}

	var billed, collected, outstanding decimal.Decimal
	for _, m := range months {
		billed = billed.Add(m.Billed)
		collected = collected.Add(m.Collected)
		outstanding = outstanding.Add(m.Outstanding)
	}

	c.JSON(http.StatusOK, gin.H{
		"year":   year,
		"months": months,
		"totals": gin.H{
			"billed":      billed,
			"collected":   collected,
			"outstanding": outstanding,
		},
	})
}

// ExportFiscalCSV streams the yearly financials as CSV, the shape accountants
// ask for at tax time.
func ExportFiscalCSV(c *gin.Context) {
	from, to, year := reportRange(c)

	months, err := monthlyFinancials(from, to)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build fiscal export")
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="fiscal-%d.csv"`, year))

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"mes", "facturado", "cobrado", "pendiente", "obligaciones"})
	for _, m := range months {
		_ = w.Write([]string{
			m.Month,
			m.Billed.StringFixed(2),
			m.Collected.StringFixed(2),
			m.Outstanding.StringFixed(2),
			fmt.Sprintf("%d", m.Obligations),
		})
	}
	w.Flush()
}
