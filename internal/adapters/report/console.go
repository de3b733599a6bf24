package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"hotel_churn/internal/app"
	"hotel_churn/internal/domain"
	"hotel_churn/internal/model"
	"hotel_churn/internal/stats"
)

// Console renders a run as aligned plain-text tables.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console { return &Console{w: w} }

// Write prints every section of res. The first write error is returned.
func (c *Console) Write(res *app.RunResult) error {
	p := &printer{w: c.w}
	p.header(res)
	p.dataset(res)
	p.ttests(res.TTests)
	p.chiSquares(res.ChiSquares)
	p.customers(res)
	p.models(res)
	p.odds(res)
	p.importances(res)
	p.risk(res)
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) section(title string) {
	p.printf("\n%s\n%s\n", title, strings.Repeat("=", len(title)))
}

// table writes rows through a tabwriter; each row is tab separated.
func (p *printer) table(head string, rows []string) {
	if p.err != nil {
		return
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, head)
	for _, r := range rows {
		fmt.Fprintln(tw, r)
	}
	p.err = tw.Flush()
}

func (p *printer) header(res *app.RunResult) {
	p.printf("Churn run %s (%s)\n", res.RunID, res.StartedAt.Format("2006-01-02 15:04:05 MST"))
}

func (p *printer) dataset(res *app.RunResult) {
	s := res.Summary
	p.section("Dataset")
	p.printf("bookings: %d  retained: %d  churned: %d  churn rate: %s\n",
		s.Rows, s.Retained, s.Churned, pct(s.ChurnRate))
	if s.Rows > 0 {
		p.printf("booking dates: %s to %s\n", s.FirstDate.Format("2006-01-02"), s.LastDate.Format("2006-01-02"))
	}
	if len(s.Missing) == 0 {
		p.printf("missing values: none\n")
		return
	}
	rows := make([]string, 0, len(s.Missing))
	for _, col := range sortedKeys(s.Missing) {
		rows = append(rows, fmt.Sprintf("%s\t%d\t%s", col, s.Missing[col], pct(float64(s.Missing[col])/float64(s.Rows))))
	}
	p.table("COLUMN\tMISSING\tSHARE", rows)
}

func (p *printer) ttests(rs []stats.TTestResult) {
	p.section("Engagement vs churn (t-test)")
	rows := make([]string, 0, len(rs))
	for _, r := range rs {
		if !r.Computable {
			rows = append(rows, fmt.Sprintf("%s\t%s\t%s\t\t\t\t\t%s", r.Feature, num(r.MeanRetained), num(r.MeanChurned), r.Note))
			continue
		}
		diff := num(r.DiffPercent) + "%"
		if math.IsNaN(r.DiffPercent) {
			diff = "n/a"
		}
		rows = append(rows, fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%.3f\t%s\t%s",
			r.Feature, num(r.MeanRetained), num(r.MeanChurned), num(r.Difference), diff,
			r.Statistic, pval(r.PValue), r.Significance))
	}
	p.table("FEATURE\tRETAINED\tCHURNED\tDIFF\tDIFF%\tT\tP\tSIG", rows)
}

func (p *printer) chiSquares(rs []stats.ChiSquareResult) {
	p.section("Categorical features vs churn (chi-square)")
	rows := make([]string, 0, len(rs))
	for _, r := range rs {
		if !r.Computable {
			rows = append(rows, fmt.Sprintf("%s\t%d\t\t\t\t\t\t%s", r.Feature, len(r.Table.Levels), r.Note))
			continue
		}
		rows = append(rows, fmt.Sprintf("%s\t%d\t%.3f\t%d\t%s\t%.3f\t%s\t%s",
			r.Feature, len(r.Table.Levels), r.Statistic, r.DF, pval(r.PValue), r.CramersV, r.Effect, r.Significance))
	}
	p.table("FEATURE\tLEVELS\tCHI2\tDF\tP\tCRAMER_V\tEFFECT\tSIG", rows)
}

func (p *printer) customers(res *app.RunResult) {
	p.section("Customers")
	p.printf("customers: %d  customer churn rate: %s\n", res.Customers, pct(res.CustomerChurnRate))
	p.printf("model features: %d  train: %d  test: %d\n", len(res.FeatureColumns), res.TrainSize, res.TestSize)
}

func (p *printer) models(res *app.RunResult) {
	title := "Model comparison"
	if res.Reused {
		title += " (stored models)"
	}
	p.section(title)
	rows := make([]string, 0, len(res.Evaluations))
	for _, e := range res.Evaluations {
		mark := ""
		if e.Model == res.Best.Model {
			mark = "best"
		}
		rows = append(rows, fmt.Sprintf("%s\t%.4f\t%.4f\t%.4f\t%.4f\t%s\t%s",
			model.DisplayName(e.Model), e.Accuracy, e.Precision, e.Recall, e.F1, auc(e.ROCAUC), mark))
	}
	p.table("MODEL\tACCURACY\tPRECISION\tRECALL\tF1\tROC_AUC\t", rows)

	for _, e := range res.Evaluations {
		p.printf("\n%s\n", model.DisplayName(e.Model))
		r := e.Report
		rows := make([]string, 0, 5)
		for _, c := range r.Classes {
			rows = append(rows, fmt.Sprintf("%s\t%.2f\t%.2f\t%.2f\t%d", c.Label, c.Precision, c.Recall, c.F1, c.Support))
		}
		rows = append(rows,
			fmt.Sprintf("accuracy\t\t\t%.2f\t%d", r.Accuracy, r.Macro.Support),
			fmt.Sprintf("macro avg\t%.2f\t%.2f\t%.2f\t%d", r.Macro.Precision, r.Macro.Recall, r.Macro.F1, r.Macro.Support),
			fmt.Sprintf("weighted avg\t%.2f\t%.2f\t%.2f\t%d", r.Weighted.Precision, r.Weighted.Recall, r.Weighted.F1, r.Weighted.Support),
		)
		p.table("\tPRECISION\tRECALL\tF1\tSUPPORT", rows)
		cm := e.Confusion
		p.table("actual \\ predicted\tRetained\tChurned", []string{
			fmt.Sprintf("Retained\t%d\t%d", cm.TN(), cm.FP()),
			fmt.Sprintf("Churned\t%d\t%d", cm.FN(), cm.TP()),
		})
	}
}

func (p *printer) odds(res *app.RunResult) {
	if len(res.OddsRatios) == 0 {
		return
	}
	p.section("Churn drivers (logistic regression odds ratios)")
	rows := make([]string, 0, len(res.OddsRatios))
	for _, o := range res.OddsRatios {
		rows = append(rows, fmt.Sprintf("%s\t%.4f\t%.4f\t%s", o.Feature, o.Coefficient, o.OddsRatio, o.Direction))
	}
	p.table("FEATURE\tCOEF\tODDS_RATIO\tEFFECT", rows)
}

func (p *printer) importances(res *app.RunResult) {
	if len(res.Importances) == 0 {
		return
	}
	p.section("Feature importance (random forest)")
	rows := make([]string, 0, len(res.Importances))
	for _, im := range res.Importances {
		rows = append(rows, fmt.Sprintf("%s\t%.4f", im.Feature, im.Importance))
	}
	p.table("FEATURE\tIMPORTANCE", rows)
}

func (p *printer) risk(res *app.RunResult) {
	p.section(fmt.Sprintf("Churn risk (%s, full population)", model.DisplayName(res.ScoringModel)))
	s := res.Risk
	rows := make([]string, 0, len(s.Tiers))
	for _, t := range s.Tiers {
		rows = append(rows, fmt.Sprintf("%s\t%d\t%s\t%s\t%.3f",
			t.Tier, t.Customers, pct(t.Share), pct(t.ObservedRate), t.AvgProbability))
	}
	p.table("TIER\tCUSTOMERS\tSHARE\tOBSERVED_CHURN\tAVG_PROB", rows)
	p.printf("high or critical: %d of %d\n", s.Counts[domain.TierHigh]+s.Counts[domain.TierCritical], s.Total)

	if len(s.Highest) > 0 {
		p.printf("\nHighest risk customers\n")
		rows := make([]string, 0, len(s.Highest))
		for _, c := range s.Highest {
			rows = append(rows, fmt.Sprintf("%s\t%.4f\t%s\t%d\t%s",
				c.Email, c.ChurnProbability, c.RiskCategory, c.TotalBookings, c.CustomerType))
		}
		p.table("EMAIL\tPROBABILITY\tTIER\tBOOKINGS\tTYPE", rows)
	}
	if res.Persisted {
		p.printf("\nscores persisted as run %s\n", res.RunID)
	}
}
