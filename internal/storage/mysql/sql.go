package mysql

const insertRunSQL = `
INSERT INTO scoring_runs
  (id, model, created_at, customers, low_count, medium_count, high_count, critical_count)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
`

const insertRiskPrefix = "INSERT INTO customer_risk\n  (run_id, email, churn_probability, risk_category, total_bookings, churned, customer_type, primary_platform, primary_channel, tenure_days)\nVALUES "

// Newest run wins; seq breaks ties between runs created in the same instant.
const latestRunSQL = `
SELECT id, model, created_at, customers, low_count, medium_count, high_count, critical_count
FROM scoring_runs
ORDER BY created_at DESC, seq DESC
LIMIT 1
`

const getRiskSQL = `
SELECT run_id, email, churn_probability, risk_category, total_bookings, churned,
       customer_type, primary_platform, primary_channel, tenure_days
FROM customer_risk
WHERE run_id = ? AND email = ?
`

// The two tier placeholders take the same value; NULL lists every tier.
const listRiskSQL = `
SELECT run_id, email, churn_probability, risk_category, total_bookings, churned,
       customer_type, primary_platform, primary_channel, tenure_days
FROM customer_risk
WHERE run_id = ? AND (? IS NULL OR risk_category = ?)
ORDER BY churn_probability DESC, email
LIMIT ?
`
