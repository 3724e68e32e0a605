package db

const queryInsertEvent = `
INSERT INTO audit_events (
    id, company_id, external_user_id, credential_id, event_type, success, outcome,
    caller_ip, caller_user_agent, details, occurred_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO NOTHING`

const queryPurgeUsageEvents = `
DELETE FROM audit_events
WHERE company_id = $1
  AND credential_id = $2
  AND event_type = ANY($3::text[])
  AND occurred_at <= $4`

// filterEvents is shared by the count, list and export queries.
const filterEvents = `
WHERE company_id = $1
  AND ($2::text = '' OR external_user_id = $2)
  AND ($3::text = '' OR event_type = $3)
  AND ($4::timestamptz IS NULL OR occurred_at >= $4)
  AND ($5::timestamptz IS NULL OR occurred_at < $5)`

const selectEvent = `
SELECT id, company_id, external_user_id, credential_id, event_type, success, outcome,
       caller_ip, caller_user_agent, details, occurred_at, recorded_at
FROM audit_events`

const queryCountEvents = `SELECT COUNT(*) FROM audit_events` + filterEvents

const queryListEvents = selectEvent + filterEvents + `
ORDER BY occurred_at DESC, id DESC
LIMIT $6 OFFSET $7`

const queryExportEvents = selectEvent + filterEvents + `
ORDER BY occurred_at ASC, id ASC
LIMIT $6`
