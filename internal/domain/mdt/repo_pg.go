package mdt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mdt/mdt/internal/domain/patient"
	"github.com/mdt/mdt/internal/platform/db"
)

func idString(id int64) string { return strconv.FormatInt(id, 10) }

// =========== Case Repository ===========

type caseRepoPG struct{ pool *pgxpool.Pool }

func NewCaseRepoPG(pool *pgxpool.Pool) CaseRepository {
	return &caseRepoPG{pool: pool}
}

func (r *caseRepoPG) conn(ctx context.Context) db.Querier {
	return db.QuerierFrom(ctx, r.pool)
}

const caseCols = `c.id, c.patient_id, c.clinical_history, c.provisional_diagnosis,
	c.discussion_for, c.scheduled_reason, c.scheduled_date, c.status,
	c.created_at, c.updated_at`

func scanCase(row pgx.Row) (*Case, error) {
	var c Case
	err := row.Scan(&c.ID, &c.PatientID, &c.ClinicalHistory, &c.ProvisionalDiagnosis,
		&c.DiscussionFor, &c.ScheduledReason, &c.ScheduledDate, &c.Status,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepoPG) Create(ctx context.Context, c *Case) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO mdt_case (patient_id, clinical_history, provisional_diagnosis,
			discussion_for, scheduled_reason, scheduled_date, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at`,
		c.PatientID, c.ClinicalHistory, c.ProvisionalDiagnosis,
		c.DiscussionFor, c.ScheduledReason, c.ScheduledDate, c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return db.MapError(err, "patient", idString(c.PatientID))
}

func (r *caseRepoPG) GetByID(ctx context.Context, id int64) (*Case, error) {
	c, err := scanCase(r.conn(ctx).QueryRow(ctx, `SELECT `+caseCols+` FROM mdt_case c WHERE c.id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "mdt_case", idString(id))
	}
	return c, nil
}

func (r *caseRepoPG) GetForUpdate(ctx context.Context, id int64) (*Case, error) {
	c, err := scanCase(r.conn(ctx).QueryRow(ctx, `SELECT `+caseCols+` FROM mdt_case c WHERE c.id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, db.MapError(err, "mdt_case", idString(id))
	}
	return c, nil
}

func (r *caseRepoPG) Update(ctx context.Context, c *Case) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE mdt_case SET clinical_history=$2, provisional_diagnosis=$3, discussion_for=$4,
			scheduled_reason=$5, scheduled_date=$6, updated_at=NOW()
		WHERE id = $1
		RETURNING status, created_at, updated_at`,
		c.ID, c.ClinicalHistory, c.ProvisionalDiagnosis, c.DiscussionFor,
		c.ScheduledReason, c.ScheduledDate,
	).Scan(&c.Status, &c.CreatedAt, &c.UpdatedAt)
	return db.MapError(err, "mdt_case", idString(c.ID))
}

func (r *caseRepoPG) SetStatus(ctx context.Context, id int64, s Status) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE mdt_case SET status=$2, updated_at=NOW() WHERE id = $1`, id, s)
	if err != nil {
		return db.MapError(err, "mdt_case", idString(id))
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "mdt_case", idString(id))
	}
	return nil
}

const summarySelect = `SELECT ` + caseCols + `, ` + patient.Cols + `
	FROM mdt_case c JOIN patient p ON p.id = c.patient_id`

func (r *caseRepoPG) SearchByScheduledDate(ctx context.Context, start, end time.Time) ([]*CaseSummary, error) {
	return r.summaries(ctx, summarySelect+`
		WHERE c.scheduled_date BETWEEN $1 AND $2
		ORDER BY c.scheduled_date, c.id`, start, end)
}

func (r *caseRepoPG) SearchByHospitalNumber(ctx context.Context, hn string) ([]*CaseSummary, error) {
	return r.summaries(ctx, summarySelect+`
		WHERE p.hospital_number = $1
		ORDER BY c.id`, hn)
}

func (r *caseRepoPG) summaries(ctx context.Context, sql string, args ...interface{}) ([]*CaseSummary, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, db.MapError(err, "mdt_case", "")
	}
	defer rows.Close()

	var out []*CaseSummary
	for rows.Next() {
		var c Case
		var p patient.Patient
		if err := rows.Scan(&c.ID, &c.PatientID, &c.ClinicalHistory, &c.ProvisionalDiagnosis,
			&c.DiscussionFor, &c.ScheduledReason, &c.ScheduledDate, &c.Status,
			&c.CreatedAt, &c.UpdatedAt,
			&p.ID, &p.Name, &p.HospitalNumber, &p.DateOfBirth, &p.PhonePrimary,
			&p.Address, &p.PinCode, &p.DigiPin, &p.AdditionalPhones, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, db.MapError(err, "mdt_case", "")
		}
		out = append(out, &CaseSummary{Case: &c, Patient: &p})
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err, "mdt_case", "")
	}
	return out, nil
}

// =========== Report Repository ===========

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) ReportRepository {
	return &reportRepoPG{pool: pool}
}

func (r *reportRepoPG) conn(ctx context.Context) db.Querier {
	return db.QuerierFrom(ctx, r.pool)
}

func (r *reportRepoPG) Create(ctx context.Context, rep *Report) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO report (case_id, kind, date_of_report, report_type, investigation_details)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`,
		rep.CaseID, rep.Kind, rep.DateOfReport, rep.ReportType, rep.InvestigationDetails,
	).Scan(&rep.ID, &rep.CreatedAt)
	return db.MapError(err, "mdt_case", idString(rep.CaseID))
}

func (r *reportRepoPG) ListByCase(ctx context.Context, caseID int64, kind ReportKind) ([]*Report, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, case_id, kind, date_of_report, report_type, investigation_details, created_at
		FROM report WHERE case_id = $1 AND kind = $2 ORDER BY id`, caseID, kind)
	if err != nil {
		return nil, db.MapError(err, "report", "")
	}
	defer rows.Close()

	var out []*Report
	for rows.Next() {
		var rep Report
		if err := rows.Scan(&rep.ID, &rep.CaseID, &rep.Kind, &rep.DateOfReport,
			&rep.ReportType, &rep.InvestigationDetails, &rep.CreatedAt); err != nil {
			return nil, db.MapError(err, "report", "")
		}
		out = append(out, &rep)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err, "report", "")
	}
	return out, nil
}

// =========== Treatment Repository ===========

type treatmentRepoPG struct{ pool *pgxpool.Pool }

func NewTreatmentRepoPG(pool *pgxpool.Pool) TreatmentRepository {
	return &treatmentRepoPG{pool: pool}
}

func (r *treatmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.QuerierFrom(ctx, r.pool)
}

func (r *treatmentRepoPG) Create(ctx context.Context, t *Treatment) error {
	if t.Detail == nil {
		return errors.New("treatment detail is required")
	}
	details, err := json.Marshal(t.Detail)
	if err != nil {
		return fmt.Errorf("encode treatment details: %w", err)
	}
	err = r.conn(ctx).QueryRow(ctx, `
		INSERT INTO treatment (case_id, treatment_type, details)
		VALUES ($1,$2,$3)
		RETURNING id, created_at`,
		t.CaseID, t.Detail.Type(), details,
	).Scan(&t.ID, &t.CreatedAt)
	return db.MapError(err, "mdt_case", idString(t.CaseID))
}

func (r *treatmentRepoPG) ListByCase(ctx context.Context, caseID int64) ([]*Treatment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, case_id, treatment_type, details, created_at
		FROM treatment WHERE case_id = $1 ORDER BY id`, caseID)
	if err != nil {
		return nil, db.MapError(err, "treatment", "")
	}
	defer rows.Close()

	var out []*Treatment
	for rows.Next() {
		var t Treatment
		var typ string
		var details []byte
		if err := rows.Scan(&t.ID, &t.CaseID, &typ, &details, &t.CreatedAt); err != nil {
			return nil, db.MapError(err, "treatment", "")
		}
		if t.Detail, err = DecodeTreatment(typ, details); err != nil {
			return nil, fmt.Errorf("decode treatment %d: %w", t.ID, err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err, "treatment", "")
	}
	return out, nil
}

// =========== Consensus Repository ===========

type consensusRepoPG struct{ pool *pgxpool.Pool }

func NewConsensusRepoPG(pool *pgxpool.Pool) ConsensusRepository {
	return &consensusRepoPG{pool: pool}
}

func (r *consensusRepoPG) conn(ctx context.Context) db.Querier {
	return db.QuerierFrom(ctx, r.pool)
}

func (r *consensusRepoPG) Upsert(ctx context.Context, c *Consensus) error {
	followups := c.Followups
	if followups == nil {
		followups = []string{}
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consensus (case_id, consensus_text, followups)
		VALUES ($1,$2,$3)
		ON CONFLICT (case_id) DO UPDATE
			SET consensus_text = EXCLUDED.consensus_text,
			    followups = EXCLUDED.followups,
			    updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		c.CaseID, c.Text, followups,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return db.MapError(err, "mdt_case", idString(c.CaseID))
}

func (r *consensusRepoPG) GetByCase(ctx context.Context, caseID int64) (*Consensus, error) {
	var c Consensus
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, case_id, consensus_text, followups, created_at, updated_at
		FROM consensus WHERE case_id = $1`, caseID,
	).Scan(&c.ID, &c.CaseID, &c.Text, &c.Followups, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, db.MapError(err, "consensus", idString(caseID))
	}
	return &c, nil
}
