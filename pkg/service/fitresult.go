package service

import (
	"context"
	"database/sql"
	"math"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/c9s/hawkes/pkg/hawkes"
	"github.com/c9s/hawkes/pkg/solver"
)

var ErrRunNotFound = errors.New("fit run not found")

// NewRunID returns the identifier grouping the rows of one fit run.
func NewRunID() string {
	return uuid.New().String()
}

var fitResultColumns = []string{
	"gid", "run_id", "solver", "window_index",
	"guess_beta", "guess_kappa", "guess_theta",
	"beta", "kappa", "theta", "loglike",
	"mu", "duration", "events", "error",
}

// fitResultRecord is the row of a FitResult; non-finite values are stored as NULL.
type fitResultRecord struct {
	GID        int64           `db:"gid"`
	RunID      string          `db:"run_id"`
	Solver     string          `db:"solver"`
	Window     int             `db:"window_index"`
	GuessBeta  float64         `db:"guess_beta"`
	GuessKappa float64         `db:"guess_kappa"`
	GuessTheta float64         `db:"guess_theta"`
	Beta       sql.NullFloat64 `db:"beta"`
	Kappa      sql.NullFloat64 `db:"kappa"`
	Theta      sql.NullFloat64 `db:"theta"`
	LogLike    sql.NullFloat64 `db:"loglike"`
	Mu         sql.NullFloat64 `db:"mu"`
	Duration   float64         `db:"duration"`
	Events     int             `db:"events"`
	Error      string          `db:"error"`
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func newFitResultRecord(runID string, r hawkes.FitResult) fitResultRecord {
	return fitResultRecord{
		RunID:      runID,
		Solver:     r.Solver.String(),
		Window:     r.Window,
		GuessBeta:  r.Guess.Beta,
		GuessKappa: r.Guess.Kappa,
		GuessTheta: r.Guess.Theta,
		Beta:       nullFloat(r.Params.Beta),
		Kappa:      nullFloat(r.Params.Kappa),
		Theta:      nullFloat(r.Params.Theta),
		LogLike:    nullFloat(r.LogLikelihood),
		Mu:         nullFloat(r.Mu),
		Duration:   r.Duration,
		Events:     r.Events,
		Error:      r.Err,
	}
}

func (r fitResultRecord) FitResult() (hawkes.FitResult, error) {
	method, err := solver.ParseMethod(r.Solver)
	if err != nil {
		return hawkes.FitResult{}, errors.Wrapf(err, "row %d", r.GID)
	}

	return hawkes.FitResult{
		Guess: hawkes.Params{Beta: r.GuessBeta, Kappa: r.GuessKappa, Theta: r.GuessTheta},
		Params: hawkes.Params{
			Beta:  floatOrNaN(r.Beta),
			Kappa: floatOrNaN(r.Kappa),
			Theta: floatOrNaN(r.Theta),
		},
		LogLikelihood: floatOrNaN(r.LogLike),
		Solver:        method,
		Window:        r.Window,
		Mu:            floatOrNaN(r.Mu),
		Duration:      r.Duration,
		Events:        r.Events,
		Err:           r.Error,
	}, nil
}

type FitResultService struct {
	DB *sqlx.DB
}

const insertFitResultSQL = `
		INSERT INTO fit_results (
			run_id,
			solver,
			window_index,
			guess_beta,
			guess_kappa,
			guess_theta,
			beta,
			kappa,
			theta,
			loglike,
			mu,
			duration,
			events,
			error
		) VALUES (
			:run_id,
			:solver,
			:window_index,
			:guess_beta,
			:guess_kappa,
			:guess_theta,
			:beta,
			:kappa,
			:theta,
			:loglike,
			:mu,
			:duration,
			:events,
			:error
		)`

// Insert stores the results of a run in one transaction.
func (s *FitResultService) Insert(ctx context.Context, runID string, results []hawkes.FitResult) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	for _, r := range results {
		if _, err := tx.NamedExecContext(ctx, insertFitResultSQL, newFitResultRecord(runID, r)); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "insert fit result of window %d", r.Window)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Infof("stored %d fit results of run %s", len(results), runID)
	return nil
}

// Query loads the results of a run in insertion order.
func (s *FitResultService) Query(ctx context.Context, runID string) ([]hawkes.FitResult, error) {
	dialect := GetDialect(s.DB.DriverName())
	sel := sq.Select(fitResultColumns...).
		From(dialect.EscapeTableName("fit_results")).
		Where(sq.Eq{"run_id": runID}).
		OrderBy("gid ASC")
	sel = dialect.ConfigurePlaceholder(sel)

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	results, err := s.scanRows(rows)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, errors.Wrapf(ErrRunNotFound, "run id:%s", runID)
	}

	return results, nil
}

func (s *FitResultService) scanRows(rows *sqlx.Rows) (results []hawkes.FitResult, err error) {
	for rows.Next() {
		var record fitResultRecord
		if err := rows.StructScan(&record); err != nil {
			return results, err
		}

		result, err := record.FitResult()
		if err != nil {
			return results, err
		}

		results = append(results, result)
	}

	return results, rows.Err()
}
