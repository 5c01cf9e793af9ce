package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/skytrack-data/linkage.report/internal/alert"
	"github.com/skytrack-data/linkage.report/internal/linker"
)

// Orbital elements are stored with -1 sentinels so a row is self-describing
// without a nullable column per element. The sentinel never leaves this
// package; in memory the Computed flag is authoritative.
const elementSentinel = -1.0

// SaveState replaces the persisted linkage state with st, atomically.
func (db *DB) SaveState(ctx context.Context, st linker.State) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM trajectory_observations`,
		`DELETE FROM trajectories`,
		`DELETE FROM pending_observations`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear state: %w", err)
		}
	}

	insTraj, err := tx.PrepareContext(ctx, `
		INSERT INTO trajectories (
			trajectory_id, not_updated, provisional_designation,
			a, e, i, long_node, arg_peric, mean_anomaly,
			rms_a, rms_e, rms_i, rms_long_node, rms_arg_peric, rms_mean_anomaly
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insTraj.Close()

	insObs, err := tx.PrepareContext(ctx, `
		INSERT INTO trajectory_observations (
			candid, trajectory_id, ra, dec, dcmag, fid, nid, jd, ssnamenr
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insObs.Close()

	for _, id := range st.Trajectories.IDs() {
		tr := st.Trajectories[id]
		el := elementsRow(tr.Elements)
		if _, err := insTraj.ExecContext(ctx,
			tr.ID, boolInt(tr.NotUpdated), el.designation,
			el.a, el.e, el.i, el.node, el.peric, el.anomaly,
			el.rmsA, el.rmsE, el.rmsI, el.rmsNode, el.rmsPeric, el.rmsAnomaly,
		); err != nil {
			return fmt.Errorf("insert trajectory %d: %w", tr.ID, err)
		}
		for _, o := range tr.Obs {
			if _, err := insObs.ExecContext(ctx,
				o.CandID, tr.ID, o.RA, o.Dec, o.Mag, o.Fid, o.Nid, o.JD, o.SSName,
			); err != nil {
				return fmt.Errorf("insert observation %d: %w", o.CandID, err)
			}
		}
	}

	insPending, err := tx.PrepareContext(ctx, `
		INSERT INTO pending_observations (
			candid, ra, dec, dcmag, fid, nid, jd, ssnamenr
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insPending.Close()
	for _, o := range st.Observations {
		if _, err := insPending.ExecContext(ctx,
			o.CandID, o.RA, o.Dec, o.Mag, o.Fid, o.Nid, o.JD, o.SSName,
		); err != nil {
			return fmt.Errorf("insert pending %d: %w", o.CandID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO linkage_state (id, last_nid) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET last_nid = excluded.last_nid`,
		st.LastNid,
	); err != nil {
		return fmt.Errorf("save last nid: %w", err)
	}

	return tx.Commit()
}

// LoadState reads the persisted linkage state. A fresh database yields an
// empty state.
func (db *DB) LoadState(ctx context.Context) (linker.State, error) {
	st := linker.State{Trajectories: alert.NewTable()}

	err := db.QueryRowContext(ctx, `SELECT last_nid FROM linkage_state WHERE id = 1`).Scan(&st.LastNid)
	if err != nil && err != sql.ErrNoRows {
		return st, fmt.Errorf("load last nid: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT trajectory_id, not_updated, provisional_designation,
		       a, e, i, long_node, arg_peric, mean_anomaly,
		       rms_a, rms_e, rms_i, rms_long_node, rms_arg_peric, rms_mean_anomaly
		FROM trajectories`)
	if err != nil {
		return st, fmt.Errorf("load trajectories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			tr         alert.Trajectory
			notUpdated int
			el         elements
		)
		if err := rows.Scan(&tr.ID, &notUpdated, &el.designation,
			&el.a, &el.e, &el.i, &el.node, &el.peric, &el.anomaly,
			&el.rmsA, &el.rmsE, &el.rmsI, &el.rmsNode, &el.rmsPeric, &el.rmsAnomaly,
		); err != nil {
			return st, fmt.Errorf("scan trajectory: %w", err)
		}
		tr.NotUpdated = notUpdated != 0
		tr.Elements = el.toElements()
		t := tr
		st.Trajectories.Insert(&t)
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	obsRows, err := db.QueryContext(ctx, `
		SELECT candid, trajectory_id, ra, dec, dcmag, fid, nid, jd, ssnamenr
		FROM trajectory_observations ORDER BY trajectory_id, jd, candid`)
	if err != nil {
		return st, fmt.Errorf("load observations: %w", err)
	}
	defer obsRows.Close()
	for obsRows.Next() {
		var o alert.Observation
		if err := obsRows.Scan(&o.CandID, &o.TrajID, &o.RA, &o.Dec, &o.Mag, &o.Fid, &o.Nid, &o.JD, &o.SSName); err != nil {
			return st, fmt.Errorf("scan observation: %w", err)
		}
		tr, ok := st.Trajectories[o.TrajID]
		if !ok {
			return st, fmt.Errorf("observation %d references missing trajectory %d", o.CandID, o.TrajID)
		}
		tr.Obs = append(tr.Obs, o)
	}
	if err := obsRows.Err(); err != nil {
		return st, err
	}
	for _, tr := range st.Trajectories {
		tr.Obs.SortByJD()
	}

	pendRows, err := db.QueryContext(ctx, `
		SELECT candid, ra, dec, dcmag, fid, nid, jd, ssnamenr
		FROM pending_observations ORDER BY jd, candid`)
	if err != nil {
		return st, fmt.Errorf("load pending: %w", err)
	}
	defer pendRows.Close()
	for pendRows.Next() {
		o := alert.Observation{TrajID: alert.NoTrajID}
		if err := pendRows.Scan(&o.CandID, &o.RA, &o.Dec, &o.Mag, &o.Fid, &o.Nid, &o.JD, &o.SSName); err != nil {
			return st, fmt.Errorf("scan pending: %w", err)
		}
		st.Observations = append(st.Observations, o)
	}
	return st, pendRows.Err()
}

// InsertReport stores one night report as JSON.
func (db *DB) InsertReport(ctx context.Context, rep *linker.NightReport) error {
	blob, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO night_reports (run_id, nid, report) VALUES (?, ?, ?)`,
		rep.RunID, rep.Nid, string(blob))
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ListReports returns up to limit reports, most recent night first. limit <= 0
// means no limit.
func (db *DB) ListReports(ctx context.Context, limit int) ([]linker.NightReport, error) {
	q := `SELECT report FROM night_reports ORDER BY nid DESC, run_id`
	args := []interface{}{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []linker.NightReport
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var rep linker.NightReport
		if err := json.Unmarshal([]byte(blob), &rep); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

type elements struct {
	designation                   string
	a, e, i, node, peric, anomaly float64
	rmsA, rmsE, rmsI              float64
	rmsNode, rmsPeric, rmsAnomaly float64
}

func elementsRow(el alert.Elements) elements {
	if !el.Computed {
		return elements{
			a: elementSentinel, e: elementSentinel, i: elementSentinel,
			node: elementSentinel, peric: elementSentinel, anomaly: elementSentinel,
			rmsA: elementSentinel, rmsE: elementSentinel, rmsI: elementSentinel,
			rmsNode: elementSentinel, rmsPeric: elementSentinel, rmsAnomaly: elementSentinel,
		}
	}
	return elements{
		designation: el.Designation,
		a:           el.A, e: el.E, i: el.I,
		node: el.Node, peric: el.Peric, anomaly: el.MeanAnomaly,
		rmsA: el.RMSA, rmsE: el.RMSE, rmsI: el.RMSI,
		rmsNode: el.RMSNode, rmsPeric: el.RMSPeric, rmsAnomaly: el.RMSMeanAnomaly,
	}
}

func (el elements) toElements() alert.Elements {
	if el.a == elementSentinel {
		return alert.Elements{}
	}
	return alert.Elements{
		Designation: el.designation,
		A:           el.a, E: el.e, I: el.i,
		Node: el.node, Peric: el.peric, MeanAnomaly: el.anomaly,
		RMSA: el.rmsA, RMSE: el.rmsE, RMSI: el.rmsI,
		RMSNode: el.rmsNode, RMSPeric: el.rmsPeric, RMSMeanAnomaly: el.rmsAnomaly,
		Computed: true,
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
