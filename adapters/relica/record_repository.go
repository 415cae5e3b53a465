package relica

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/coregx/pushcomm"
	"github.com/coregx/pushcomm/model"
)

type recordRow struct {
	Location  string `db:"location"`
	Kind      string `db:"kind"`
	Body      string `db:"body"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r recordRow) toModel() (model.Record, error) {
	loc, err := model.ParseLocation(r.Location)
	if err != nil {
		return model.Record{}, err
	}
	return model.Record{
		Location:  loc,
		Kind:      model.Kind(r.Kind),
		Body:      []byte(r.Body),
		UpdatedAt: time.Unix(0, r.UpdatedAt).UTC(),
	}, nil
}

// Get loads the record stored at loc.
func (s *Store) Get(ctx context.Context, loc model.Location) (model.Record, error) {
	var row recordRow

	err := s.db.WithContext(ctx).Select("*").
		From(s.recordTable()).
		Where("location = ?", loc.String()).
		WithContext(ctx).
		One(&row)

	if errors.Is(err, sql.ErrNoRows) {
		return model.Record{}, pushcomm.ErrNoData
	}
	if err != nil {
		return model.Record{}, pushcomm.NewErrorWithCause(pushcomm.ErrCodeDatabase, "failed to load record", err)
	}

	rec, err := row.toModel()
	if err != nil {
		return model.Record{}, pushcomm.NewErrorWithCause(pushcomm.ErrCodeDatabase, "corrupt record row", err)
	}
	return rec, nil
}

// CountRecords returns the number of occupied locations.
func (s *Store) CountRecords(ctx context.Context) (int64, error) {
	var row struct {
		Count int64 `db:"total"`
	}
	err := s.db.WithContext(ctx).Select("COUNT(*) AS total").From(s.recordTable()).One(&row)
	if err != nil {
		return 0, pushcomm.NewErrorWithCause(pushcomm.ErrCodeDatabase, "failed to count records", err)
	}
	return row.Count, nil
}
