package data

import (
	"context"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
	"github.com/iWorld-y/prospect_radar/app/display/internal/repo"
)

type reportRepo struct {
	data *Data
	log  *log.Helper
}

func NewReportRepo(data *Data, logger log.Logger) repo.ReportRepo {
	return &reportRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *reportRepo) ListReports(ctx context.Context) (model.History, error) {
	h, err := r.data.store.List(ctx)
	if err != nil {
		r.log.Errorf("list reports: %v", err)
		return nil, errors.ServiceUnavailable("STORE_UNAVAILABLE", "report storage is unavailable").WithCause(err)
	}
	return h, nil
}

func (r *reportRepo) GetReportByID(ctx context.Context, id string) (*model.AnalysisReport, error) {
	rep, ok, err := r.data.store.Get(ctx, id)
	if err != nil {
		r.log.Errorf("get report %s: %v", id, err)
		return nil, errors.ServiceUnavailable("STORE_UNAVAILABLE", "report storage is unavailable").WithCause(err)
	}
	if !ok {
		return nil, errors.NotFound("REPORT_NOT_FOUND", "report not found")
	}
	return &rep, nil
}

func (r *reportRepo) DeleteReport(ctx context.Context, id string) error {
	if err := r.data.store.DeleteByID(ctx, id); err != nil {
		r.log.Errorf("delete report %s: %v", id, err)
		return errors.ServiceUnavailable("STORE_UNAVAILABLE", "report storage is unavailable").WithCause(err)
	}
	return nil
}

func (r *reportRepo) ClearReports(ctx context.Context) error {
	if err := r.data.store.Clear(ctx); err != nil {
		r.log.Errorf("clear reports: %v", err)
		return errors.ServiceUnavailable("STORE_UNAVAILABLE", "report storage is unavailable").WithCause(err)
	}
	return nil
}
