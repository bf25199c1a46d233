package data

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/config"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/storage"
)

type Data struct {
	store *storage.ReportStore
}

func NewData(c *config.Config, logger log.Logger) (*Data, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, err := storage.Open(ctx, c.Storage)
	if err != nil {
		return nil, nil, err
	}
	helper := log.NewHelper(logger)
	helper.Infof("report storage opened: %s", c.Storage.Driver)

	store := storage.NewReportStore(repo)
	cleanup := func() {
		helper.Info("closing the data resources")
		if err := store.Close(); err != nil {
			helper.Errorf("close report storage: %v", err)
		}
	}
	return &Data{store: store}, cleanup, nil
}

// Store 报告存储，引擎与仓库共用
func (d *Data) Store() *storage.ReportStore {
	return d.store
}
