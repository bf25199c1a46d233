package storage

import (
	"context"
	"errors"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
)

// ErrDuplicateID 报告 ID 已存在
var ErrDuplicateID = errors.New("duplicate report id")

// Repository 报告持久化接口，逻辑上是一张以 ID 为主键的表
type Repository interface {
	// Prepend 把 reports 整体放到最前面，reports 本身按新到旧排列
	Prepend(ctx context.Context, reports ...model.AnalysisReport) error
	// List 按新到旧返回全部报告
	List(ctx context.Context) (model.History, error)
	// Delete 删除指定报告，不存在时不报错
	Delete(ctx context.Context, id string) error
	// Clear 删除全部报告
	Clear(ctx context.Context) error
	Close() error
}
