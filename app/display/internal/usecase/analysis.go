package usecase

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/backup"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/engine"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/extract"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/storage"
)

const (
	ReasonEmptyInput          = "EMPTY_INPUT"
	ReasonInProgress          = "ANALYSIS_IN_PROGRESS"
	ReasonAnalysisFailed      = "ANALYSIS_FAILED"
	ReasonProviderFailure     = "PROVIDER_FAILURE"
	ReasonInvalidBackupFormat = "INVALID_BACKUP_FORMAT"
	ReasonStoreUnavailable    = "STORE_UNAVAILABLE"
)

// AnalysisUseCase 调用分析引擎，并把引擎错误转换为带状态码的错误
type AnalysisUseCase struct {
	engine *engine.Engine
	log    *log.Helper
}

func NewAnalysisUseCase(e *engine.Engine, logger log.Logger) *AnalysisUseCase {
	return &AnalysisUseCase{engine: e, log: log.NewHelper(logger)}
}

// Analyze 分析对话。存储失败时同时返回报告和 503 错误
func (uc *AnalysisUseCase) Analyze(ctx context.Context, conversation string) (*model.AnalysisReport, error) {
	rep, err := uc.engine.Analyze(ctx, conversation)
	if err != nil {
		return rep, uc.mapError("analyze", err)
	}
	return rep, nil
}

func (uc *AnalysisUseCase) LiveSuggestion(ctx context.Context, history, latestMessage string) (*model.LiveSuggestion, error) {
	s, err := uc.engine.LiveSuggestion(ctx, history, latestMessage)
	if err != nil {
		return nil, uc.mapError("live_suggestion", err)
	}
	return s, nil
}

func (uc *AnalysisUseCase) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	text, err := uc.engine.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return "", uc.mapError("transcribe", err)
	}
	return text, nil
}

// Pending 分析成功但尚未保存的报告
func (uc *AnalysisUseCase) Pending() model.History {
	return uc.engine.Pending()
}

// SavePending 重试保存暂存的报告
func (uc *AnalysisUseCase) SavePending(ctx context.Context) (int, error) {
	n, err := uc.engine.SavePending(ctx)
	if err != nil {
		return 0, uc.mapError("save_pending", err)
	}
	return n, nil
}

// Export 导出当前历史
func (uc *AnalysisUseCase) Export(ctx context.Context) (backup.Document, error) {
	doc, err := uc.engine.Export(ctx)
	if err != nil {
		return backup.Document{}, uc.mapError("export", err)
	}
	return doc, nil
}

// Import 导入备份，返回新增数量
func (uc *AnalysisUseCase) Import(ctx context.Context, data []byte) (int, error) {
	added, err := uc.engine.Import(ctx, data)
	if err != nil {
		return 0, uc.mapError("import", err)
	}
	return len(added), nil
}

// History 导出表格用的全部历史
func (uc *AnalysisUseCase) History(ctx context.Context) (model.History, error) {
	h, err := uc.engine.History(ctx)
	if err != nil {
		return nil, uc.mapError("history", err)
	}
	return h, nil
}

func (uc *AnalysisUseCase) Codec() *backup.Codec {
	return uc.engine.Codec()
}

func (uc *AnalysisUseCase) mapError(op string, err error) error {
	var (
		ee *extract.Error
		se *storage.StoreError
		fe *backup.FormatError
	)
	switch {
	case stderrors.Is(err, engine.ErrEmptyConversation),
		stderrors.Is(err, engine.ErrEmptyMessage),
		stderrors.Is(err, engine.ErrEmptyAudio):
		return errors.BadRequest(ReasonEmptyInput, err.Error())
	case stderrors.Is(err, engine.ErrAlreadyRunning):
		return errors.Conflict(ReasonInProgress, err.Error())
	case stderrors.As(err, &ee) && ee.Kind == extract.KindInvalidResponse:
		uc.log.Errorf("%s: model output rejected: %v", op, err)
		return errors.New(http.StatusUnprocessableEntity, ReasonAnalysisFailed,
			"the model returned an unusable answer, please try again").WithCause(err)
	case stderrors.As(err, &ee) && ee.Kind == extract.KindProviderFailure:
		uc.log.Errorf("%s: provider failed: %v", op, err)
		return errors.New(http.StatusBadGateway, ReasonProviderFailure, ee.Message).WithCause(err)
	case stderrors.As(err, &fe):
		return errors.BadRequest(ReasonInvalidBackupFormat, fe.Error())
	case stderrors.As(err, &se):
		uc.log.Errorf("%s: %v", op, err)
		return errors.ServiceUnavailable(ReasonStoreUnavailable, "report storage is unavailable").WithCause(err)
	}
	if ke := errors.FromError(err); ke.Code != errors.UnknownCode {
		return ke
	}
	uc.log.Errorf("%s: %v", op, err)
	return errors.InternalServer("INTERNAL", "internal error").WithCause(err)
}
