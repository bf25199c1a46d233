package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/aggregate"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/backup"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
	"github.com/iWorld-y/prospect_radar/app/display/internal/conf"
	"github.com/iWorld-y/prospect_radar/app/display/internal/domain"
	"github.com/iWorld-y/prospect_radar/app/display/internal/usecase"
)

const defaultMaxUploadMB = 25

const (
	OperationAnalyze        = "/prospect.v1.Display/Analyze"
	OperationLiveSuggestion = "/prospect.v1.Display/LiveSuggestion"
	OperationTranscribe     = "/prospect.v1.Display/Transcribe"
	OperationSavePending    = "/prospect.v1.Display/SavePending"
	OperationListReports    = "/prospect.v1.Display/ListReports"
	OperationGetReport      = "/prospect.v1.Display/GetReport"
	OperationDeleteReport   = "/prospect.v1.Display/DeleteReport"
	OperationClearReports   = "/prospect.v1.Display/ClearReports"
	OperationDashboard      = "/prospect.v1.Display/Dashboard"
	OperationImport         = "/prospect.v1.Display/Import"
)

type AnalyzeReq struct {
	Conversation string `json:"conversation"`
}

type LiveSuggestionReq struct {
	History       string `json:"history"`
	LatestMessage string `json:"latestMessage"`
}

type TranscribeReply struct {
	Text string `json:"text"`
}

type ImportReply struct {
	Added int `json:"added"`
}

type SavePendingReply struct {
	Saved   int `json:"saved"`
	Pending int `json:"pending"`
}

// storeFailureReply 存储失败时仍把分析结果返回给用户
type storeFailureReply struct {
	Code    int32                 `json:"code"`
	Reason  string                `json:"reason"`
	Message string                `json:"message"`
	Report  *model.AnalysisReport `json:"report"`
}

type DisplayService struct {
	ucAnalysis *usecase.AnalysisUseCase
	ucReport   *usecase.ReportUseCase
	maxUpload  int64
	log        *log.Helper
}

func NewDisplayService(c *conf.Server, ucAnalysis *usecase.AnalysisUseCase, ucReport *usecase.ReportUseCase, logger log.Logger) *DisplayService {
	limit := int64(defaultMaxUploadMB)
	if c != nil && c.Http != nil && c.Http.MaxUpload > 0 {
		limit = int64(c.Http.MaxUpload)
	}
	return &DisplayService{
		ucAnalysis: ucAnalysis,
		ucReport:   ucReport,
		maxUpload:  limit << 20,
		log:        log.NewHelper(logger),
	}
}

// RegisterRoutes 注册 JSON 接口
func (s *DisplayService) RegisterRoutes(srv *http.Server) {
	r := srv.Route("/")
	r.GET("/api/health", s.Health)
	r.POST("/api/analyze", s.Analyze)
	r.POST("/api/live-suggestion", s.LiveSuggestion)
	r.POST("/api/transcribe", s.Transcribe)
	r.GET("/api/pending", s.ListPending)
	r.POST("/api/pending/save", s.SavePending)
	r.GET("/api/reports", s.ListReports)
	r.GET("/api/reports/{id}", s.GetReport)
	r.DELETE("/api/reports/{id}", s.DeleteReport)
	r.DELETE("/api/reports", s.ClearReports)
	r.GET("/api/dashboard", s.Dashboard)
	r.GET("/api/export", s.Export)
	r.GET("/api/export.csv", s.ExportCSV)
	r.GET("/api/export.xlsx", s.ExportXLSX)
	r.POST("/api/import", s.Import)
}

// invoke 让处理函数经过服务端中间件
func invoke(ctx http.Context, op string, in any, fn func(context.Context, any) (any, error)) (any, error) {
	http.SetOperation(ctx, op)
	h := ctx.Middleware(fn)
	return h(ctx, in)
}

func (s *DisplayService) Health(ctx http.Context) error {
	return ctx.Result(nethttp.StatusOK, map[string]string{"status": "ok"})
}

func (s *DisplayService) Analyze(ctx http.Context) error {
	var in AnalyzeReq
	if err := ctx.Bind(&in); err != nil {
		return errors.BadRequest("INVALID_REQUEST", err.Error())
	}
	out, err := invoke(ctx, OperationAnalyze, &in, func(c context.Context, req any) (any, error) {
		return s.ucAnalysis.Analyze(c, req.(*AnalyzeReq).Conversation)
	})
	if err != nil {
		rep, _ := out.(*model.AnalysisReport)
		if se := errors.FromError(err); errors.IsServiceUnavailable(se) && rep != nil {
			return ctx.JSON(nethttp.StatusServiceUnavailable, &storeFailureReply{
				Code:    se.Code,
				Reason:  se.Reason,
				Message: "analysis finished but the report could not be saved; it is kept as pending",
				Report:  rep,
			})
		}
		return err
	}
	return ctx.Result(nethttp.StatusOK, out)
}

func (s *DisplayService) LiveSuggestion(ctx http.Context) error {
	var in LiveSuggestionReq
	if err := ctx.Bind(&in); err != nil {
		return errors.BadRequest("INVALID_REQUEST", err.Error())
	}
	out, err := invoke(ctx, OperationLiveSuggestion, &in, func(c context.Context, req any) (any, error) {
		r := req.(*LiveSuggestionReq)
		return s.ucAnalysis.LiveSuggestion(c, r.History, r.LatestMessage)
	})
	if err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, out)
}

// Transcribe 接受 multipart 的 audio 字段，或直接以音频作为请求体
func (s *DisplayService) Transcribe(ctx http.Context) error {
	audio, mimeType, err := s.readUpload(ctx, "audio")
	if err != nil {
		return err
	}
	out, err := invoke(ctx, OperationTranscribe, audio, func(c context.Context, req any) (any, error) {
		text, err := s.ucAnalysis.Transcribe(c, req.([]byte), mimeType)
		if err != nil {
			return nil, err
		}
		return &TranscribeReply{Text: text}, nil
	})
	if err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, out)
}

func (s *DisplayService) ListPending(ctx http.Context) error {
	return ctx.Result(nethttp.StatusOK, map[string]any{"reports": s.ucAnalysis.Pending()})
}

func (s *DisplayService) SavePending(ctx http.Context) error {
	out, err := invoke(ctx, OperationSavePending, nil, func(c context.Context, _ any) (any, error) {
		n, err := s.ucAnalysis.SavePending(c)
		if err != nil {
			return nil, err
		}
		return &SavePendingReply{Saved: n, Pending: len(s.ucAnalysis.Pending())}, nil
	})
	if err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, out)
}

func (s *DisplayService) ListReports(ctx http.Context) error {
	q, err := parseListQuery(ctx.Query())
	if err != nil {
		return errors.BadRequest("INVALID_QUERY", err.Error())
	}
	out, err := invoke(ctx, OperationListReports, &q, func(c context.Context, req any) (any, error) {
		return s.ucReport.List(c, *req.(*domain.ListQuery))
	})
	if err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, out)
}

func parseListQuery(v map[string][]string) (domain.ListQuery, error) {
	get := func(k string) string {
		if vals := v[k]; len(vals) > 0 {
			return strings.TrimSpace(vals[0])
		}
		return ""
	}
	atoi := func(k string) (int, error) {
		s := get(k)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", k)
		}
		return n, nil
	}

	var (
		q   domain.ListQuery
		err error
	)
	if q.Page, err = atoi("page"); err != nil {
		return q, err
	}
	if q.PageSize, err = atoi("pageSize"); err != nil {
		return q, err
	}
	if q.Filter.MinScore, err = atoi("minScore"); err != nil {
		return q, err
	}
	if q.Filter.MaxScore, err = atoi("maxScore"); err != nil {
		return q, err
	}
	if c := model.Classification(get("classification")); c != "" {
		if !c.Valid() {
			return q, fmt.Errorf("unknown classification: %s", c)
		}
		q.Filter.Classification = c
	}
	if q.Filter.Period, err = aggregate.ParsePeriod(get("period")); err != nil {
		return q, err
	}
	return q, nil
}

func (s *DisplayService) GetReport(ctx http.Context) error {
	id := ctx.Vars().Get("id")
	out, err := invoke(ctx, OperationGetReport, id, func(c context.Context, req any) (any, error) {
		return s.ucReport.GetByID(c, req.(string))
	})
	if err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, out)
}

func (s *DisplayService) DeleteReport(ctx http.Context) error {
	id := ctx.Vars().Get("id")
	_, err := invoke(ctx, OperationDeleteReport, id, func(c context.Context, req any) (any, error) {
		return nil, s.ucReport.Delete(c, req.(string))
	})
	if err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, map[string]string{"deleted": id})
}

func (s *DisplayService) ClearReports(ctx http.Context) error {
	_, err := invoke(ctx, OperationClearReports, nil, func(c context.Context, _ any) (any, error) {
		return nil, s.ucReport.Clear(c)
	})
	if err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, map[string]bool{"cleared": true})
}

func (s *DisplayService) Dashboard(ctx http.Context) error {
	out, err := invoke(ctx, OperationDashboard, nil, func(c context.Context, _ any) (any, error) {
		return s.ucReport.Dashboard(c)
	})
	if err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, out)
}

// Export 以附件形式下载完整备份
func (s *DisplayService) Export(ctx http.Context) error {
	doc, err := s.ucAnalysis.Export(ctx)
	if err != nil {
		return err
	}
	data, err := backup.Marshal(doc)
	if err != nil {
		return err
	}
	attach(ctx, fmt.Sprintf("backup-castiel-bits-%s.json", doc.Timestamp.Format("2006-01-02")))
	return ctx.Blob(nethttp.StatusOK, "application/json", data)
}

func (s *DisplayService) ExportCSV(ctx http.Context) error {
	return s.exportSheet(ctx, "text/csv; charset=utf-8", "csv", s.ucAnalysis.Codec().WriteCSV)
}

func (s *DisplayService) ExportXLSX(ctx http.Context) error {
	return s.exportSheet(ctx, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx",
		s.ucAnalysis.Codec().WriteXLSX)
}

func (s *DisplayService) exportSheet(ctx http.Context, contentType, ext string, write func(io.Writer, model.History) error) error {
	h, err := s.ucAnalysis.History(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := write(&buf, h); err != nil {
		return err
	}
	attach(ctx, fmt.Sprintf("relatorio-castiel-bits-%s.%s", time.Now().Format("2006-01-02"), ext))
	return ctx.Blob(nethttp.StatusOK, contentType, buf.Bytes())
}

func attach(ctx http.Context, filename string) {
	ctx.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

// Import 接受 multipart 的 file 字段，或直接以备份 JSON 作为请求体
func (s *DisplayService) Import(ctx http.Context) error {
	data, _, err := s.readUpload(ctx, "file")
	if err != nil {
		return err
	}
	out, err := invoke(ctx, OperationImport, data, func(c context.Context, req any) (any, error) {
		n, err := s.ucAnalysis.Import(c, req.([]byte))
		if err != nil {
			return nil, err
		}
		return &ImportReply{Added: n}, nil
	})
	if err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, out)
}

// readUpload 读取上传内容，返回数据和内容类型
func (s *DisplayService) readUpload(ctx http.Context, field string) ([]byte, string, error) {
	req := ctx.Request()
	req.Body = nethttp.MaxBytesReader(ctx.Response(), req.Body, s.maxUpload)

	if strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data") {
		f, hdr, err := req.FormFile(field)
		if err != nil {
			return nil, "", errors.BadRequest("INVALID_UPLOAD", fmt.Sprintf("missing %s file: %v", field, err))
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", errors.BadRequest("INVALID_UPLOAD", err.Error())
		}
		return data, hdr.Header.Get("Content-Type"), nil
	}

	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, "", errors.BadRequest("INVALID_UPLOAD", err.Error())
	}
	return data, req.Header.Get("Content-Type"), nil
}
