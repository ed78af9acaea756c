package domains

import (
	"github.com/iot-aicha/stock-counter/internal/domains/common"
	"github.com/iot-aicha/stock-counter/internal/domains/common/job"
	"github.com/iot-aicha/stock-counter/internal/domains/handlers/shelf/analyze"
	"github.com/iot-aicha/stock-counter/internal/domains/handlers/shelf/check"
)

// HandlerMap 路由表（ActionType → Handler 映射）
var HandlerMap = map[string]common.HandlerServProc{
	job.ActionShelfCheck:   check.NewCheckHandler,
	job.ActionShelfAnalyze: analyze.NewAnalyzeHandler,
}
