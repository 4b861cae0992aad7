package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"EquityPulse/internal/model"
)

var statusIcon = map[model.RunStatus]string{
	model.RunSuccess: "✅",
	model.RunPartial: "⚠️",
	model.RunFailed:  "❌",
}

// FormatRunSummary formats an ETL run into a Telegram message.
func FormatRunSummary(s *model.RunSummary) string {
	var b strings.Builder

	status := s.Status()
	b.WriteString(fmt.Sprintf("%s <b>EquityPulse ETL</b> | %s\n\n", statusIcon[status], s.End.Format(model.DateLayout)))
	b.WriteString(fmt.Sprintf("触发: %s | 状态: %s\n", s.Trigger, status))
	b.WriteString(fmt.Sprintf("区间: %s → %s\n", s.Start.Format(model.DateLayout), s.End.Format(model.DateLayout)))
	b.WriteString(fmt.Sprintf("耗时: %s\n\n", s.FinishedAt.Sub(s.StartedAt).Round(100*time.Millisecond)))

	for _, r := range s.Results {
		if r.Err != nil {
			b.WriteString(fmt.Sprintf("  %s ❌ %s\n", r.Ticker, html.EscapeString(r.Err.Error())))
			continue
		}
		b.WriteString(fmt.Sprintf("  %s %d 行 | 收盘 %.2f (%s)\n",
			r.Ticker, r.EnrichedRows, r.LastClose, r.LastDate.Format(model.DateLayout)))
	}
	if failed := s.Failed(); failed > 0 {
		b.WriteString(fmt.Sprintf("\n失败: %d/%d\n", failed, len(s.Results)))
	}
	return b.String()
}

// FormatHelp lists the supported bot commands.
func FormatHelp() string {
	return "可用命令:\n• /run 立即执行 ETL\n• /status 查看最近一次运行"
}
