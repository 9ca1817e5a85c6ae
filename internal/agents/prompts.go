package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"twstock-analyst/internal/models"
)

// Prompts are written in Traditional Chinese for the target market and
// instruct the model to return bare JSON matching the stage schema.

const jsonOnlyRule = "規則：嚴格以JSON格式返回分析結果，使用繁體中文，不要包含任何Markdown或其它非JSON字符。"

func marketAnalysisPrompt(company, symbol string, summary PriceSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "任務：請分析 %s (%s) 的市場數據。\n%s\n\n", company, symbol, jsonOnlyRule)
	sb.WriteString("市場數據:\n")
	fmt.Fprintf(&sb, "- 最新價格: $%.2f\n", summary.LastPrice)
	fmt.Fprintf(&sb, "- 30日漲跌幅: %.2f%%\n", summary.ChangePercent)
	fmt.Fprintf(&sb, "- 30日平均成交量: %.0f\n", summary.MeanVolume)
	fmt.Fprintf(&sb, "- 年化價格波動率: %.2f%%\n\n", summary.Volatility)
	sb.WriteString(`請根據以下結構返回JSON：
{
  "trend_analysis": "...",
  "volume_analysis": "...",
  "volatility_assessment": "...",
  "technical_insights": "...",
  "investment_suggestion": "..."
}`)
	return sb.String()
}

func technicalAnalysisPrompt(company, symbol string, rows []models.FactorRow) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "任務：基於以下技術因子數據，對 %s (%s) 進行技術分析。\n%s\n\n", company, symbol, jsonOnlyRule)
	sb.WriteString("技術因子 (最近5期):\n")
	for _, row := range rows {
		values, _ := json.Marshal(row.Values)
		fmt.Fprintf(&sb, "- %s: %s\n", row.Date.Format("2006-01-02"), values)
	}
	sb.WriteString(`
請根據以下結構返回JSON：
{
  "momentum_analysis": "...",
  "volatility_assessment": "...",
  "signal_interpretation": "...",
  "trading_point_suggestion": "..."
}`)
	return sb.String()
}

func generalAnalysisPrompt(company, symbol string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "任務：對 %s (%s) 進行一般性技術分析。\n", company, symbol)
	sb.WriteString("請考慮其所在行業地位、主要產品、市場競爭格局以及宏觀經濟因素。\n")
	sb.WriteString(jsonOnlyRule + "\n\n")
	sb.WriteString(`請根據以下結構返回JSON：
{
  "general_analysis": "..."
}`)
	return sb.String()
}

func riskAssessmentPrompt(company, symbol string, summary PriceSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "任務：對 %s (%s) 股票進行風險評估。\n%s\n\n", company, symbol, jsonOnlyRule)
	sb.WriteString("市場數據:\n")
	fmt.Fprintf(&sb, "- 當前價格: $%.2f\n", summary.LastPrice)
	fmt.Fprintf(&sb, "- 年化波動率: %.2f%%\n\n", summary.Volatility)
	sb.WriteString(`請結合公司的具體情況和普遍性風險進行評估，並根據以下結構返回JSON：
{
  "overall_risk_level": "...",
  "main_risk_factors": [],
  "mitigation_suggestions": "...",
  "stop_loss_suggestion": "..."
}`)
	return sb.String()
}

func recommendationPrompt(company, symbol string, summary PriceSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "任務：基於以上所有分析，為 %s (%s) 提供綜合投資建議。\n%s\n\n", company, symbol, jsonOnlyRule)
	fmt.Fprintf(&sb, "當前股價: $%.2f\n\n", summary.LastPrice)
	sb.WriteString(`請綜合所有信息，並根據以下結構返回JSON：
{
  "rating": "買入/持有/賣出",
  "target_price": "...",
  "timeline_suggestion": "...",
  "positioning_suggestion": "..."
}`)
	return sb.String()
}
