package resolver

import (
	"encoding/json"
	"fmt"
	"strings"
)

// fallbackPrompt builds the bounded fuzzy-lookup prompt: a truncated
// symbol+name projection of the catalog plus strict matching rules and
// the no-match sentinel.
func (r *Resolver) fallbackPrompt(query string) string {
	type entry struct {
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	}

	records := r.dir.Records()
	limit := r.promptLimit
	if limit > len(records) {
		limit = len(records)
	}

	entries := make([]entry, limit)
	for i := 0; i < limit; i++ {
		entries[i] = entry{Symbol: records[i].Symbol, Name: records[i].Name}
	}
	listing, _ := json.MarshalIndent(entries, "", "  ")

	var sb strings.Builder
	sb.WriteString("這是一個台灣上市櫃公司的部分列表:\n")
	sb.Write(listing)
	sb.WriteString("\n... (還有更多)\n\n")
	fmt.Fprintf(&sb, "任務: 請從整個列表中，找出與使用者查詢 '%s' 最相關的公司。\n", query)
	sb.WriteString("規則:\n")
	sb.WriteString("1. 優先考慮語意和數字上的關聯性 (例如 \"104\" 對應到 \"一零四\")。\n")
	sb.WriteString("2. 如果找到，請只返回那家公司的'symbol'，例如 \"2330.TW\"。\n")
	sb.WriteString("3. 不要返回任何解釋、引號或其他多餘的文字。\n")
	fmt.Fprintf(&sb, "4. 如果完全找不到任何相關的公司，請只返回 \"%s\"。\n\n", noMatchSentinel)
	fmt.Fprintf(&sb, "使用者的查詢是: '%s'\n最相關的 symbol 是:", query)
	return sb.String()
}
