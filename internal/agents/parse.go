package agents

import (
	"encoding/json"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// stagePayload is implemented by every stage schema.
type stagePayload interface {
	Validate() error
}

// parseStagePayload parses raw model text against a stage schema and
// returns the canonical JSON encoding. Strict parsing is tried first;
// malformed output (markdown fences, trailing commas, single quotes) goes
// through json-repair before giving up. There is no model retry: a text
// that survives neither path becomes an Unparsed stage.
func parseStagePayload(raw string, schema stagePayload) (json.RawMessage, error) {
	text := strings.TrimSpace(raw)

	if err := json.Unmarshal([]byte(text), schema); err != nil {
		repaired, rerr := jsonrepair.RepairJSON(text)
		if rerr != nil {
			return nil, err
		}
		if uerr := json.Unmarshal([]byte(repaired), schema); uerr != nil {
			return nil, uerr
		}
	}

	if err := schema.Validate(); err != nil {
		return nil, err
	}

	return json.Marshal(schema)
}
