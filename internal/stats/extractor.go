// Package stats normalises upstream player documents into per-metric records.
//
// Upstream documents change shape between API versions, so a metric is looked
// up in a fixed, ordered list of locations and the first hit wins. A missing
// metric in a well-formed document yields a default zero record; a nil
// document yields nil so callers can tell "no data" from "metric unseen".
package stats

import (
	"encoding/json"
	"math"
	"strconv"
)

// Payload is a decoded upstream player document.
type Payload = map[string]interface{}

// MetricType selects between skill and boss records.
type MetricType string

const (
	MetricTypeSkill MetricType = "skill"
	MetricTypeBoss  MetricType = "boss"
)

// section returns the container key holding records of this type.
func (t MetricType) section() (string, bool) {
	switch t {
	case MetricTypeSkill:
		return "skills", true
	case MetricTypeBoss:
		return "bosses", true
	default:
		return "", false
	}
}

// MetricRecord is a skill record {experience, level, rank} or a boss record
// {kills, rank}. Nil fields were absent upstream.
type MetricRecord struct {
	Experience *int64 `json:"experience,omitempty"`
	Level      *int64 `json:"level,omitempty"`
	Kills      *int64 `json:"kills,omitempty"`
	Rank       *int64 `json:"rank,omitempty"`
}

// Value returns the progress number tracked for the metric type: experience
// for skills, kills for bosses. Absent fields read as zero.
func (r *MetricRecord) Value(t MetricType) int64 {
	if r == nil {
		return 0
	}
	switch t {
	case MetricTypeSkill:
		return deref(r.Experience)
	case MetricTypeBoss:
		return deref(r.Kills)
	default:
		return 0
	}
}

// SearchPaths lists, in priority order, the object paths under which the
// skills/bosses containers are looked for.
var SearchPaths = [][]string{
	{"latestSnapshot", "data"},
	{"data"},
	{},
}

type locator func(p Payload, section, metric string) (*MetricRecord, bool)

// locators mirrors SearchPaths; built once so the order lives in one place.
var locators = buildLocators(SearchPaths)

func buildLocators(paths [][]string) []locator {
	out := make([]locator, 0, len(paths))
	for _, path := range paths {
		path := path
		out = append(out, func(p Payload, section, metric string) (*MetricRecord, bool) {
			container, ok := walk(p, append(append([]string(nil), path...), section))
			if !ok {
				return nil, false
			}
			raw, ok := container[metric].(map[string]interface{})
			if !ok {
				return nil, false
			}
			return toRecord(raw), true
		})
	}
	return out
}

// Extract finds the record for metric in payload.
func Extract(payload Payload, t MetricType, metric string) *MetricRecord {
	if payload == nil {
		return nil
	}
	section, ok := t.section()
	if !ok {
		return nil
	}
	for _, find := range locators {
		if rec, found := find(payload, section, metric); found {
			return rec
		}
	}
	return DefaultRecord(t)
}

// DefaultRecord is the zero record used when a metric is not present.
func DefaultRecord(t MetricType) *MetricRecord {
	switch t {
	case MetricTypeSkill:
		return &MetricRecord{Experience: ptr(0), Level: ptr(1), Rank: ptr(0)}
	case MetricTypeBoss:
		return &MetricRecord{Kills: ptr(0), Rank: ptr(0)}
	default:
		return nil
	}
}

// Totals are the character-wide numbers carried at the top of a player document.
type Totals struct {
	DisplayName string
	Experience  int64
	EHB         float64
}

// PlayerTotals reads the top-level exp and ehb fields. ok is false when either is missing.
func PlayerTotals(payload Payload) (Totals, bool) {
	if payload == nil {
		return Totals{}, false
	}
	exp, okExp := toFloat(payload["exp"])
	ehb, okEHB := toFloat(payload["ehb"])
	if !okExp || !okEHB {
		return Totals{}, false
	}
	name, _ := payload["displayName"].(string)
	return Totals{DisplayName: name, Experience: int64(exp), EHB: ehb}, true
}

func walk(p Payload, path []string) (map[string]interface{}, bool) {
	cur := map[string]interface{}(p)
	for _, key := range path {
		next, ok := cur[key].(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func toRecord(raw map[string]interface{}) *MetricRecord {
	rec := &MetricRecord{}
	rec.Experience = field(raw, "experience")
	rec.Level = field(raw, "level")
	rec.Kills = field(raw, "kills")
	rec.Rank = field(raw, "rank")
	return rec
}

func field(raw map[string]interface{}, key string) *int64 {
	v, present := raw[key]
	if !present {
		return nil
	}
	if num, isNum := v.(json.Number); isNum {
		if i, err := num.Int64(); err == nil {
			return &i
		}
	}
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	n := int64(f)
	return &n
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return float64(i), true
		}
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, !math.IsNaN(n)
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func ptr(v int64) *int64 { return &v }

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
