package knowledge

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Knowledge document file names, one per mapping.
const (
	TablesFile        = "table_knowledge.json"
	RelationshipsFile = "table_relationships.json"
	RulesFile         = "business_rules.json"
	ProductsFile      = "product_knowledge.json"
	HistoryFile       = "historical_qa.json"
)

// DefaultFieldMappings are entity rules mapping business vocabulary to the
// schema fields it refers to. Loaded rule documents win on key collision.
var DefaultFieldMappings = map[string]string{
	"预测":   "FCST",
	"周转天数": "全链库存DOI",
	"库存":   "全链库存",
	"销售预测": "SellOut预测",
	"销售":   "SellOut",
	"采购":   "SellIn",
	"PO数量": "SD PO Open Qty",
	"未清PO": "SD PO Open Qty",
}

// Load reads the five knowledge documents from dir and assembles a Store.
// A missing or malformed document degrades to an empty mapping for that
// document; load problems are logged, never returned. A Store built from an
// empty directory behaves as an identity normalizer with no schema.
func Load(dir string, logger *zap.Logger) *Store {
	var tableDoc map[string]struct {
		Columns []flexColumn `json:"columns"`
	}
	readDocument(filepath.Join(dir, TablesFile), &tableDoc, logger)
	tables := make([]Table, 0, len(tableDoc))
	for name, t := range tableDoc {
		cols := make([]Column, 0, len(t.Columns))
		for _, c := range t.Columns {
			cols = append(cols, Column(c))
		}
		tables = append(tables, Table{Name: name, Columns: cols})
	}

	var relDoc struct {
		Relationships []struct {
			Table1        string `json:"table1"`
			Field1        string `json:"field1"`
			Table2        string `json:"table2"`
			Field2        string `json:"field2"`
			JoinCondition string `json:"join_condition"`
			Description   string `json:"description"`
		} `json:"relationships"`
	}
	readDocument(filepath.Join(dir, RelationshipsFile), &relDoc, logger)
	relationships := make([]Relationship, 0, len(relDoc.Relationships))
	for _, r := range relDoc.Relationships {
		cond := r.JoinCondition
		if cond == "" {
			cond = r.Description
		}
		relationships = append(relationships, Relationship{
			Table1: r.Table1, Field1: r.Field1,
			Table2: r.Table2, Field2: r.Field2,
			JoinCondition: cond,
		})
	}

	var ruleDoc map[string]flexRule
	readDocument(filepath.Join(dir, RulesFile), &ruleDoc, logger)
	rules := make([]BusinessRule, 0, len(ruleDoc)+len(DefaultFieldMappings))
	for term, r := range ruleDoc {
		rules = append(rules, BusinessRule{Term: term, Replacement: r.Replacement, Type: r.Type})
	}
	for term, field := range DefaultFieldMappings {
		if _, ok := ruleDoc[term]; ok {
			continue
		}
		rules = append(rules, BusinessRule{Term: term, Replacement: field, Type: RuleEntity})
	}

	var productDoc struct {
		Products map[string]map[string]any `json:"products"`
	}
	readDocument(filepath.Join(dir, ProductsFile), &productDoc, logger)

	var examples []Example
	readDocument(filepath.Join(dir, HistoryFile), &examples, logger)

	return New(tables, relationships, rules, BuildProductTerms(productDoc.Products), examples)
}

// readDocument unmarshals path into v, leaving v untouched when the file is
// missing or malformed.
func readDocument(path string, v any, logger *zap.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("knowledge document unavailable, using empty mapping",
			zap.String("path", path), zap.Error(err))
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn("knowledge document malformed, using empty mapping",
			zap.String("path", path), zap.Error(err))
	}
}

// flexColumn accepts both the bare-string and object column forms that
// appear in knowledge documents: "财月" or {"name": "财月", "type": "varchar"}.
type flexColumn Column

func (c *flexColumn) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Name = s
		return nil
	}
	var obj struct {
		Name     string `json:"name"`
		DataType string `json:"type"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	c.Name = obj.Name
	c.DataType = obj.DataType
	return nil
}

// flexRule accepts both rule forms: a bare replacement string (entity rule)
// or an object carrying the replacement and a type tag.
type flexRule struct {
	Replacement string
	Type        RuleType
}

func (r *flexRule) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.Replacement = s
		r.Type = RuleEntity
		return nil
	}
	var obj struct {
		Replacement string `json:"replacement"`
		Type        string `json:"type"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.Replacement = obj.Replacement
	switch obj.Type {
	case string(RuleTemporal), "时间":
		r.Type = RuleTemporal
	default:
		r.Type = RuleEntity
	}
	return nil
}
