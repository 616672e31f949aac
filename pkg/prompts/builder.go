package prompts

import (
	"fmt"
	"strings"

	"github.com/idss-ai/text2sql-engine/pkg/knowledge"
	"github.com/idss-ai/text2sql-engine/pkg/normalizer"
)

// BuildSQLGenerationSystemMessage returns the system message for the SQL
// synthesis call.
func BuildSQLGenerationSystemMessage() string {
	return "你是一名资深的T-SQL数据分析工程师。你只输出SQL语句本身，" +
		"放在```sql代码块中，不输出任何解释性文字。生成的SQL必须严格使用" +
		"提供的表结构知识库中存在的表和字段。"
}

// BuildSQLGenerationPrompt assembles the full synthesis prompt. Tables are
// filtered to the ones the question or its derived conditions mention; when
// nothing is recognizably referenced every table is included so the
// synthesizer is never left without schema context.
func BuildSQLGenerationPrompt(store *knowledge.Store, question string, conds []normalizer.Condition) string {
	var b strings.Builder

	b.WriteString("【最高规则】\n")
	b.WriteString("1. 用户问题末尾若带有 \"WHERE条件:\"，其后的每一个条件都必须原样出现在生成SQL的WHERE子句中，不得改写、合并或省略。\n")
	b.WriteString("2. 时间过滤必须使用明确的字面值，禁止使用 GETDATE()、CASE WHEN 等相对日期表达式。\n")
	b.WriteString("3. 只允许使用下方表结构知识库中列出的表和字段。\n\n")

	b.WriteString("【表结构知识库】\n")
	for _, t := range relevantTables(store, question, conds) {
		fmt.Fprintf(&b, "表 %s:\n", t.Name)
		for _, c := range t.Columns {
			if c.DataType != "" {
				fmt.Fprintf(&b, "  - %s (%s)\n", c.Name, c.DataType)
			} else {
				fmt.Fprintf(&b, "  - %s\n", c.Name)
			}
		}
	}
	b.WriteString("\n")

	if rels := store.Relationships(); len(rels) > 0 {
		b.WriteString("【表关系定义】\n")
		for _, r := range rels {
			if r.JoinCondition != "" {
				fmt.Fprintf(&b, "- %s.%s = %s.%s (%s)\n", r.Table1, r.Field1, r.Table2, r.Field2, r.JoinCondition)
			} else {
				fmt.Fprintf(&b, "- %s.%s = %s.%s\n", r.Table1, r.Field1, r.Table2, r.Field2)
			}
		}
		b.WriteString("\n")
	}

	if examples := RankExamples(question, store.Examples(), DefaultExampleCount); len(examples) > 0 {
		b.WriteString("【历史问答】\n")
		for i, ex := range examples {
			fmt.Fprintf(&b, "示例%d 问题: %s\n示例%d SQL:\n%s\n", i+1, ex.Question, i+1, ex.SQL)
		}
		b.WriteString("\n")
	}

	b.WriteString("【用户问题】\n")
	b.WriteString(normalizer.WithTrailer(question, conds))
	b.WriteString("\n\n")

	b.WriteString("【输出要求】\n")
	b.WriteString("输出单条T-SQL查询语句，放在```sql代码块中，不要附带任何说明。\n")

	return b.String()
}

// relevantTables returns the tables whose name or columns the question or
// conditions mention, falling back to all tables when none match.
func relevantTables(store *knowledge.Store, question string, conds []normalizer.Condition) []knowledge.Table {
	text := strings.ToLower(question + " " + normalizer.JoinFragments(conds))
	var out []knowledge.Table
	for _, t := range store.Tables() {
		if strings.Contains(text, knowledge.NormalizeTableName(t.Name)) {
			out = append(out, t)
			continue
		}
		for _, c := range t.Columns {
			if strings.Contains(text, knowledge.NormalizeFieldName(c.Name)) {
				out = append(out, t)
				break
			}
		}
	}
	if len(out) == 0 {
		return store.Tables()
	}
	return out
}
