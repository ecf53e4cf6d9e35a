package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// TxBuilder builds one BEGIN/COMMIT block from several statements,
// namespacing variables so two statements can both use $id.
type TxBuilder struct {
	statements []string
	vars       map[string]interface{}
	varCounter int
}

func NewTxBuilder() *TxBuilder {
	return &TxBuilder{
		statements: make([]string, 0),
		vars:       make(map[string]interface{}),
	}
}

// Add appends a statement, renaming each $var to $v<n>_var
func (tb *TxBuilder) Add(query string, vars map[string]interface{}) {
	tb.varCounter++
	prefix := fmt.Sprintf("v%d_", tb.varCounter)

	// Longest names first so $id does not clobber $id_list
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	for _, name := range names {
		query = strings.ReplaceAll(query, "$"+name, "$"+prefix+name)
		tb.vars[prefix+name] = vars[name]
	}
	tb.statements = append(tb.statements, query)
}

// Build renders the BEGIN/COMMIT block. An empty builder renders "".
func (tb *TxBuilder) Build() (string, map[string]interface{}) {
	if len(tb.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range tb.statements {
		sb.WriteString(strings.TrimSuffix(strings.TrimSpace(stmt), ";"))
		sb.WriteString(";\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	return sb.String(), tb.vars
}

// AtomicBatch is the chaining form of TxBuilder used by cascading deletes
type AtomicBatch struct {
	builder *TxBuilder
	n       int
}

func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{builder: NewTxBuilder()}
}

func (ab *AtomicBatch) Add(query string, vars map[string]interface{}) *AtomicBatch {
	ab.builder.Add(query, vars)
	ab.n++
	return ab
}

func (ab *AtomicBatch) Len() int {
	return ab.n
}

// Execute sends the batch as one query. An empty batch is a no-op.
func (ab *AtomicBatch) Execute(ctx context.Context, db Database) error {
	if ab.n == 0 {
		return nil
	}
	query, vars := ab.builder.Build()
	return db.Execute(ctx, query, vars)
}
