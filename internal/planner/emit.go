package planner

import (
	"github.com/cockroachdb/errors"

	"github.com/elka-projekt/cs-voltdb/internal/catalog"
	"github.com/elka-projekt/cs-voltdb/internal/expr"
	"github.com/elka-projekt/cs-voltdb/internal/plan"
	"github.com/elka-projekt/cs-voltdb/internal/statement"
)

// EmitScanNode converts a chosen access path into a scan plan node:
// sequential when the path carries no index, an index scan otherwise.
// The statement's projection for the table, when present, restricts
// the node's output schema.
func EmitScanNode(tbl *catalog.Table, path *AccessPath, stmt *statement.Statement) (plan.Node, error) {
	cols := stmt.ScanColumnsFor(tbl.Name)
	schema, err := outputSchema(tbl, cols)
	if err != nil {
		return nil, err
	}

	residual := make([]expr.Expr, 0, len(path.OtherExprs)+len(path.JoinExprs))
	residual = append(residual, path.OtherExprs...)
	residual = append(residual, path.JoinExprs...)

	if path.IsSequential() {
		return &plan.SeqScanNode{
			Table:        tbl.Name,
			Predicate:    expr.Conjunction(residual),
			ScanColumns:  cols,
			OutputSchema: schema,
		}, nil
	}

	keys := make([]expr.Expr, len(path.IndexExprs))
	for i, c := range path.IndexExprs {
		keys[i] = c.Right
	}

	ends := make([]expr.Expr, len(path.EndExprs))
	for i, c := range path.EndExprs {
		ends[i] = c
	}

	return &plan.IndexScanNode{
		Table:        tbl.Name,
		Index:        path.Index.Name,
		SearchKeys:   keys,
		Lookup:       path.Lookup,
		Sort:         path.Sort,
		KeyIterate:   path.KeyIterate,
		Bindings:     path.Bindings,
		EndPredicate: expr.Conjunction(ends),
		Predicate:    expr.Conjunction(residual),
		ScanColumns:  cols,
		OutputSchema: schema,
	}, nil
}

// EmitDistributedScan wraps the path's scan in a multi-partition
// send/receive pair: the send ships partition rows to the coordinator,
// the receive carries the scan's output schema for the plan above it.
func EmitDistributedScan(tbl *catalog.Table, path *AccessPath, stmt *statement.Statement) (*plan.ReceiveNode, error) {
	scan, err := EmitScanNode(tbl, path, stmt)
	if err != nil {
		return nil, err
	}

	send := plan.SendNode{
		Child:          scan,
		MultiPartition: true,
	}

	return &plan.ReceiveNode{
		Send:         &send,
		OutputSchema: scan.Schema(),
	}, nil
}

func outputSchema(tbl *catalog.Table, scanColumns []string) ([]*catalog.Column, error) {
	if scanColumns == nil {
		return tbl.Columns, nil
	}

	schema := make([]*catalog.Column, len(scanColumns))
	for i, name := range scanColumns {
		col := tbl.Column(name)
		if col == nil {
			return nil, errors.Errorf("column %q does not exist in table %q", name, tbl.Name)
		}
		schema[i] = col
	}

	return schema, nil
}
