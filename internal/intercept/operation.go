package intercept

// Operation identifies one intercepted call shape.
type Operation string

// Statement-level call shapes.
const (
	OpExecute              Operation = "execute"
	OpExecuteKeys          Operation = "execute_keys"
	OpExecuteColumnIndexes Operation = "execute_column_indexes"
	OpExecuteColumnNames   Operation = "execute_column_names"

	OpExecuteUpdate              Operation = "execute_update"
	OpExecuteUpdateKeys          Operation = "execute_update_keys"
	OpExecuteUpdateColumnIndexes Operation = "execute_update_column_indexes"
	OpExecuteUpdateColumnNames   Operation = "execute_update_column_names"

	OpExecuteLargeUpdate              Operation = "execute_large_update"
	OpExecuteLargeUpdateKeys          Operation = "execute_large_update_keys"
	OpExecuteLargeUpdateColumnIndexes Operation = "execute_large_update_column_indexes"
	OpExecuteLargeUpdateColumnNames   Operation = "execute_large_update_column_names"

	OpExecuteQuery Operation = "execute_query"
)

// Driver-level call shapes, used by the database/sql installer.
const (
	OpDriverExec  Operation = "driver_exec"
	OpDriverQuery Operation = "driver_query"
)

// Shape describes the signature of an intercepted call: the method name,
// the argument types after the statement text, and the result type.
type Shape struct {
	Op     Operation
	Method string
	Args   []string
	Result string
}

// catalogue is the fixed list of intercepted shapes, in registration order.
var catalogue = []Shape{
	{Op: OpExecute, Method: "Execute", Result: "bool"},
	{Op: OpExecuteKeys, Method: "ExecuteKeys", Args: []string{"KeyHint"}, Result: "bool"},
	{Op: OpExecuteColumnIndexes, Method: "ExecuteColumnIndexes", Args: []string{"[]int"}, Result: "bool"},
	{Op: OpExecuteColumnNames, Method: "ExecuteColumnNames", Args: []string{"[]string"}, Result: "bool"},

	{Op: OpExecuteUpdate, Method: "ExecuteUpdate", Result: "int"},
	{Op: OpExecuteUpdateKeys, Method: "ExecuteUpdateKeys", Args: []string{"KeyHint"}, Result: "int"},
	{Op: OpExecuteUpdateColumnIndexes, Method: "ExecuteUpdateColumnIndexes", Args: []string{"[]int"}, Result: "int"},
	{Op: OpExecuteUpdateColumnNames, Method: "ExecuteUpdateColumnNames", Args: []string{"[]string"}, Result: "int"},

	{Op: OpExecuteLargeUpdate, Method: "ExecuteLargeUpdate", Result: "int64"},
	{Op: OpExecuteLargeUpdateKeys, Method: "ExecuteLargeUpdateKeys", Args: []string{"KeyHint"}, Result: "int64"},
	{Op: OpExecuteLargeUpdateColumnIndexes, Method: "ExecuteLargeUpdateColumnIndexes", Args: []string{"[]int"}, Result: "int64"},
	{Op: OpExecuteLargeUpdateColumnNames, Method: "ExecuteLargeUpdateColumnNames", Args: []string{"[]string"}, Result: "int64"},

	{Op: OpExecuteQuery, Method: "ExecuteQuery", Result: "*sql.Rows"},

	{Op: OpDriverExec, Method: "ExecContext", Args: []string{"[]driver.NamedValue"}, Result: "driver.Result"},
	{Op: OpDriverQuery, Method: "QueryContext", Args: []string{"[]driver.NamedValue"}, Result: "driver.Rows"},
}

// Catalogue returns a copy of the intercepted call shapes.
func Catalogue() []Shape {
	out := make([]Shape, len(catalogue))
	copy(out, catalogue)
	return out
}

// Known reports whether op is part of the catalogue.
func Known(op Operation) bool {
	for _, s := range catalogue {
		if s.Op == op {
			return true
		}
	}
	return false
}
