package tabular

// Row maps column name to cell value. Column order lives on the Table, not on
// the row.
type Row map[string]Value

// Table is a flat dataset: an ordered column list plus rows. Columns keep
// first-seen order across appended rows.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates a table with a fixed starting column set.
func NewTable(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Append adds a row. Columns the table has not seen yet are appended to the
// column list in the order given.
func (t *Table) Append(columns []string, row Row) {
	for _, col := range columns {
		if !t.HasColumn(col) {
			t.Columns = append(t.Columns, col)
		}
	}
	t.Rows = append(t.Rows, row)
}

// HasColumn reports whether the table already tracks a column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Cell returns the value at (row, column); missing cells read as null.
func (t *Table) Cell(row int, column string) Value {
	if v, ok := t.Rows[row][column]; ok {
		return v
	}
	return Null()
}

// MoveColumnLast relocates a column to the last position. Purely cosmetic for
// exported formats; no-op when the column is absent.
func (t *Table) MoveColumnLast(name string) {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 || idx == len(t.Columns)-1 {
		return
	}
	t.Columns = append(append(t.Columns[:idx:idx], t.Columns[idx+1:]...), name)
}

// ColumnKind classifies a column by the value types observed in it.
type ColumnKind int

const (
	// ColumnUnknown means no non-null value was observed.
	ColumnUnknown ColumnKind = iota
	ColumnInt
	ColumnFloat
	ColumnBool
	ColumnString
	// ColumnStringList marks structured columns whose every value is a list
	// of strings; columnar formats can keep these natively typed.
	ColumnStringList
	// ColumnStructured marks any other list- or map-valued column.
	ColumnStructured
)

// KindOf infers the column kind from observed cell values. Nulls are ignored;
// an int/float mix widens to float; any other scalar mix degrades to string;
// any structured value makes the whole column structured.
func (t *Table) KindOf(column string) ColumnKind {
	kind := ColumnUnknown
	for i := range t.Rows {
		v := t.Cell(i, column)
		if v.IsNull() {
			continue
		}
		observed := cellKind(v)
		switch {
		case kind == ColumnUnknown:
			kind = observed
		case kind == observed:
		case isNumeric(kind) && isNumeric(observed):
			kind = ColumnFloat
		case isStructured(kind) && isStructured(observed):
			kind = ColumnStructured
		case isStructured(kind) != isStructured(observed):
			return ColumnStructured
		default:
			kind = ColumnString
		}
	}
	return kind
}

func cellKind(v Value) ColumnKind {
	switch v.Kind() {
	case KindBool:
		return ColumnBool
	case KindInt:
		return ColumnInt
	case KindFloat:
		return ColumnFloat
	case KindString:
		return ColumnString
	case KindList:
		if _, ok := v.StringList(); ok {
			return ColumnStringList
		}
		return ColumnStructured
	default:
		return ColumnStructured
	}
}

func isNumeric(k ColumnKind) bool {
	return k == ColumnInt || k == ColumnFloat
}

func isStructured(k ColumnKind) bool {
	return k == ColumnStringList || k == ColumnStructured
}
