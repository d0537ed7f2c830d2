package ddl

// Kind is the logical column type. Dialects map it to a concrete SQL type.
type Kind int

const (
	// KindIdentity is a store-generated surrogate key (SERIAL, IDENTITY, ...).
	KindIdentity Kind = iota
	// KindText is a bounded character column; Size carries the length.
	KindText
	// KindInt is a 32-bit integer column.
	KindInt
	// KindBigInt is a 64-bit integer column.
	KindBigInt
	// KindDecimal is a fixed-point column; Precision and Scale apply.
	KindDecimal
	// KindTimestamp is a point in time without zone.
	KindTimestamp
)

// String returns a short lowercase name for k.
func (k Kind) String() string {
	switch k {
	case KindIdentity:
		return "identity"
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindBigInt:
		return "bigint"
	case KindDecimal:
		return "decimal"
	case KindTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Integral reports whether values of kind k must be whole numbers.
func (k Kind) Integral() bool {
	return k == KindInt || k == KindBigInt || k == KindIdentity
}

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - Kind: logical type, mapped per dialect
//   - Size: length for KindText
//   - Precision/Scale: for KindDecimal
//   - Nullable: whether NULL is allowed
//   - Default: raw default expression (e.g., CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name      string
	Kind      Kind
	Size      int
	Precision int
	Scale     int
	Nullable  bool
	Default   string
}

// TableDef holds the table name (FQN, optionally "schema.table") and an
// ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Column returns the column named name and whether it exists.
func (t TableDef) Column(name string) (ColumnDef, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDef{}, false
}
