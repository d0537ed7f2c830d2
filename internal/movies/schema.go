// Package movies holds the static tables that describe the movie dataset:
// which source fields are required, which are numeric, how source names map
// to destination columns and what the destination table looks like.
//
// Every stage reads these tables instead of repeating the literals.
package movies

import (
	"strings"

	"movieetl/internal/ddl"
)

const (
	// TitleField identifies a record. Rows without it are dropped.
	TitleField = "movie_title"
	// ScoreField is the bounded rating. Rows without it are dropped.
	ScoreField = "imdb_score"

	// ScoreMin and ScoreMax bound ScoreField, inclusive.
	ScoreMin = 0.0
	ScoreMax = 10.0

	// Table is the destination table name.
	Table = "movies"
)

// NumericFields are coerced to numbers during transform. Values that do not
// parse become zero; a bad number never drops a row.
var NumericFields = []string{
	"num_critic_for_reviews",
	"duration",
	"director_facebook_likes",
	"actor_3_facebook_likes",
	"actor_1_facebook_likes",
	"gross",
	"num_voted_users",
	"cast_total_facebook_likes",
	"facenumber_in_poster",
	"num_user_for_reviews",
	"budget",
	"title_year",
	"actor_2_facebook_likes",
}

// Mapping renames a source field to its destination column.
type Mapping struct {
	Source string
	Dest   string
}

// ColumnMapping is the projection applied at the end of transform. Its order
// is the destination column order.
var ColumnMapping = []Mapping{
	{"movie_title", "movie_title"},
	{"num_critic_for_reviews", "num_critic_for_reviews"},
	{"duration", "duration"},
	{"director_facebook_likes", "DIRECTOR_facebook_likes"},
	{"actor_3_facebook_likes", "actor_3_facebook_likes"},
	{"actor_1_facebook_likes", "ACTOR_1_facebook_likes"},
	{"gross", "gross"},
	{"num_voted_users", "num_voted_users"},
	{"cast_total_facebook_likes", "Cast_Total_facebook_likes"},
	{"facenumber_in_poster", "facenumber_in_poster"},
	{"num_user_for_reviews", "num_user_for_reviews"},
	{"budget", "budget"},
	{"title_year", "title_year"},
	{"actor_2_facebook_likes", "ACTOR_2_facebook_likes"},
	{"imdb_score", "imdb_score"},
}

// DestColumns returns the destination column names in mapping order.
func DestColumns() []string {
	out := make([]string, len(ColumnMapping))
	for i, m := range ColumnMapping {
		out[i] = m.Dest
	}
	return out
}

// TableDef returns the destination table: a surrogate id, the mapped columns
// and a creation timestamp.
//
// Mixed-case destination names are stored lowercased, the way an unquoted
// identifier would fold in Postgres.
func TableDef() ddl.TableDef {
	cols := make([]ddl.ColumnDef, 0, len(ColumnMapping)+2)
	cols = append(cols, ddl.ColumnDef{Name: "id", Kind: ddl.KindIdentity})
	for _, m := range ColumnMapping {
		cols = append(cols, ddl.ColumnDef{
			Name:     ColumnName(m.Dest),
			Kind:     kindOf(m.Dest),
			Size:     255,
			Nullable: true,
		})
	}
	for i := range cols {
		if cols[i].Kind == ddl.KindDecimal {
			cols[i].Precision, cols[i].Scale = 3, 1
		}
	}
	cols = append(cols, ddl.ColumnDef{
		Name:     "created_at",
		Kind:     ddl.KindTimestamp,
		Nullable: true,
		Default:  "CURRENT_TIMESTAMP",
	})
	return ddl.TableDef{FQN: Table, Columns: cols}
}

// ColumnName returns the stored name for a destination field.
func ColumnName(dest string) string { return strings.ToLower(dest) }

func kindOf(dest string) ddl.Kind {
	switch strings.ToLower(dest) {
	case TitleField:
		return ddl.KindText
	case ScoreField:
		return ddl.KindDecimal
	case "gross", "budget":
		return ddl.KindBigInt
	default:
		return ddl.KindInt
	}
}

// MissingTokens are cell values read as "no value".
var MissingTokens = []string{
	"", "NA", "N/A", "n/a", "NaN", "nan", "null", "NULL", "None",
	"#N/A", "<NA>", "-NaN", "-nan",
}

var missing = func() map[string]struct{} {
	m := make(map[string]struct{}, len(MissingTokens))
	for _, t := range MissingTokens {
		m[t] = struct{}{}
	}
	return m
}()

// IsMissing reports whether a raw cell holds no value. Surrounding
// whitespace is ignored.
func IsMissing(v string) bool {
	_, ok := missing[strings.TrimSpace(v)]
	return ok
}
