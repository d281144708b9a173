package task

import (
	"strings"
)

type SortKey string

const (
	SortPriorityAsc   SortKey = "priority"
	SortPriorityDesc  SortKey = "-priority"
	SortDueDateAsc    SortKey = "due_date"
	SortDueDateDesc   SortKey = "-due_date"
	SortCreatedAtAsc  SortKey = "created_at"
	SortCreatedAtDesc SortKey = "-created_at"
)

// DefaultSort is used whenever the requested sort key is not recognised.
const DefaultSort = SortCreatedAtDesc

// SortKeys returns the recognised sort keys in the order the list page offers them.
func SortKeys() []SortKey {
	return []SortKey{
		SortCreatedAtDesc, SortCreatedAtAsc,
		SortPriorityAsc, SortPriorityDesc,
		SortDueDateAsc, SortDueDateDesc,
	}
}

func (k SortKey) Valid() bool {
	switch k {
	case SortPriorityAsc, SortPriorityDesc,
		SortDueDateAsc, SortDueDateDesc,
		SortCreatedAtAsc, SortCreatedAtDesc:
		return true
	}
	return false
}

// Field is the column name the key sorts by.
func (k SortKey) Field() string {
	return strings.TrimPrefix(string(k), "-")
}

func (k SortKey) Descending() bool {
	return strings.HasPrefix(string(k), "-")
}

func (k SortKey) Label() string {
	switch k {
	case SortPriorityAsc:
		return "Priority (High to Low)"
	case SortPriorityDesc:
		return "Priority (Low to High)"
	case SortDueDateAsc:
		return "Due date (earliest first)"
	case SortDueDateDesc:
		return "Due date (latest first)"
	case SortCreatedAtAsc:
		return "Oldest first"
	case SortCreatedAtDesc:
		return "Newest first"
	}
	return string(k)
}

// OrderBy renders the key as a SQL ORDER BY list. Ties always fall back to
// the default ordering so every storage backend returns the same sequence.
func (k SortKey) OrderBy() string {
	if !k.Valid() {
		k = DefaultSort
	}
	direction := "ASC"
	if k.Descending() {
		direction = "DESC"
	}
	if k.Field() == "created_at" {
		return "created_at " + direction + ", id " + direction
	}
	return k.Field() + " " + direction + ", created_at DESC, id DESC"
}

// Query is a normalised list request. The zero Status means "all statuses"
// and an empty Search means "no text search".
type Query struct {
	Status Status
	Sort   SortKey
	Search string
}

// NewQuery normalises raw request parameters. Unknown statuses drop the
// filter and unknown sort keys fall back to DefaultSort; neither is an error.
func NewQuery(status, sort, search string) Query {
	q := Query{
		Status: Status(status),
		Sort:   SortKey(sort),
		Search: strings.TrimSpace(search),
	}
	if !q.Status.Valid() {
		q.Status = ""
	}
	if !q.Sort.Valid() {
		q.Sort = DefaultSort
	}
	return q
}

func (q Query) Matches(t *Task) bool {
	if q.Status != "" && t.Status != q.Status {
		return false
	}
	if q.Search == "" {
		return true
	}
	needle := Fold(q.Search)
	return strings.Contains(Fold(t.Title), needle) ||
		strings.Contains(Fold(t.Description), needle)
}

// Fold is the case folding applied to both sides of a search.
func Fold(s string) string {
	return strings.ToLower(s)
}

// Less orders a before b according to the query's sort key, with the same
// tie-breaking rules as OrderBy.
func (q Query) Less(a, b *Task) bool {
	sort := q.Sort
	if !sort.Valid() {
		sort = DefaultSort
	}

	var cmp int
	switch sort.Field() {
	case "priority":
		cmp = compareInt(int64(a.Priority), int64(b.Priority))
	case "due_date":
		cmp = a.DueDate.Compare(b.DueDate)
	}
	if cmp != 0 {
		if sort.Descending() {
			return cmp > 0
		}
		return cmp < 0
	}

	createdDesc := true
	if sort == SortCreatedAtAsc {
		createdDesc = false
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return (c > 0) == createdDesc
	}
	if a.ID != b.ID {
		return (a.ID > b.ID) == createdDesc
	}
	return false
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// EscapeLike escapes LIKE wildcards so user input is matched literally
// with ESCAPE '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
