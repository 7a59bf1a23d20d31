package importer

import (
	"fmt"
	"sort"
	"strings"
)

// ScheduleHeaderScanRows bounds the search for a schedule header row.
const ScheduleHeaderScanRows = 5

// ParsedTask is one activity of a schedule export.
type ParsedTask struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Phase groups the tasks sharing an activity-code prefix.
type Phase struct {
	Prefix    string       `json:"prefix"`
	Name      string       `json:"name"`
	StartDate string       `json:"start_date,omitempty"`
	EndDate   string       `json:"end_date,omitempty"`
	Tasks     []ParsedTask `json:"tasks"`
}

// ScheduleColumns holds the resolved column index per role; -1 is missing.
type ScheduleColumns struct {
	Code   int `json:"code"`
	Name   int `json:"name"`
	Start  int `json:"start"`
	Finish int `json:"finish"`
}

// ScheduleParseResult is the output of ParseSchedule.
type ScheduleParseResult struct {
	Phases    []Phase         `json:"phases"`
	HeaderRow int             `json:"header_row"`
	Columns   ScheduleColumns `json:"columns"`
	// StartDate and EndDate span every task date in the file.
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Skipped   int    `json:"skipped"`
}

// TaskCount returns the number of tasks over all phases.
func (r ScheduleParseResult) TaskCount() int {
	n := 0
	for _, p := range r.Phases {
		n += len(p.Tasks)
	}
	return n
}

var (
	codeHeaders   = []string{"activity id", "task_code", "code", "id"}
	nameHeaders   = []string{"activity name", "task_name", "name", "description"}
	startHeaders  = []string{"start", "begin"}
	finishHeaders = []string{"finish", "end", "complete"}
)

// ParseSchedule reads a Primavera-style export into phases keyed by the
// alphabetic prefix of each activity code.
func ParseSchedule(t *RawTable) (ScheduleParseResult, error) {
	header := findScheduleHeader(t)
	var headers []string
	if header < len(t.Rows) {
		headers = t.Rows[header].Lower()
	}

	cols := ScheduleColumns{
		Code:   findColumn(headers, codeHeaders),
		Name:   findColumn(headers, nameHeaders),
		Start:  findColumn(headers, startHeaders),
		Finish: findColumn(headers, finishHeaders),
	}
	if cols.Name < 0 {
		return ScheduleParseResult{}, ErrMissingNameColumn
	}

	res := ScheduleParseResult{HeaderRow: header, Columns: cols}
	byPrefix := make(map[string][]ParsedTask)

	for i := header + 1; i < len(t.Rows); i++ {
		row := t.Rows[i]
		name := row.At(cols.Name).Trimmed()
		if name == "" {
			continue
		}
		if strings.Contains(strings.ToLower(name), "activity name") {
			res.Skipped++
			continue
		}

		code := fmt.Sprintf("T%d", i)
		if cols.Code >= 0 {
			code = row.At(cols.Code).Trimmed()
		}
		task := ParsedTask{Code: code, Name: name}
		if cols.Start >= 0 {
			task.StartDate = ParseDate(row.At(cols.Start))
		}
		if cols.Finish >= 0 {
			task.EndDate = ParseDate(row.At(cols.Finish))
		}

		prefix := PhasePrefix(code)
		byPrefix[prefix] = append(byPrefix[prefix], task)

		res.StartDate = minDate(res.StartDate, task.StartDate)
		res.EndDate = maxDate(res.EndDate, task.EndDate)
	}

	prefixes := make([]string, 0, len(byPrefix))
	for p := range byPrefix {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	for _, prefix := range prefixes {
		tasks := byPrefix[prefix]
		sort.SliceStable(tasks, func(a, b int) bool { return tasks[a].Code < tasks[b].Code })

		phase := Phase{Prefix: prefix, Name: PhaseName(prefix), Tasks: tasks}
		for _, task := range tasks {
			phase.StartDate = minDate(phase.StartDate, task.StartDate)
			phase.EndDate = maxDate(phase.EndDate, task.EndDate)
		}
		res.Phases = append(res.Phases, phase)
	}
	return res, nil
}

// PhasePrefix extracts the leading alphabetic run of an activity code,
// upper-cased. Codes without leading letters fall into "O".
func PhasePrefix(code string) string {
	end := 0
	for end < len(code) {
		c := code[end]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			break
		}
		end++
	}
	if end == 0 {
		return "O"
	}
	return strings.ToUpper(code[:end])
}

func findScheduleHeader(t *RawTable) int {
	limit := min(ScheduleHeaderScanRows, len(t.Rows))
	for i := 0; i < limit; i++ {
		for _, c := range t.Rows[i].Lower() {
			if strings.Contains(c, "activity") || strings.Contains(c, "task") {
				return i
			}
		}
	}
	return 0
}

// findColumn returns the first header containing any of the candidates.
func findColumn(headers []string, candidates []string) int {
	for i, h := range headers {
		if h == "" {
			continue
		}
		if containsAny(h, candidates...) {
			return i
		}
	}
	return -1
}

// ISO dates compare correctly as strings; "" means absent.
func minDate(cur, d string) string {
	if d == "" {
		return cur
	}
	if cur == "" || d < cur {
		return d
	}
	return cur
}

func maxDate(cur, d string) string {
	if d == "" {
		return cur
	}
	if cur == "" || d > cur {
		return d
	}
	return cur
}
