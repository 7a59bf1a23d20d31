package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func primaveraTable() *RawTable {
	return &RawTable{Sheet: "TASK", Rows: []Row{
		textRow("Villa 12 Renovation - Baseline"),
		textRow("Data date 01-Feb-26"),
		textRow("Activity ID", "Activity Name", "Original Duration", "Start", "Finish"),
		{TextCell("A2"), TextCell("Municipality approval"), NumberCell(10), TextCell("02-Mar-26"), TextCell("13-Mar-26")},
		{TextCell("B1"), TextCell("Strip out kitchen"), NumberCell(5), TextCell("16-Mar-26"), TextCell("20-Mar-26")},
		{},
		textRow("Activity ID", "Activity Name"),
		{TextCell("A1"), TextCell("Site mobilization"), NumberCell(3), TextCell("23-Feb-26 A"), TextCell("25-Feb-26")},
		{TextCell("A3"), TextCell(""), NumberCell(1), TextCell("01-Apr-26"), TextCell("01-Apr-26")},
	}}
}

func TestParseSchedule_GroupsByPrefix(t *testing.T) {
	res, err := ParseSchedule(primaveraTable())
	require.NoError(t, err)

	assert.Equal(t, 2, res.HeaderRow)
	assert.Equal(t, ScheduleColumns{Code: 0, Name: 1, Start: 3, Finish: 4}, res.Columns)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 3, res.TaskCount())

	require.Len(t, res.Phases, 2)

	a := res.Phases[0]
	assert.Equal(t, "A", a.Prefix)
	assert.Equal(t, "Mobilization & Approvals", a.Name)
	require.Len(t, a.Tasks, 2)
	assert.Equal(t, "A1", a.Tasks[0].Code)
	assert.Equal(t, "A2", a.Tasks[1].Code)
	assert.Equal(t, "2026-02-23", a.StartDate)
	assert.Equal(t, "2026-03-13", a.EndDate)

	b := res.Phases[1]
	assert.Equal(t, "Demolition", b.Name)
	require.Len(t, b.Tasks, 1)
	assert.Equal(t, ParsedTask{Code: "B1", Name: "Strip out kitchen", StartDate: "2026-03-16", EndDate: "2026-03-20"}, b.Tasks[0])

	assert.Equal(t, "2026-02-23", res.StartDate)
	assert.Equal(t, "2026-03-20", res.EndDate)
}

func TestParseSchedule_MissingNameColumn(t *testing.T) {
	tbl := &RawTable{Rows: []Row{
		textRow("Activity ID", "Start", "Finish"),
		textRow("A1", "01-Mar-26", "02-Mar-26"),
	}}
	_, err := ParseSchedule(tbl)
	require.ErrorIs(t, err, ErrMissingNameColumn)
	assert.Equal(t, "Could not find activity/task name column", err.Error())
}

func TestParseSchedule_NoCodeColumn(t *testing.T) {
	tbl := &RawTable{Rows: []Row{
		textRow("Task Name", "Begin", "Complete"),
		textRow("Kick-off meeting", "05-Jan-26", "05-Jan-26"),
		textRow("Design freeze", "06-Jan-26", "30-Jan-26"),
	}}
	res, err := ParseSchedule(tbl)
	require.NoError(t, err)

	require.Len(t, res.Phases, 1)
	p := res.Phases[0]
	assert.Equal(t, "T", p.Prefix)
	assert.Equal(t, "Tiling", p.Name)
	assert.Equal(t, "T1", p.Tasks[0].Code)
	assert.Equal(t, "T2", p.Tasks[1].Code)
	assert.Equal(t, "2026-01-30", p.EndDate)
}

func TestParseSchedule_SerialDates(t *testing.T) {
	tbl := &RawTable{Rows: []Row{
		textRow("Activity ID", "Activity Name", "Start", "Finish"),
		{TextCell("C10"), TextCell("Block work"), NumberCell(46076), NumberCell(46080)},
		{TextCell("C9"), TextCell("Plastering"), TextCell("not a date"), Cell{}},
	}}
	res, err := ParseSchedule(tbl)
	require.NoError(t, err)
	require.Len(t, res.Phases, 1)

	tasks := res.Phases[0].Tasks
	assert.Equal(t, "C10", tasks[0].Code)
	assert.Equal(t, "2026-02-23", tasks[0].StartDate)
	assert.Equal(t, "2026-02-27", tasks[0].EndDate)
	assert.Empty(t, tasks[1].StartDate)
	assert.Empty(t, tasks[1].EndDate)
}

func TestPhasePrefix(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"A1", "A"},
		{"ab-100", "AB"},
		{"MEP1020", "MEP"},
		{"1020", "O"},
		{"", "O"},
		{"-A1", "O"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, PhasePrefix(tt.code))
		})
	}
}

func TestPhaseName(t *testing.T) {
	assert.Equal(t, "Final Handover", PhaseName("Z"))
	assert.Equal(t, "Phase MEP", PhaseName("MEP"))
}

func TestParseSchedule_Deterministic(t *testing.T) {
	first, err := ParseSchedule(primaveraTable())
	require.NoError(t, err)
	for range 5 {
		again, err := ParseSchedule(primaveraTable())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
