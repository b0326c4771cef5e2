package syncer

import "coursesync/internal/notion"

// Course database columns.
const (
	PropCourseName = "課程名稱"
	PropCourseDate = "課程日期與提醒"
	PropSemester   = "學期"
	PropWeek       = "週次"
	PropCode       = "課程代碼"
	PropInstructor = "授課教師"
	PropRoom       = "上課教室"
	PropCredits    = "學分"
	PropElective   = "必選修"
	PropWeekday    = "星期"
	PropStartTime  = "開始時間"
	PropEndTime    = "結束時間"
)

// Task database columns.
const (
	PropTaskName   = "任務名稱"
	PropCourseLink = "關聯到課程"
	PropDueDate    = "截止日期"
	PropTaskKind   = "類型"
	PropTaskStatus = "狀態"
)

// Note database columns. Notes share PropCourseLink, PropSemester and
// PropWeek with the other databases.
const (
	PropNoteTitle    = "筆記標題"
	PropClassDate    = "上課日期"
	PropNoteCategory = "分類"
	PropCreatedAt    = "建立時間"
	PropEditedAt     = "最後修改時間"
)

const (
	untitledCourse = "無標題課程"
	noteSuffix     = " - 課堂筆記"
	categoryNotes  = "課堂筆記"
	categoryExtra  = "補充資料"
)

func semesterOptions(semester string) []string {
	if semester == "" {
		return nil
	}
	return []string{semester}
}

// CourseSchema is one row per class meeting.
func CourseSchema(semester string) notion.Schema {
	return notion.Schema{
		PropCourseName: {Kind: notion.KindTitle},
		PropCourseDate: {Kind: notion.KindDate},
		PropSemester:   {Kind: notion.KindSelect, Options: semesterOptions(semester)},
		PropWeek:       {Kind: notion.KindNumber},
		PropCode:       {Kind: notion.KindRichText},
		PropInstructor: {Kind: notion.KindRichText},
		PropRoom:       {Kind: notion.KindRichText},
		PropCredits:    {Kind: notion.KindRichText},
		PropElective:   {Kind: notion.KindSelect, Options: []string{"學程", "選"}},
		PropWeekday:    {Kind: notion.KindRichText},
		PropStartTime:  {Kind: notion.KindRichText},
		PropEndTime:    {Kind: notion.KindRichText},
	}
}

// TaskSchema holds assignments and exams linked to course rows.
func TaskSchema(courseDB, semester string) notion.Schema {
	return notion.Schema{
		PropTaskName:   {Kind: notion.KindTitle},
		PropCourseLink: {Kind: notion.KindRelation, RelatedDatabase: courseDB},
		PropDueDate:    {Kind: notion.KindDate},
		PropTaskKind:   {Kind: notion.KindSelect, Options: []string{"作業", "考試"}},
		PropTaskStatus: {Kind: notion.KindStatus},
		PropSemester:   {Kind: notion.KindSelect, Options: semesterOptions(semester)},
	}
}

// NoteSchema holds one note page per class meeting.
func NoteSchema(courseDB, semester string) notion.Schema {
	return notion.Schema{
		PropNoteTitle:    {Kind: notion.KindTitle},
		PropCourseLink:   {Kind: notion.KindRelation, RelatedDatabase: courseDB},
		PropClassDate:    {Kind: notion.KindDate},
		PropSemester:     {Kind: notion.KindSelect, Options: semesterOptions(semester)},
		PropWeek:         {Kind: notion.KindNumber},
		PropNoteCategory: {Kind: notion.KindSelect, Options: []string{categoryNotes, categoryExtra}},
		PropCreatedAt:    {Kind: notion.KindCreatedTime},
		PropEditedAt:     {Kind: notion.KindLastEditedTime},
	}
}
