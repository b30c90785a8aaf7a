package rbac

// Permissions are "<resource>:<action>". A trailing * matches any action.
const (
	PermContentParse    = "content:parse"
	PermSourceUpload    = "source:upload"
	PermSourceView      = "source:view"
	PermLessonParse     = "lesson:parse"
	PermAdventureCreate = "adventure:create"
	PermAdventureView   = "adventure:view"
	PermAdventurePlay   = "adventure:play"
	PermHistoryViewOwn  = "history:view-own"
	PermHistoryViewAll  = "history:view-all"
	PermQuizCreate      = "quiz:create"
	PermQuizView        = "quiz:view"
	PermQuizAttempt     = "quiz:attempt"
	PermQuizResultsOwn  = "quiz-attempt:view-own"
	PermQuizResultsAll  = "quiz-attempt:view-all"
	PermEventsView      = "events:view"
)

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	"student": {
		PermContentParse,
		PermAdventureView,
		PermAdventurePlay,
		PermHistoryViewOwn,
		PermQuizView,
		PermQuizAttempt,
		PermQuizResultsOwn,
	},
	"parent": {
		PermHistoryViewOwn,
		PermQuizResultsOwn,
	},
	"teacher": {
		"content:*",
		"source:*",
		"lesson:*",
		"adventure:*",
		"history:*",
		"quiz:*",
		"quiz-attempt:*",
	},
	"admin": {
		"*", // everything
	},
}
