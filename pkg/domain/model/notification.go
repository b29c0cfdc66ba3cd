package model

// NotificationKind names the notification cycles and workflow alerts
// the engine produces.
type NotificationKind string

const (
	NotificationIntroSubmitted NotificationKind = "intro_submitted"
	NotificationTellMeMore     NotificationKind = "tell_me_more"
	NotificationIntroApproved  NotificationKind = "intro_approved"
	NotificationLearningPlan   NotificationKind = "learning_plan"
	NotificationSurvey         NotificationKind = "survey"
	NotificationSurveySummary  NotificationKind = "survey_summary"
	NotificationPairUp         NotificationKind = "pair_up"
)

// NotificationField is one label/value line of a notification body
type NotificationField struct {
	Label string
	Value string
}

// NotificationAction is an interactive element attached to a
// notification (chat initiation, meeting proposal, pause matches).
type NotificationAction struct {
	Label string
	URL   string
}

// Notification is the engine-side payload handed to the Notifier. How
// it is rendered on the chat surface is the notifier's concern.
type Notification struct {
	Kind    NotificationKind
	Title   string
	Body    string
	Fields  []NotificationField
	Actions []NotificationAction
}
