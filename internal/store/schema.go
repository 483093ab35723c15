package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names.
const (
	usersTable     = "users"
	questionsTable = "questions"
	answersTable   = "assessments"
	llmEventsTable = "llm_request_events"
)

var (
	// UsersColumns holds the columns for the "users" table.
	UsersColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeInt64},
		{Name: "score", Type: field.TypeInt, Default: 0},
		{Name: "name", Type: field.TypeString, Default: "no_name"},
		{Name: "level", Type: field.TypeString, Default: "beginner"},
		{Name: "current_question", Type: field.TypeString, Nullable: true},
		{Name: "join_time", Type: field.TypeTime},
		{Name: "last_assessment", Type: field.TypeTime},
		{Name: "task_interval", Type: field.TypeInt, Default: 24},
		{Name: "is_expert", Type: field.TypeBool, Default: false},
	}
	// UsersTable holds the schema information for the "users" table.
	UsersTable = &schema.Table{
		Name:       usersTable,
		Columns:    UsersColumns,
		PrimaryKey: []*schema.Column{UsersColumns[0]},
		Indexes: []*schema.Index{
			{Name: "user_score", Columns: []*schema.Column{UsersColumns[1]}},
		},
	}

	// QuestionsColumns holds the columns for the "questions" table.
	QuestionsColumns = []*schema.Column{
		{Name: "q_id", Type: field.TypeInt, Increment: true},
		{Name: "question", Type: field.TypeString, Unique: true},
		{Name: "q_level", Type: field.TypeString},
	}
	// QuestionsTable holds the schema information for the "questions" table.
	QuestionsTable = &schema.Table{
		Name:       questionsTable,
		Columns:    QuestionsColumns,
		PrimaryKey: []*schema.Column{QuestionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "question_q_level", Columns: []*schema.Column{QuestionsColumns[2]}},
		},
	}

	// AnswersColumns holds the columns for the answer log. There is no
	// foreign key to users: records outlive an unsubscribe.
	AnswersColumns = []*schema.Column{
		{Name: "answer_id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeInt64},
		{Name: "question", Type: field.TypeString},
		{Name: "user_answer", Type: field.TypeString},
		{Name: "is_correct", Type: field.TypeBool},
		{Name: "flow", Type: field.TypeString, Default: string(FlowAssessment)},
		{Name: "timestamp", Type: field.TypeTime},
	}
	// AnswersTable holds the schema information for the answer log.
	AnswersTable = &schema.Table{
		Name:       answersTable,
		Columns:    AnswersColumns,
		PrimaryKey: []*schema.Column{AnswersColumns[0]},
		Indexes: []*schema.Index{
			{Name: "answer_user_id", Columns: []*schema.Column{AnswersColumns[1]}},
			{Name: "answer_timestamp", Columns: []*schema.Column{AnswersColumns[6]}},
		},
	}

	// LLMEventsColumns holds the columns for the "llm_request_events" table.
	LLMEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Default: ""},
		{Name: "response_body", Type: field.TypeString, Default: ""},
	}
	// LLMEventsTable holds the schema information for the "llm_request_events" table.
	LLMEventsTable = &schema.Table{
		Name:       llmEventsTable,
		Columns:    LLMEventsColumns,
		PrimaryKey: []*schema.Column{LLMEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{LLMEventsColumns[4]}},
			{Name: "llmrequestevent_success", Columns: []*schema.Column{LLMEventsColumns[8]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		UsersTable,
		QuestionsTable,
		AnswersTable,
		LLMEventsTable,
	}
)
