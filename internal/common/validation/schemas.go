package validation

// LoginRequest is the body of POST /api/auth/login.
var LoginRequest = MustCompile("login-request", `{
	"type": "object",
	"properties": {
		"username": {"type": "string", "minLength": 1},
		"password": {"type": "string", "minLength": 1}
	},
	"required": ["username", "password"]
}`)

// ChatRequest is the body of POST /api/chat.
var ChatRequest = MustCompile("chat-request", `{
	"type": "object",
	"properties": {
		"message": {"type": "string", "minLength": 1}
	},
	"required": ["message"]
}`)

// AnswerJob is the variable set of an answer-vehicle-query job.
var AnswerJob = MustCompile("answer-vehicle-query", `{
	"type": "object",
	"properties": {
		"question": {"type": "string", "minLength": 1},
		"userId": {"type": "integer"},
		"caller": {
			"type": "object",
			"properties": {
				"username": {"type": "string"},
				"role": {"enum": ["admin", "state_officer", "district_officer", "rto_clerk"]},
				"state": {"type": "string"},
				"district": {"type": "string"},
				"rtoOffice": {"type": "string"}
			},
			"required": ["role"]
		}
	},
	"required": ["question", "caller"]
}`)
