package answervehiclequery

import "vahan-chatbot/internal/models"

type Input struct {
	Question string      `json:"question"`
	Caller   CallerInput `json:"caller"`
	UserID   int64       `json:"userId,omitempty"`
}

type CallerInput struct {
	Username  string      `json:"username,omitempty"`
	Role      models.Role `json:"role"`
	State     string      `json:"state,omitempty"`
	District  string      `json:"district,omitempty"`
	RTOOffice string      `json:"rtoOffice,omitempty"`
}

func (in *Input) caller() models.Caller {
	return models.Caller{
		UserID:    in.UserID,
		Username:  in.Caller.Username,
		Role:      in.Caller.Role,
		State:     in.Caller.State,
		District:  in.Caller.District,
		RTOOffice: in.Caller.RTOOffice,
	}
}

// Output becomes the process variables of the completed job. Status is the
// pipeline status hint, so a gateway can route "forbidden" answers.
type Output struct {
	Reply      string `json:"reply"`
	Status     string `json:"status"`
	Category   string `json:"category,omitempty"`
	Action     string `json:"action,omitempty"`
	Recognized bool   `json:"recognized"`
}
