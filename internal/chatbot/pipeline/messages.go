package pipeline

import (
	"fmt"

	"vahan-chatbot/internal/models"
)

const (
	MaxMessageLength = 500
	MinMessageLength = 3

	MsgInvalidMessage = "Invalid message format. Please send a text query."
	MsgTooShort       = "Query too short. Please provide more details."
	MsgServerError    = "An error occurred processing your request. Please try again."
)

const HelpText = "❓ I couldn't understand your query. Please ask about:\n\n" +
	"📊 Vehicle Registrations:\n" +
	"  • 'How many cars registered in UP in March 2023?'\n" +
	"  • 'Total vehicles registered in Lucknow this month'\n\n" +
	"💰 Vehicle Sales:\n" +
	"  • 'How many vehicles sold in Maharashtra this year?'\n" +
	"  • 'Total cars sold in Mumbai in 2024'\n\n" +
	"🚔 Traffic Challans:\n" +
	"  • 'Which RTO collected highest challans?'\n" +
	"  • 'Total challan collection in Delhi this month'\n\n" +
	"⚖️ Traffic Fines:\n" +
	"  • 'What is the fine for not wearing helmet in Delhi?'\n" +
	"  • 'Fine for overspeeding in Maharashtra'\n\n" +
	"🚨 Accidents:\n" +
	"  • 'Total accidents in Tamil Nadu in 2024'\n\n" +
	"📋 Driving Licenses:\n" +
	"  • 'How many licenses issued in Karnataka in 2023?'"

// AccessDeniedText tells the caller which jurisdiction they are limited to.
func AccessDeniedText(caller models.Caller) string {
	return "🔒 Access denied. You do not have permission to view this data.\n\n" +
		fmt.Sprintf("Your access level: %s\n", caller.Role) +
		fmt.Sprintf("Your region: %s", caller.Region())
}
