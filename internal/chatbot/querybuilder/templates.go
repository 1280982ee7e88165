package querybuilder

import "vahan-chatbot/internal/models"

// aggregate describes a fact table that answers a count or sum question.
type aggregate struct {
	base        string
	alias       string
	dateColumn  string
	vehicleType bool
}

var aggregates = map[string]aggregate{
	models.Intent{Category: models.CategoryRegistration, Action: models.ActionCount}.QueryType(): {
		base:        "SELECT COUNT(*) as count FROM vehicle_registrations vr JOIN states s ON vr.state_id = s.id WHERE 1=1",
		alias:       "vr",
		dateColumn:  "registration_date",
		vehicleType: true,
	},
	models.Intent{Category: models.CategorySales, Action: models.ActionCount}.QueryType(): {
		base:        "SELECT COUNT(*) as count FROM vehicle_sales vs JOIN states s ON vs.state_id = s.id WHERE 1=1",
		alias:       "vs",
		dateColumn:  "sale_date",
		vehicleType: true,
	},
	models.Intent{Category: models.CategoryAccident, Action: models.ActionCount}.QueryType(): {
		base:       "SELECT COUNT(*) as count FROM accident_records ar JOIN states s ON ar.state_id = s.id WHERE 1=1",
		alias:      "ar",
		dateColumn: "accident_date",
	},
	models.Intent{Category: models.CategoryLicense, Action: models.ActionCount}.QueryType(): {
		base:       "SELECT COUNT(*) as count FROM driving_licenses dl JOIN states s ON dl.state_id = s.id WHERE 1=1",
		alias:      "dl",
		dateColumn: "issue_date",
	},
	models.Intent{Category: models.CategoryChallan, Action: models.ActionTotal}.QueryType(): {
		base:       "SELECT SUM(fine_amount) as total FROM traffic_challans tc JOIN states s ON tc.state_id = s.id WHERE 1=1",
		alias:      "tc",
		dateColumn: "challan_date",
	},
}

const (
	challanTopBase = "SELECT r.rto_name, SUM(tc.fine_amount) as total FROM traffic_challans tc " +
		"JOIN states s ON tc.state_id = s.id JOIN rto_offices r ON tc.rto_id = r.id WHERE 1=1"
	// TopOfficeLimit is the number of offices returned by the top collection query.
	TopOfficeLimit = 5

	fineLookupBase = "SELECT fine_amount, description FROM traffic_fines tf JOIN states s ON tf.state_id = s.id WHERE 1=1"
)

const (
	stateClause       = "LOWER(s.state_name) = LOWER(?)"
	districtClause    = "%s.district_id = (SELECT id FROM districts WHERE LOWER(district_name) LIKE LOWER(?) LIMIT 1)"
	yearClause        = "EXTRACT(YEAR FROM %s) = ?"
	monthClause       = "EXTRACT(MONTH FROM %s) = ?"
	vehicleTypeClause = "LOWER(vehicle_type) = LOWER(?)"
	violationClause   = "LOWER(violation_type) = LOWER(?)"
)
