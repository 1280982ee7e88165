package filters

// candidate is a canonical value and the literal substrings that select it.
type candidate struct {
	name     string
	patterns []string
}

// The tables below are ordered; the first candidate with a matching pattern wins.

var stateCandidates = []candidate{
	{"uttar pradesh", []string{"uttar pradesh", " up ", "u.p.", "u.p ", " up,", " up."}},
	{"maharashtra", []string{"maharashtra", " mh ", "mh,", "mh."}},
	{"tamil nadu", []string{"tamil nadu", " tn ", "tn,", "tn."}},
	{"delhi", []string{"delhi", " dl ", "dl,", "dl.", "ncr"}},
	{"karnataka", []string{"karnataka", " ka ", "ka,", "ka."}},
	{"gujarat", []string{"gujarat", " gj ", "gj,", "gj."}},
	{"rajasthan", []string{"rajasthan", " rj ", "rj,", "rj."}},
	{"west bengal", []string{"west bengal", " wb ", "wb,", "wb.", "bengal"}},
	{"madhya pradesh", []string{"madhya pradesh", " mp ", "mp,", "mp."}},
	{"haryana", []string{"haryana", " hr ", "hr,", "hr."}},
}

var districts = []string{
	"lucknow", "kanpur", "noida", "agra", "varanasi", "ghaziabad", "meerut", "allahabad",
	"mumbai", "pune", "nagpur", "thane", "nashik", "aurangabad",
	"chennai", "coimbatore", "madurai", "tiruchirappalli", "salem",
	"central delhi", "east delhi", "west delhi", "north delhi", "south delhi",
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

var vehicleTypeCandidates = []candidate{
	{"car", []string{"car", "cars"}},
	{"motorcycle", []string{"motorcycle", "bike", "bikes", "two wheeler", "two-wheeler"}},
	{"suv", []string{"suv", "suvs"}},
	{"truck", []string{"truck", "trucks"}},
	{"bus", []string{"bus", "buses"}},
	{"auto rickshaw", []string{"auto", "rickshaw", "auto rickshaw"}},
}

var violationCandidates = []candidate{
	{"No Helmet", []string{"helmet", "without helmet"}},
	{"No Seatbelt", []string{"seatbelt", "seat belt", "without seatbelt"}},
	{"Overspeeding", []string{"overspeeding", "speed", "speeding", "over speed"}},
	{"Red Light Jump", []string{"red light", "signal jump", "traffic signal"}},
	{"Drunk Driving", []string{"drunk", "drinking", "alcohol", "dui"}},
	{"Using Mobile", []string{"mobile", "phone", "cell phone"}},
	{"No Insurance", []string{"insurance", "without insurance"}},
	{"No License", []string{"license", "licence", "without license", "driving license"}},
	{"Triple Riding", []string{"triple riding", "three on bike"}},
	{"Wrong Side Driving", []string{"wrong side", "wrong way"}},
}

// MonthName returns the display name of a 1-based month, or "" when out of range.
func MonthName(month int) string {
	if month < 1 || month > len(monthNames) {
		return ""
	}
	name := monthNames[month-1]
	return string(name[0]-'a'+'A') + name[1:]
}
