package lexicon

// Weekdays are the canonical DAY_OF_WEEK values.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var defaultDates = map[string]string{
	"today":     "today",
	"tdy":       "today",
	"tonight":   "tonight",
	"tomorrow":  "tomorrow",
	"tmrw":      "tomorrow",
	"tmr":       "tomorrow",
	"tmrow":     "tomorrow",
	"yesterday": "yesterday",
	"yday":      "yesterday",
	"weekend":   "weekend",

	"monday": "monday", "mon": "monday",
	"tuesday": "tuesday", "tue": "tuesday", "tues": "tuesday",
	"wednesday": "wednesday", "wed": "wednesday",
	"thursday": "thursday", "thu": "thursday", "thur": "thursday", "thurs": "thursday",
	"friday": "friday", "fri": "friday",
	"saturday": "saturday", "sat": "saturday",
	"sunday": "sunday", "sun": "sunday",

	"mondays": "monday", "tuesdays": "tuesday", "wednesdays": "wednesday", "thursdays": "thursday",
	"fridays": "friday", "saturdays": "saturday", "sundays": "sunday",
}

var defaultTimes = map[string]string{
	"noon":      "12:00 pm",
	"midday":    "12:00 pm",
	"midnight":  "12:00 am",
	"morning":   "9:00 am",
	"afternoon": "2:00 pm",
	"evening":   "6:00 pm",
	"night":     "8:00 pm",
}

var defaultAssignments = map[string]string{
	"midterm":      "midterm",
	"midterm exam": "midterm",
	"midterms":     "midterm",
	"final":        "final",
	"final exam":   "final",
	"finals":       "final",
	"exam":         "exam",
	"quiz":         "quiz",
	"test":         "test",
	"homework":     "homework",
	"hw":           "homework",
	"assignment":   "assignment",
	"pset":         "problem set",
	"problem set":  "problem set",
	"project":      "project",
	"essay":        "essay",
	"paper":        "paper",
	"presentation": "presentation",
	"lab":          "lab",
	"lab report":   "lab report",
	"report":       "report",
	"portfolio":    "portfolio",
}

var defaultCourses = map[string]string{
	"calc":     "Calculus",
	"orgo":     "Organic Chemistry",
	"o-chem":   "Organic Chemistry",
	"chem":     "Chemistry",
	"bio":      "Biology",
	"psych":    "Psychology",
	"econ":     "Economics",
	"stats":    "Statistics",
	"stat":     "Statistics",
	"cs":       "Computer Science",
	"comp sci": "Computer Science",
	"phys":     "Physics",
	"lit":      "Literature",
	"philo":    "Philosophy",
	"soc":      "Sociology",
	"anthro":   "Anthropology",
	"astro":    "Astronomy",
}
