package catalog

// Column kinds used when cleaning CSV values.
const (
	kindText    = "TEXT"
	kindInteger = "INTEGER"
	kindReal    = "REAL"
)

type columnSpec struct {
	Header string
	Column string
	Kind   string
}

// requiredHeaders must be present in an import CSV.
var requiredHeaders = []string{"School Code Adjusted", "Display Name", "School Level"}

// ratioColumn is derived from the "Student Teacher Ratio" text.
const ratioColumn = "student_teacher_ratio_value"

// csvColumns maps merged-school CSV headers to table columns.
var csvColumns = []columnSpec{
	{"School Code", "school_code", kindText},
	{"School Code Adjusted", colCode, kindText},
	{"School Name", "school_name", kindText},
	{"Display Name", colDisplayName, kindText},
	{"GIS Name", colGISName, kindText},
	{"Zone", colZone, kindText},
	{"Feeder to High School", colFeeder, kindText},
	{"Network", colNetwork, kindText},
	{"School Level", colLevel, kindText},
	{"Low Grade", "low_grade", kindText},
	{"High Grade", "high_grade", kindText},

	{"Reside", "reside", kindText},
	{"Choice Zone", "choice_zone", kindText},
	{"Universal Magnet Traditional School", "universal_magnet_traditional_school", kindText},
	{"Universal Magnet Traditional Program", "universal_magnet_traditional_program", kindText},
	{"Geographical Magnet Traditional", "geographical_magnet_traditional", kindText},
	{"Magnet Programs", colMagnetPrograms, kindText},
	{"The Academies of Louisville", "the_academies_of_louisville", kindText},
	{"The Academies of Louisville Programs", colAcademyPrograms, kindText},
	{"Explore Pathways", colExplorePathways, kindText},
	{"Explore Pathways Programs", colPathwayPrograms, kindText},
	{"Districtwide Pathways", "districtwide_pathways", kindText},
	{"Specialized School Choices", "specialized_school_choices", kindText},

	{"Great Schools Rating", "great_schools_rating", kindInteger},
	{"Great Schools URL", "great_schools_url", kindText},
	{"KYReportCard URL", "ky_reportcard_URL", kindText},
	{"School Website Link", "school_website_link", kindText},
	{"Overall Indicator Rating", "overall_indicator_rating", kindText},

	{"Enrollment", "enrollment", kindInteger},
	{"Membership", "membership", kindInteger},
	{"Student Teacher Ratio", "student_teacher_ratio", kindText},
	{"Start Time", "start_time", kindText},
	{"End Time", "end_time", kindText},

	{"White %", "white_percent", kindReal},
	{"African American %", "african_american_percent", kindReal},
	{"Hispanic %", "hispanic_percent", kindReal},
	{"Asian %", "asian_percent", kindReal},
	{"Two or More Races %", "two_or_more_races_percent", kindReal},
	{"Economically Disadvantaged %", "economically_disadvantaged_percent", kindReal},
	{"Mathematics - All Students Proficient or Distinguished", "math_all_proficient_distinguished", kindReal},
	{"Reading - All Students Proficient or Distinguished", "reading_all_proficient_distinguished", kindReal},
	{"Gifted Talented", "gifted_talented_percent", kindReal},
	{"Attendance Rate", "attendance_rate", kindReal},
	{"Dropout Rate", "dropout_rate", kindReal},
	{"Parent Satisfaction", "parent_satisfaction", kindReal},
	{"Teacher Average Years of Experience", "teacher_avg_years_experience", kindReal},
	{"Percent of Teachers with 3 Years or Less of Experience", "percent_teachers_3_years_or_less_experience", kindReal},
	{"Total Behavior Events", "total_behavior_events", kindInteger},
	{"Total Assault Or Weapons", "total_assault_weapons", kindInteger},
	{"Percent_Total_Behavior", "percent_total_behavior", kindReal},
	{"PTA Membership Percent", "pta_membership_percent", kindReal},

	{"Title I Status", "title_i_status", kindText},
	{"Address", "address", kindText},
	{"City", "city", kindText},
	{"State", "state", kindText},
	{"Zipcode", "zipcode", kindText},
	{"Phone", "phone", kindText},
	{"Latitude", colLatitude, kindReal},
	{"Longitude", colLongitude, kindReal},
}

// indexedColumns get single-column indexes after import.
var indexedColumns = []string{
	colGISName,
	colDisplayName,
	colLevel,
	"choice_zone",
	"the_academies_of_louisville",
	"great_schools_rating",
}
