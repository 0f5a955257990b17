package models

// AllFilter is the sentinel accepted by the ward and category filters.
const AllFilter = "all"

// Category is a city service category with its display label.
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// StatusInfo describes how a status is presented.
type StatusInfo struct {
	ID    IssueStatus `json:"id"`
	Label string      `json:"label"`
	Color string      `json:"color"`
}

// CityFact is one entry of the city intelligence strip.
type CityFact struct {
	Label  string `json:"label"`
	Value  int    `json:"value"`
	Suffix string `json:"suffix,omitempty"`
}

var Categories = []Category{
	{ID: "garbage", Label: "Garbage Not Collected", Icon: "🗑️"},
	{ID: "roads", Label: "Potholes / Damaged Roads", Icon: "🛣️"},
	{ID: "street_lighting", Label: "Broken Street Lights", Icon: "💡"},
	{ID: "water", Label: "Water Outage / Leakage", Icon: "🚰"},
	{ID: "drainage", Label: "Blocked Drainage / Flooding", Icon: "🌧️"},
	{ID: "sewer", Label: "Sewer Burst / Overflow", Icon: "🚽"},
	{ID: "illegal_dumping", Label: "Illegal Dumping", Icon: "🚯"},
	{ID: "public_property", Label: "Damaged Public Property", Icon: "🏢"},
	{ID: "noise", Label: "Noise Pollution", Icon: "🔊"},
}

var Statuses = []StatusInfo{
	{ID: Reported, Label: "Reported", Color: "yellow"},
	{ID: InProgress, Label: "In Progress", Color: "blue"},
	{ID: Resolved, Label: "Resolved", Color: "green"},
}

// Wards lists the 85 Nairobi County wards, grouped by constituency.
var Wards = []string{
	// Westlands
	"Kitisuru", "Parklands/Highridge", "Karura", "Kangemi", "Mountain View",
	// Dagoretti North
	"Kilimani", "Kawangware", "Gatina", "Kileleshwa", "Kabiro",
	// Dagoretti South
	"Mutu-Ini", "Ngando", "Riruta", "Uthiru/Ruthimitu", "Waithaka",
	// Lang'ata
	"Karen", "Nairobi West", "Mugumo-Ini", "South C", "Nyayo Highrise",
	// Kibra
	"Laini Saba", "Lindi", "Makina", "Woodley/Kenyatta Golf Course", "Sarang'ombe",
	// Roysambu
	"Githurai", "Kahawa West", "Zimmerman", "Roysambu", "Kahawa",
	// Kasarani
	"Clay City", "Mwiki", "Kasarani", "Njiru", "Ruai",
	// Ruaraka
	"Baba Dogo", "Utalii", "Mathare North", "Lucky Summer", "Korogocho",
	// Embakasi South
	"Imara Daima", "Kwa Njenga", "Kwa Reuben", "Pipeline", "Kware",
	// Embakasi North
	"Kariobangi North", "Dandora Area I", "Dandora Area II", "Dandora Area III", "Dandora Area IV",
	// Embakasi Central
	"Kayole North", "Kayole Central", "Kayole South", "Komarock", "Matopeni/Spring Valley",
	// Embakasi East
	"Upper Savanna", "Lower Savanna", "Embakasi", "Utawala", "Mihango",
	// Embakasi West
	"Umoja I", "Umoja II", "Mowlem", "Kariobangi South",
	// Makadara
	"Maringo/Hamza", "Viwandani", "Harambee", "Makongeni",
	// Kamukunji
	"Pumwani", "Eastleigh North", "Eastleigh South", "Airbase", "California",
	// Starehe
	"Nairobi Central", "Ngara", "Pangani", "Ziwani/Kariokor", "Landimawe", "Nairobi South",
	// Mathare
	"Hospital", "Mabatini", "Huruma", "Ngei", "Mlango Kubwa", "Kiamaiko",
}

var LocationTypes = []string{
	"Road / Street",
	"Estate / Apartment",
	"Market",
	"School",
	"Hospital",
	"Bus Stop / Stage",
	"Public Park",
	"Other",
}

var CityFacts = []CityFact{
	{Label: "Population", Value: 4700000},
	{Label: "Wards", Value: 85},
	{Label: "Sub-Counties", Value: 17},
	{Label: "Police Stations", Value: 115},
	{Label: "Public Schools", Value: 220},
	{Label: "Major Roads", Value: 350, Suffix: "km"},
	{Label: "Real Estate Zones", Value: 40},
	{Label: "Public Parks", Value: 65},
}

// CategoryLabel returns the display label for a category id, or the id itself
// when it is not part of the enumeration.
func CategoryLabel(id string) string {
	for _, c := range Categories {
		if c.ID == id {
			return c.Label
		}
	}
	return id
}

// StatusLabel returns the display label for a status.
func StatusLabel(s IssueStatus) string {
	for _, info := range Statuses {
		if info.ID == s {
			return info.Label
		}
	}
	return string(s)
}

// IsKnownWard reports whether ward is one of the enumerated wards.
func IsKnownWard(ward string) bool {
	for _, w := range Wards {
		if w == ward {
			return true
		}
	}
	return false
}

// IsKnownCategory reports whether id is one of the enumerated categories.
func IsKnownCategory(id string) bool {
	for _, c := range Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}
