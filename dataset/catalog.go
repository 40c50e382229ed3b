// Package dataset generates the synthetic daily commodity price CSV used
// to bootstrap training.
package dataset

// Commodity is one entry of the fixed commodity table. Base is the average
// price in ₹/kg the synthetic signal oscillates around.
type Commodity struct {
	Name     string
	Base     float64
	Variety  string
	Category string
}

// Market is one entry of the fixed APMC market table.
type Market struct {
	State    string
	District string
	Name     string
}

// Commodities is the fixed table, no fruits.
var Commodities = []Commodity{
	{"Onion", 35, "Red/Nashik", "Veg"},
	{"Tomato", 40, "Hybrid", "Veg"},
	{"Potato", 25, "Desi/Local", "Veg"},
	{"Garlic", 120, "Desi", "Veg"},
	{"Ginger", 90, "Local", "Veg"},
	{"Green Chilli", 60, "Teja", "Veg"},
	{"Rice", 45, "Basmati/Common", "Cereal"},
	{"Wheat", 30, "Sharbati", "Cereal"},
	{"Atta", 35, "Whole Wheat", "Cereal"},
	{"Tur Dal", 110, "Unpolished", "Pulse"},
	{"Gram Dal", 75, "Desi", "Pulse"},
	{"Moong Dal", 95, "Split", "Pulse"},
	{"Urad Dal", 105, "Black", "Pulse"},
	{"Masoor Dal", 85, "Red", "Pulse"},
	{"Mustard Oil", 140, "Kachi Ghani", "Oil"},
	{"Groundnut Oil", 180, "Filtered", "Oil"},
	{"Soya Oil", 125, "Refined", "Oil"},
	{"Sunflower Oil", 130, "Refined", "Oil"},
	{"Palm Oil", 95, "Imported", "Oil"},
	{"Sugar", 42, "M-30", "Essential"},
	{"Milk", 55, "Toned", "Essential"},
	{"Salt", 20, "Iodized", "Essential"},
}

// Markets are real APMC markets.
var Markets = []Market{
	{"Maharashtra", "Mumbai", "Vashi APMC"},
	{"Delhi", "Delhi", "Azadpur APMC"},
	{"Karnataka", "Bengaluru", "Yeshwantpur APMC"},
	{"Uttar Pradesh", "Lucknow", "Dubagga Mandi"},
}

// volatile commodities swing with a 30% seasonal amplitude; everything
// else gets 10%.
var volatile = map[string]bool{
	"Onion":  true,
	"Tomato": true,
	"Potato": true,
}
