// Package features computes the effective feature flags of a user from the
// tenant catalog and per-user overrides.
package features

// Definition is a built-in feature flag
type Definition struct {
	Key            string `json:"feature_key"`
	Label          string `json:"label"`
	DefaultEnabled bool   `json:"default_enabled"`
}

// BasicFeatures are enabled for every user unless overridden
var BasicFeatures = []Definition{
	{Key: "dashboard", Label: "Dashboard", DefaultEnabled: true},
	{Key: "fuel_products", Label: "Fuel Products", DefaultEnabled: true},
	{Key: "daily_sale_rates", Label: "Daily Sale Rates", DefaultEnabled: true},
	{Key: "sale_entries", Label: "Sale Entries", DefaultEnabled: true},
	{Key: "sheet_records", Label: "Sheet Records", DefaultEnabled: true},
	{Key: "tanks", Label: "Tanks", DefaultEnabled: true},
	{Key: "nozzles", Label: "Nozzles", DefaultEnabled: true},
	{Key: "employees", Label: "Employees", DefaultEnabled: true},
	{Key: "vendors", Label: "Vendors", DefaultEnabled: true},
	{Key: "credit_customers", Label: "Credit Customers", DefaultEnabled: true},
	{Key: "expense_types", Label: "Expense Types", DefaultEnabled: true},
}

// AdvancedFeatures are disabled unless granted
var AdvancedFeatures = []Definition{
	{Key: "swipe_machines", Label: "Swipe Machines", DefaultEnabled: false},
	{Key: "reports", Label: "Reports", DefaultEnabled: false},
	{Key: "analytics", Label: "Analytics", DefaultEnabled: false},
	{Key: "retention_policies", Label: "Data Retention", DefaultEnabled: false},
	{Key: "guest_entry", Label: "Guest Entry", DefaultEnabled: false},
	{Key: "interest_transactions", Label: "Interest Transactions", DefaultEnabled: false},
}

// Defaults returns the built-in catalog, basic features first
func Defaults() []Definition {
	out := make([]Definition, 0, len(BasicFeatures)+len(AdvancedFeatures))
	out = append(out, BasicFeatures...)
	return append(out, AdvancedFeatures...)
}
