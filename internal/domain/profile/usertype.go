package profile

import "strings"

// User types, in classification priority order.
const (
	SafetyEquipmentBuyer     = "Safety Equipment Buyer"
	IndustrialEquipmentBuyer = "Industrial Equipment Buyer"
	ToolsBuyer               = "Tools Buyer"
	ChemicalsBuyer           = "Chemicals Buyer"
	ElectricalBuyer          = "Electrical Buyer"
	FoodBeverageBuyer        = "Food & Beverage Buyer"
	GeneralBuyer             = "General Buyer"
)

type typeRule struct {
	userType string
	keywords []string
}

// First match wins.
var typeRules = []typeRule{
	{SafetyEquipmentBuyer, []string{"safety", "glove", "mask"}},
	{IndustrialEquipmentBuyer, []string{"industrial", "pump", "compressor"}},
	{ToolsBuyer, []string{"tool"}},
	{ChemicalsBuyer, []string{"chemical", "lubricant"}},
	{ElectricalBuyer, []string{"electrical", "cable"}},
	{FoodBeverageBuyer, []string{"food"}},
}

// ClassifyUserType maps a dominant category to a user type by
// case-insensitive substring match.
func ClassifyUserType(dominantCategory string) string {
	c := strings.ToLower(dominantCategory)
	if c == "" {
		return GeneralBuyer
	}
	for _, r := range typeRules {
		for _, kw := range r.keywords {
			if strings.Contains(c, kw) {
				return r.userType
			}
		}
	}
	return GeneralBuyer
}

// Uncategorized stands in for a missing or blank top-level category.
const Uncategorized = "Uncategorized"

// TopLevelCategory truncates a hierarchical category at its first '>'.
func TopLevelCategory(category string) string {
	head, _, _ := strings.Cut(category, ">")
	if head = strings.TrimSpace(head); head == "" {
		return Uncategorized
	}
	return head
}
