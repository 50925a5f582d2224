package models

// All returns every model the console migrates, parents before children.
func All() []interface{} {
	return []interface{}{
		&Employee{},
		&Session{},
		&HeadCategory{},
		&SubCategory{},
		&MicroCategory{},
		&MicroCategoryMeta{},
		&State{},
		&City{},
		&AuthUser{},
		&Vendor{},
		&Lead{},
		&LeadPurchase{},
		&PricingRule{},
		&AuditLog{},
	}
}
