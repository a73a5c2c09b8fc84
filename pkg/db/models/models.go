package models

// All returns every model for GORM AutoMigrate (sqlite/dev path; the
// postgres path runs goose migrations instead).
func All() []any {
	return []any{
		&Customer{},
		&Category{},
		&Brand{},
		&Product{},
		&Order{},
		&OrderItem{},
		&InventoryMovement{},
		&IntegrationToken{},
		&SyncLog{},
		&SiteSetting{},
	}
}
