package models

import "github.com/google/uuid"

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model in dependency order, used by AutoMigrate.
func All() []any {
	return []any{
		&GroceryProduct{},
		&ClothingItem{},
		&ClothingVariant{},
		&Restaurant{},
		&MenuItem{},
		&Cart{},
		&CartLineItem{},
		&Order{},
		&OrderLineItem{},
	}
}
