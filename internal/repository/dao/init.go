package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&Product{},
		&Order{},
		&OrderItem{},
	)
}

// DropTables is used by tests and the reset command.
func DropTables(db *gorm.DB) error {
	return db.Migrator().DropTable(&OrderItem{}, &Order{}, &Product{})
}
