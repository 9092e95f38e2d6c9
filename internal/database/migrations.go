package database

import "github.com/akash12888/note-taking-app/internal/models"

// migratedModels lists every model managed by auto-migration, in dependency
// order.
func migratedModels() []any {
	return []any{
		&models.User{},
		&models.Note{},
	}
}
