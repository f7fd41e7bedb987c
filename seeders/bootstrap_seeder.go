package seeders

import (
	"context"
	"log"

	"gearguard/pkg/constants"
	"gearguard/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Пароль менеджера по умолчанию. Обязательно сменить после первого входа.
const defaultManagerPassword = "manager123"

// SeedManager создает стартового менеджера, без которого в системе
// некому заводить бригады и оборудование.
func SeedManager(db *pgxpool.Pool) {
	log.Println("  - Создание стартового менеджера...")
	ctx := context.Background()

	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`,
		constants.RoleManager.String(),
	).Scan(&exists)
	if err != nil {
		log.Fatalf("    ❌ Ошибка проверки наличия менеджера: %v", err)
	}
	if exists {
		log.Println("    - Менеджер уже есть, пропускаем.")
		return
	}

	hashed, err := utils.HashPassword(defaultManagerPassword)
	if err != nil {
		log.Fatalf("    ❌ Ошибка хеширования пароля: %v", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO users (name, email, password, role, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT DO NOTHING`,
		"Главный менеджер", "manager@gearguard.local", hashed, constants.RoleManager.String(),
	)
	if err != nil {
		log.Fatalf("    ❌ Ошибка создания менеджера: %v", err)
	}
	log.Println("    ✅ Менеджер manager@gearguard.local создан (пароль: manager123).")
}
