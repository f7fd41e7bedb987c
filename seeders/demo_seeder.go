package seeders

import (
	"context"
	"log"

	"gearguard/pkg/constants"

	"github.com/jackc/pgx/v5/pgxpool"
)

type demoTeam struct {
	Name           string
	Specialization string
	Members        []demoMember
}

type demoMember struct {
	Name  string
	Email string
}

type demoEquipment struct {
	Name         string
	SerialNumber string
	Category     string
	TeamName     string
	Location     string
}

var demoTeams = []demoTeam{
	{
		Name:           "Механики",
		Specialization: "Механика",
		Members: []demoMember{
			{Name: "Иван Петров", Email: "i.petrov@gearguard.local"},
			{Name: "Алексей Смирнов", Email: "a.smirnov@gearguard.local"},
		},
	},
	{
		Name:           "Электрики",
		Specialization: "Электрика",
		Members: []demoMember{
			{Name: "Мария Козлова", Email: "m.kozlova@gearguard.local"},
		},
	},
}

var demoEquipments = []demoEquipment{
	{Name: "Токарный станок ТВ-320", SerialNumber: "TV320-0001", Category: "Machinery", TeamName: "Механики", Location: "Цех 1"},
	{Name: "Компрессор Remeza СБ4", SerialNumber: "RMZ-0042", Category: "Machinery", TeamName: "Механики", Location: "Цех 1"},
	{Name: "Сварочный аппарат Ресанта", SerialNumber: "RST-0107", Category: "Tools", TeamName: "Электрики", Location: "Цех 2"},
}

// SeedDemoData наполняет БД демонстрационными бригадами и оборудованием.
func SeedDemoData(db *pgxpool.Pool) {
	log.Println("  - Наполнение демо-данными (бригады, оборудование)...")
	ctx := context.Background()

	for _, team := range demoTeams {
		var teamID uint64
		err := db.QueryRow(ctx, `
			INSERT INTO teams (name, specialization)
			VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET specialization = EXCLUDED.specialization
			RETURNING id`,
			team.Name, team.Specialization,
		).Scan(&teamID)
		if err != nil {
			log.Fatalf("    ❌ Ошибка создания бригады '%s': %v", team.Name, err)
		}

		for position, member := range team.Members {
			_, err := db.Exec(ctx, `
				INSERT INTO team_members (team_id, name, email, position)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT DO NOTHING`,
				teamID, member.Name, member.Email, position,
			)
			if err != nil {
				log.Fatalf("    ❌ Ошибка добавления участника '%s': %v", member.Email, err)
			}
		}
	}

	for _, eq := range demoEquipments {
		_, err := db.Exec(ctx, `
			INSERT INTO equipments (name, serial_number, category, team_id, location, status)
			VALUES ($1, $2, $3, (SELECT id FROM teams WHERE name = $4), $5, $6)
			ON CONFLICT (serial_number) DO NOTHING`,
			eq.Name, eq.SerialNumber, eq.Category, eq.TeamName, eq.Location,
			constants.EquipmentActive.String(),
		)
		if err != nil {
			log.Fatalf("    ❌ Ошибка создания оборудования '%s': %v", eq.SerialNumber, err)
		}
	}
	log.Println("    ✅ Демо-данные загружены.")
}
