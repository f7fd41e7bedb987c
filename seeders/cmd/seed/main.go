package main

import (
	"flag"
	"log"

	"gearguard/pkg/config"
	"gearguard/pkg/database/postgresql"
	"gearguard/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 Наполнение базы данных GearGuard            ")
	log.Println("======================================================")

	runBootstrap := flag.Bool("bootstrap", false, "Создать стартового менеджера")
	runDemo := flag.Bool("demo", false, "Загрузить демо-данные (бригады, оборудование)")
	runAll := flag.Bool("all", false, "Запустить все сидеры")
	flag.Parse()

	if !*runBootstrap && !*runDemo && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed -bootstrap")
		log.Println("  go run ./seeders/cmd/seed -all")
		return
	}

	cfg := config.New()
	log.Println("📦 Используется DSN:", cfg.Postgres.DSN)

	if err := postgresql.RunMigrations(cfg.Postgres.DSN); err != nil {
		log.Fatalf("❌ Не удалось применить миграции: %v", err)
	}

	dbPool := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer dbPool.Close()

	if *runAll || *runBootstrap {
		seeders.SeedManager(dbPool)
	}
	if *runAll || *runDemo {
		seeders.SeedDemoData(dbPool)
	}

	log.Println("✅ Сидирование завершено.")
	log.Println("======================================================")
}
