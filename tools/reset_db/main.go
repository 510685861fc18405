package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"

	"oasis/config"

	"github.com/go-sql-driver/mysql"
)

// 子表在前，父表在后
var tables = []string{
	"recommend_post", "recommend",
	"agreement",
	"favorites_post", "favorites",
	"comment_like", "comment",
	"post_like", "post_image", "post",
	"follow", "relationship",
	"user",
}

func main() {
	cfgPath := flag.String("config", config.DefaultPath, "配置文件路径")
	yes := flag.Bool("yes", false, "跳过确认")
	flag.Parse()

	cfg := config.LoadConfigFrom(*cfgPath)
	if cfg.Database.Driver != "mysql" {
		log.Fatalf("reset_db only supports mysql, got driver %q", cfg.Database.Driver)
	}

	dsn := mysql.Config{
		User:                 cfg.Database.Username,
		Passwd:               cfg.Database.Password,
		Net:                  "tcp",
		Addr:                 fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port),
		DBName:               cfg.Database.Database,
		Params:               map[string]string{"charset": cfg.Database.Charset},
		ParseTime:            true,
		AllowNativePasswords: true,
	}

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Database connection test failed: %v", err)
	}

	fmt.Println("Database connected successfully")
	fmt.Printf("Database: %s\n", cfg.Database.Database)

	if !*yes {
		fmt.Printf("\nWARNING: This operation will CLEAR ALL DATA in tables %v!\n", tables)
		fmt.Print("Type 'YES' to confirm: ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "YES" {
			fmt.Println("Operation cancelled")
			return
		}
	}

	_, _ = db.Exec("SET FOREIGN_KEY_CHECKS=0")
	defer db.Exec("SET FOREIGN_KEY_CHECKS=1")

	failed := 0
	for _, table := range tables {
		fmt.Printf("Truncating %s... ", table)
		// TRUNCATE 同时重置自增ID
		if _, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE `%s`", table)); err != nil {
			var myErr *mysql.MySQLError
			if errors.As(err, &myErr) && myErr.Number == 1146 {
				fmt.Println("Skipped (table does not exist)")
				continue
			}
			failed++
			fmt.Printf("Failed: %v\n", err)
			continue
		}
		fmt.Println("Success")
	}

	if failed > 0 {
		log.Fatalf("Database reset finished with %d failures", failed)
	}
	fmt.Println("\nDatabase reset completed!")
	fmt.Println("All table data cleared, table structure preserved")
}
