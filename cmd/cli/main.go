package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"arriendo-cajas-backend/internal/config"
	"arriendo-cajas-backend/internal/db"
	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/repository/postgres"
	"arriendo-cajas-backend/internal/service"
)

const usage = `usage: cli [-config path] <command> [flags]

commands:
  migrate                      apply pending migrations
  rollback -steps N            revert the last N migrations
  create-user -email E -password P -name N [-role admin|driver|customer] [-driver-id ID] [-customer-id ID]
`

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "migrate":
		err = db.Migrate(conn)
	case "rollback":
		fs := flag.NewFlagSet("rollback", flag.ExitOnError)
		steps := fs.Int("steps", 1, "Number of migrations to revert")
		_ = fs.Parse(args)
		err = db.Rollback(conn, *steps)
	case "create-user":
		err = createUser(service.NewAuthService(postgres.NewUserRepository(conn)), args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		conn.Close()
		log.Fatalf("%s failed: %v", flag.Arg(0), err)
	}
}

func createUser(auth service.AuthService, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	email := fs.String("email", "", "Login email")
	password := fs.String("password", "", "Initial password")
	name := fs.String("name", "", "Display name")
	role := fs.String("role", string(domain.RoleAdmin), "admin, driver or customer")
	driverID := fs.Int64("driver-id", 0, "Driver record for driver users")
	customerID := fs.Int64("customer-id", 0, "Customer record for customer users")
	_ = fs.Parse(args)

	in := service.CreateUserInput{
		Email:    *email,
		Password: *password,
		Name:     *name,
		Role:     domain.Role(*role),
	}
	if *driverID > 0 {
		in.DriverID = driverID
	}
	if *customerID > 0 {
		in.CustomerID = customerID
	}

	user, err := auth.CreateUser(context.Background(), in)
	if err != nil {
		return err
	}
	fmt.Printf("created user %d (%s, %s)\n", user.ID, user.Email, user.Role)
	return nil
}
