package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/optitalent/hr-backend/internal/config"
	"github.com/optitalent/hr-backend/internal/database"
	"github.com/optitalent/hr-backend/internal/identity"
	"github.com/optitalent/hr-backend/internal/rbac"
)

// hashgen prints a credential hash, or with -create stores a new account.
func main() {
	create := flag.Bool("create", false, "Create the account instead of printing the hash")
	employeeID := flag.String("employee-id", "", "Employee id for -create")
	department := flag.String("department", "", "Department for department-scoped roles")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <email> <credential> <role>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s -create -employee-id E-0001 admin@optitalent.io s3cret admin\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(1)
	}
	email, credential := flag.Arg(0), flag.Arg(1)

	role, err := rbac.ParseRole(flag.Arg(2))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !*create {
		hash, err := identity.HashCredential(credential)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating hash: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	if *employeeID == "" {
		fmt.Fprintln(os.Stderr, "Error: -employee-id is required with -create")
		os.Exit(1)
	}
	if rbac.IsDepartmentScoped(role) && *department == "" {
		fmt.Fprintf(os.Stderr, "Error: role %s requires -department\n", role)
		os.Exit(1)
	}

	cfg := config.Load()
	db, err := database.New(&cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	account, err := identity.NewPostgresStore(db.Pool()).Create(context.Background(), identity.NewAccount{
		Email:        email,
		EmployeeID:   *employeeID,
		Credential:   credential,
		Role:         role,
		DepartmentID: *department,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create account: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Account created successfully: %s (%s)\n", account.Email, account.Role)
}
