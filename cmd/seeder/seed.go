package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/optitalent/hr-backend/internal/directory"
	"github.com/optitalent/hr-backend/internal/identity"
	"github.com/optitalent/hr-backend/internal/rbac"
	"gopkg.in/yaml.v3"
)

type SeedData struct {
	Departments []Department `yaml:"departments"`
	Accounts    []Account    `yaml:"accounts"`
	Employees   []Employee   `yaml:"employees"`
}

type Department struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type Account struct {
	Email        string `yaml:"email"`
	EmployeeID   string `yaml:"employee_id"`
	Credential   string `yaml:"credential"`
	Role         string `yaml:"role"`
	DepartmentID string `yaml:"department_id,omitempty"`
}

type Employee struct {
	Code         string `yaml:"code"`
	FullName     string `yaml:"full_name"`
	Email        string `yaml:"email"`
	Title        string `yaml:"title"`
	DepartmentID string `yaml:"department_id"`
	HiredOn      string `yaml:"hired_on,omitempty"`
}

func loadSeedData(files []string) (*SeedData, error) {
	combined := &SeedData{}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", file, err)
		}

		var fileData SeedData
		if err := yaml.Unmarshal(data, &fileData); err != nil {
			return nil, fmt.Errorf("failed to parse YAML in %s: %w", file, err)
		}

		combined.Departments = append(combined.Departments, fileData.Departments...)
		combined.Accounts = append(combined.Accounts, fileData.Accounts...)
		combined.Employees = append(combined.Employees, fileData.Employees...)
	}

	return combined, nil
}

// validateSeedData checks references and roles without touching a store.
func validateSeedData(data *SeedData) error {
	departments := make(map[string]bool, len(data.Departments))
	for _, d := range data.Departments {
		if d.ID == "" {
			return errors.New("department without id")
		}
		departments[d.ID] = true
	}

	var errs []error
	for _, a := range data.Accounts {
		role, err := rbac.ParseRole(a.Role)
		if err != nil {
			errs = append(errs, fmt.Errorf("account %s: %w", a.Email, err))
			continue
		}
		if rbac.IsDepartmentScoped(role) && a.DepartmentID == "" {
			errs = append(errs, fmt.Errorf("account %s: role %s needs a department", a.Email, role))
		}
		if a.DepartmentID != "" && !departments[a.DepartmentID] {
			errs = append(errs, fmt.Errorf("account %s: unknown department %q", a.Email, a.DepartmentID))
		}
	}
	for _, e := range data.Employees {
		if !departments[e.DepartmentID] {
			errs = append(errs, fmt.Errorf("employee %s: unknown department %q", e.Code, e.DepartmentID))
		}
		if e.HiredOn != "" {
			if _, err := time.Parse("2006-01-02", e.HiredOn); err != nil {
				errs = append(errs, fmt.Errorf("employee %s: bad hired_on: %w", e.Code, err))
			}
		}
	}
	return errors.Join(errs...)
}

func applySeedData(ctx context.Context, accounts identity.Store, repo directory.Repository, data *SeedData) error {
	if err := validateSeedData(data); err != nil {
		return err
	}

	for _, d := range data.Departments {
		if err := repo.CreateDepartment(ctx, directory.Department{ID: d.ID, Name: d.Name}); err != nil {
			return fmt.Errorf("failed to create department %s: %w", d.ID, err)
		}
		fmt.Printf("created department: %s\n", d.ID)
	}

	for _, a := range data.Accounts {
		role, _ := rbac.ParseRole(a.Role)
		account, err := accounts.Create(ctx, identity.NewAccount{
			Email:        a.Email,
			EmployeeID:   a.EmployeeID,
			Credential:   a.Credential,
			Role:         role,
			DepartmentID: a.DepartmentID,
		})
		if errors.Is(err, identity.ErrDuplicateAccount) {
			fmt.Printf("skipped existing account: %s\n", a.Email)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create account %s: %w", a.Email, err)
		}
		fmt.Printf("created account: %s (%s)\n", account.Email, account.Role)
	}

	for _, e := range data.Employees {
		in := directory.NewEmployee{
			Code:         e.Code,
			FullName:     e.FullName,
			Email:        e.Email,
			Title:        e.Title,
			DepartmentID: e.DepartmentID,
		}
		if e.HiredOn != "" {
			hired, _ := time.Parse("2006-01-02", e.HiredOn)
			in.HiredOn = &hired
		}
		if _, err := repo.CreateEmployee(ctx, in); err != nil {
			if errors.Is(err, directory.ErrDuplicateEmployee) {
				fmt.Printf("skipped existing employee: %s\n", e.Code)
				continue
			}
			return fmt.Errorf("failed to create employee %s: %w", e.Code, err)
		}
		fmt.Printf("created employee: %s\n", e.Code)
	}

	fmt.Println("seeding completed")
	return nil
}
