package config

import (
	"fmt"
	"os"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/grade"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/salary"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Policy bundles the salary formula and grade distribution rules.
type Policy struct {
	Salary       salary.Policy
	Distribution grade.Distribution
}

func DefaultPolicy() Policy {
	return Policy{
		Salary:       salary.DefaultPolicy(),
		Distribution: grade.DefaultDistribution(),
	}
}

func (p Policy) Validate() error {
	if err := p.Salary.Validate(); err != nil {
		return err
	}
	return p.Distribution.Validate()
}

// policyFile is the on-disk shape. Amounts are strings so they keep their
// exact decimal value.
//
//	salary:
//	  increment: "5000"
//	  house_rent_rate: "0.20"
//	  medical_rate: "0.15"
//	grades:
//	  limits: {1: 1, 2: 1, 3: 2, 4: 2, 5: 2, 6: 2}
//	  max_headcount: 10
type policyFile struct {
	Salary struct {
		Increment     string `yaml:"increment"`
		HouseRentRate string `yaml:"house_rent_rate"`
		MedicalRate   string `yaml:"medical_rate"`
	} `yaml:"salary"`
	Grades struct {
		Limits       map[int]int `yaml:"limits"`
		MaxHeadcount int         `yaml:"max_headcount"`
	} `yaml:"grades"`
}

// LoadPolicy reads a YAML policy file; missing keys keep their defaults.
func LoadPolicy(path string) (Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicy(raw)
}

func ParsePolicy(raw []byte) (Policy, error) {
	var file policyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Policy{}, fmt.Errorf("parse policy file: %w", err)
	}

	policy := DefaultPolicy()
	for _, field := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"salary.increment", file.Salary.Increment, &policy.Salary.Increment},
		{"salary.house_rent_rate", file.Salary.HouseRentRate, &policy.Salary.HouseRentRate},
		{"salary.medical_rate", file.Salary.MedicalRate, &policy.Salary.MedicalRate},
	} {
		if field.raw == "" {
			continue
		}
		v, err := decimal.NewFromString(field.raw)
		if err != nil {
			return Policy{}, fmt.Errorf("invalid %s: %w", field.name, err)
		}
		*field.dst = v
	}

	if len(file.Grades.Limits) > 0 {
		policy.Distribution.Limits = file.Grades.Limits
	}
	if file.Grades.MaxHeadcount > 0 {
		policy.Distribution.MaxHeadcount = file.Grades.MaxHeadcount
	}

	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}
