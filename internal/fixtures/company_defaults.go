package fixtures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/user"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/database"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// ==========================================
// HELPER FUNCTIONS
// ==========================================

func strPtr(s string) *string { return &s }

// ==========================================
// SEEDED DATA RESULT
// ==========================================

// SeededDataIDs holds IDs of everything Bootstrap created
type SeededDataIDs struct {
	CompanyID     string
	AccountNumber string
	AdminID       string
	ViewerID      string

	// Employee IDs by code
	EmployeeIDs map[string]string // e.g., "0001" -> "uuid"
}

// BootstrapInput describes the company and users to create on an empty database
type BootstrapInput struct {
	CompanyName    string
	AccountNumber  string
	BankName       string
	Branch         string
	OpeningBalance decimal.Decimal

	AdminUsername  string
	AdminPassword  string
	ViewerUsername string
	ViewerPassword string

	// SeedRoster adds GetDefaultRoster to the company
	SeedRoster bool
}

type Repositories struct {
	Users     user.UserRepository
	Companies company.CompanyRepository
	Employees employee.EmployeeRepository
}

// ErrAlreadyBootstrapped is returned when users already exist.
var ErrAlreadyBootstrapped = errors.New("database already has users")

// Bootstrap seeds a company, its admin and optionally a viewer and the demo
// roster, all in one transaction. It refuses to run once any user exists.
func Bootstrap(ctx context.Context, db database.Transactor, repos Repositories, in BootstrapInput) (*SeededDataIDs, error) {
	if in.CompanyName == "" || in.AccountNumber == "" || in.AdminUsername == "" || in.AdminPassword == "" {
		return nil, fmt.Errorf("bootstrap needs company name, account number, admin username and password")
	}

	seeded := &SeededDataIDs{EmployeeIDs: make(map[string]string)}

	err := db.WithinTx(ctx, func(ctx context.Context) error {
		count, err := repos.Users.Count(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyBootstrapped
		}

		c, err := repos.Companies.Create(ctx, company.Company{
			Name:          in.CompanyName,
			AccountNumber: in.AccountNumber,
			BankName:      in.BankName,
			Branch:        in.Branch,
			Balance:       in.OpeningBalance,
		})
		if err != nil {
			return err
		}
		seeded.CompanyID = c.ID
		seeded.AccountNumber = c.AccountNumber

		if !in.OpeningBalance.IsZero() {
			if _, err := repos.Companies.AppendTransaction(ctx, company.Transaction{
				CompanyID:    c.ID,
				Type:         company.TransactionTopUp,
				Amount:       in.OpeningBalance,
				BalanceAfter: in.OpeningBalance,
				Description:  "Opening balance",
			}); err != nil {
				return err
			}
		}

		admin, err := createUser(ctx, repos.Users, c.ID, in.AdminUsername, in.AdminPassword, "Administrator", user.RoleAdmin)
		if err != nil {
			return err
		}
		seeded.AdminID = admin.ID

		if in.ViewerUsername != "" {
			viewer, err := createUser(ctx, repos.Users, c.ID, in.ViewerUsername, in.ViewerPassword, "Viewer", user.RoleViewer)
			if err != nil {
				return err
			}
			seeded.ViewerID = viewer.ID
		}

		if in.SeedRoster {
			for _, e := range GetDefaultRoster(c.ID) {
				created, err := repos.Employees.Create(ctx, e)
				if err != nil {
					return fmt.Errorf("failed to seed employee %s: %w", e.Code, err)
				}
				seeded.EmployeeIDs[created.Code] = created.ID
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("bootstrap data seeded", "company_id", seeded.CompanyID, "employees", len(seeded.EmployeeIDs))
	return seeded, nil
}

func createUser(ctx context.Context, repo user.UserRepository, companyID, username, password, fullName string, role user.Role) (user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to hash password: %w", err)
	}
	return repo.Create(ctx, user.User{
		CompanyID:    companyID,
		Username:     username,
		FullName:     fullName,
		PasswordHash: string(hash),
		Role:         role,
	})
}

// ==========================================
// DEMO ROSTER
// ==========================================

// rosterRow is one demo employee. Grades fill the default distribution
// exactly: one each of grades 1 and 2, two each of grades 3 to 6.
type rosterRow struct {
	code, name, mobile, branch string
	grade                      int
	accountType                employee.AccountType
}

var defaultRoster = []rosterRow{
	{"0001", "Arif Hossain", "01711000001", "Gulshan", 1, employee.AccountTypeCurrent},
	{"0002", "Nusrat Jahan", "01811000002", "Gulshan", 2, employee.AccountTypeCurrent},
	{"0003", "Tanvir Ahmed", "01911000003", "Banani", 3, employee.AccountTypeSavings},
	{"0004", "Farhana Akter", "01611000004", "Banani", 3, employee.AccountTypeSavings},
	{"0005", "Rakib Hasan", "01511000005", "Dhanmondi", 4, employee.AccountTypeSavings},
	{"0006", "Sadia Islam", "01311000006", "Dhanmondi", 4, employee.AccountTypeSavings},
	{"0007", "Mehedi Rahman", "01411000007", "Motijheel", 5, employee.AccountTypeSavings},
	{"0008", "Shirin Sultana", "01711000008", "Motijheel", 5, employee.AccountTypeSavings},
	{"0009", "Kamal Uddin", "01811000009", "Uttara", 6, employee.AccountTypeSavings},
	{"0010", "Rumana Begum", "01911000010", "Uttara", 6, employee.AccountTypeSavings},
}

// GetDefaultRoster returns ten employees that fill the default grade distribution.
func GetDefaultRoster(companyID string) []employee.Employee {
	out := make([]employee.Employee, 0, len(defaultRoster))
	for _, r := range defaultRoster {
		out = append(out, employee.Employee{
			CompanyID: companyID,
			Code:      r.code,
			Name:      r.name,
			Email:     strPtr(fmt.Sprintf("employee%s@example.com", r.code)),
			Mobile:    r.mobile,
			Grade:     r.grade,
			Account: employee.BankAccount{
				Type:    r.accountType,
				Number:  "20500" + r.code,
				Balance: decimal.Zero,
				Branch:  r.branch,
			},
		})
	}
	return out
}
