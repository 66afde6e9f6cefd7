package directory

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/cmlabs-hris/payroll-disbursement/internal/client/api"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/store"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/grade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmployeeAPI struct {
	employees []employee.EmployeeResponse
	listCalls int
	createErr error
	created   []employee.CreateEmployeeRequest
}

func (f *fakeEmployeeAPI) ListEmployees(ctx context.Context, page, size int, sort string) (api.Page[employee.EmployeeResponse], error) {
	f.listCalls++
	start := (page - 1) * size
	end := min(start+size, len(f.employees))
	var items []employee.EmployeeResponse
	if start < len(f.employees) {
		items = append(items, f.employees[start:end]...)
	}
	return api.Page[employee.EmployeeResponse]{
		Items: items,
		Meta:  api.Meta{Page: page, Size: size, TotalItems: int64(len(f.employees)), TotalPages: (len(f.employees) + size - 1) / size},
	}, nil
}

func (f *fakeEmployeeAPI) GetEmployee(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	for _, e := range f.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return employee.EmployeeResponse{}, &api.Error{StatusCode: http.StatusNotFound, Code: "NOT_FOUND", Message: "Employee not found"}
}

func (f *fakeEmployeeAPI) CreateEmployee(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	if f.createErr != nil {
		return employee.EmployeeResponse{}, f.createErr
	}
	f.created = append(f.created, req)
	e := employee.EmployeeResponse{ID: fmt.Sprintf("e-%s", req.Code), Code: req.Code, Name: req.Name, Grade: req.Grade}
	f.employees = append(f.employees, e)
	return e, nil
}

func (f *fakeEmployeeAPI) UpdateEmployee(ctx context.Context, id string, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	for i := range f.employees {
		if f.employees[i].ID == id {
			if req.Grade != nil {
				f.employees[i].Grade = *req.Grade
			}
			if req.Name != nil {
				f.employees[i].Name = *req.Name
			}
			return f.employees[i], nil
		}
	}
	return employee.EmployeeResponse{}, &api.Error{StatusCode: http.StatusNotFound, Message: "Employee not found"}
}

func (f *fakeEmployeeAPI) DeleteEmployee(ctx context.Context, id string) error {
	for i := range f.employees {
		if f.employees[i].ID == id {
			f.employees = append(f.employees[:i], f.employees[i+1:]...)
			return nil
		}
	}
	return &api.Error{StatusCode: http.StatusNotFound, Message: "Employee not found"}
}

// fullRoster mirrors the grade table: 1,2,3,3,4,4,5,5,6,6.
func fullRoster() []employee.EmployeeResponse {
	grades := []int{1, 2, 3, 3, 4, 4, 5, 5, 6, 6}
	names := []string{"Rahim", "Karim", "Nadia", "Farhan", "Sadia", "Tanvir", "Mitu", "Arif", "Jamal", "Lina"}
	out := make([]employee.EmployeeResponse, 0, len(grades))
	for i, g := range grades {
		code := fmt.Sprintf("%04d", i+1)
		out = append(out, employee.EmployeeResponse{
			ID:     "e-" + code,
			Code:   code,
			Name:   names[i],
			Mobile: fmt.Sprintf("017110000%02d", i+1),
			Grade:  g,
			Account: employee.BankAccountResponse{
				Balance: decimal.NewFromInt(int64(1000 * (10 - i))),
			},
		})
	}
	return out
}

func newDirectory(employees []employee.EmployeeResponse) (*Directory, *fakeEmployeeAPI) {
	fake := &fakeEmployeeAPI{employees: employees}
	return New(fake, store.New(), grade.DefaultDistribution()), fake
}

func TestDirectory_CreateRejectedWhenFull(t *testing.T) {
	d, fake := newDirectory(fullRoster())

	_, err := d.Create(context.Background(), employee.CreateEmployeeRequest{Code: "0011", Name: "Extra", Grade: 6})
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "grade", rejected.Field)
	assert.Equal(t, "Maximum of 10 employees reached.", rejected.Reason)
	assert.EqualError(t, err, "employee grade rejected: maximum of 10 employees reached")
	assert.Empty(t, fake.created)
}

func TestDirectory_CreateDuplicateCode(t *testing.T) {
	d, fake := newDirectory(fullRoster()[:9])

	_, err := d.Create(context.Background(), employee.CreateEmployeeRequest{Code: "0003", Name: "Copy", Grade: 6})
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "code", rejected.Field)
	assert.Empty(t, fake.created)
}

func TestDirectory_CreateReloads(t *testing.T) {
	d, fake := newDirectory(fullRoster()[:9])

	created, err := d.Create(context.Background(), employee.CreateEmployeeRequest{Code: "0010", Name: "Lina", Grade: 6})
	require.NoError(t, err)
	assert.Equal(t, "0010", created.Code)
	assert.Equal(t, 2, fake.listCalls)

	roster, err := d.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, roster, 10)
}

func TestDirectory_CreateSurfacesRemoteError(t *testing.T) {
	d, fake := newDirectory(fullRoster()[:9])
	fake.createErr = &api.Error{StatusCode: http.StatusUnprocessableEntity, Code: "VALIDATION_ERROR", Message: "Validation failed"}

	_, err := d.Create(context.Background(), employee.CreateEmployeeRequest{Code: "0010", Grade: 6})
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Validation failed", apiErr.Message)
}

func TestDirectory_UpdateKeepsOwnSlot(t *testing.T) {
	d, _ := newDirectory(fullRoster())
	ctx := context.Background()

	same := 1
	name := "Rahim Uddin"
	updated, err := d.Update(ctx, "e-0001", employee.UpdateEmployeeRequest{Grade: &same, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Rahim Uddin", updated.Name)

	top := 1
	_, err = d.Update(ctx, "e-0002", employee.UpdateEmployeeRequest{Grade: &top})
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Reason, "Grade 1")
}

func TestDirectory_DeleteReloads(t *testing.T) {
	d, _ := newDirectory(fullRoster())
	ctx := context.Background()

	_, err := d.Reload(ctx)
	require.NoError(t, err)
	require.NoError(t, d.Delete(ctx, "e-0010"))

	roster, err := d.All(ctx)
	require.NoError(t, err)
	assert.Len(t, roster, 9)

	_, err = d.Get(ctx, "e-0010")
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestDirectory_ViewRequiresLoad(t *testing.T) {
	d, _ := newDirectory(fullRoster())

	_, err := d.View(Query{})
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = d.Reload(context.Background())
	require.NoError(t, err)
	res, err := d.View(Query{Grade: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
}

func TestApply(t *testing.T) {
	roster := fullRoster()

	t.Run("search across name code and mobile", func(t *testing.T) {
		res, err := Apply(roster, Query{Search: "SAD"})
		require.NoError(t, err)
		require.Len(t, res.Items, 1)
		assert.Equal(t, "0005", res.Items[0].Code)

		res, err = Apply(roster, Query{Search: "0007"})
		require.NoError(t, err)
		require.Len(t, res.Items, 1)

		res, err = Apply(roster, Query{Search: "01711000009"})
		require.NoError(t, err)
		require.Len(t, res.Items, 1)
		assert.Equal(t, "Jamal", res.Items[0].Name)
	})

	t.Run("grade sort breaks ties by code", func(t *testing.T) {
		res, err := Apply(roster, Query{SortKey: employee.SortByGrade, Desc: true, Size: 3})
		require.NoError(t, err)
		require.Len(t, res.Items, 3)
		assert.Equal(t, []string{"0009", "0010", "0007"}, []string{res.Items[0].Code, res.Items[1].Code, res.Items[2].Code})
		assert.Equal(t, 4, res.TotalPages)
	})

	t.Run("balance sort", func(t *testing.T) {
		res, err := Apply(roster, Query{SortKey: employee.SortByBalance, Size: 1})
		require.NoError(t, err)
		assert.Equal(t, "0010", res.Items[0].Code)
	})

	t.Run("page past the end", func(t *testing.T) {
		res, err := Apply(roster, Query{Page: 5, Size: 5})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.Equal(t, 10, res.Total)
	})

	t.Run("unknown sort key", func(t *testing.T) {
		_, err := Apply(roster, Query{SortKey: "salary"})
		assert.ErrorIs(t, err, employee.ErrInvalidSortKey)
	})
}
