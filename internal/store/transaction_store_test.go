package store

import (
	"testing"
	"time"

	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/apperrors"
	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/changeset"
	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/txnumber"
	"github.com/accounting-cell/NAJUM-ALTHURAY/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	db := openTestDB(t)
	s := NewTransactionStore(db)
	employee := seedUser(t, db, "amal@najum.example", "Amal Hassan", models.RoleEmployee)

	first := seedTransaction(t, s, employee)
	second := seedTransaction(t, s, employee)
	third := seedTransaction(t, s, employee)

	today := time.Now()
	assert.Equal(t, txnumber.Format(today, 1), first.TransactionNumber)
	assert.Equal(t, txnumber.Format(today, 2), second.TransactionNumber)
	assert.Equal(t, txnumber.Format(today, 3), third.TransactionNumber)

	assert.Equal(t, employee.ID, first.AssignedTo)
	assert.Equal(t, employee.ID, first.CreatedBy)
	assert.Equal(t, models.StatusPending, first.Status)
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	db := openTestDB(t)
	s := NewTransactionStore(db)
	employee := seedUser(t, db, "amal@najum.example", "Amal Hassan", models.RoleEmployee)

	_, err := s.Create(CreateTransactionInput{}, asRequester(employee))
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)

	var fields []string
	for _, f := range appErr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{
		"serviceType", "transactionType", "clientName",
		"passportId", "mobileNumber", "receiveDate", "expectedDelivery",
	}, fields)

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	db := openTestDB(t)
	s := NewTransactionStore(db)
	employee := seedUser(t, db, "amal@najum.example", "Amal Hassan", models.RoleEmployee)

	_, err := s.Create(CreateTransactionInput{
		ServiceType:      "Document Processing",
		TransactionType:  "New",
		ClientName:       "Client",
		PassportID:       "P000001",
		MobileNumber:     "0500000001",
		Status:           "archived",
		ReceiveDate:      time.Now(),
		ExpectedDelivery: time.Now(),
	}, asRequester(employee))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestCreateWritesCreatedHistory(t *testing.T) {
	db := openTestDB(t)
	s := NewTransactionStore(db)
	employee := seedUser(t, db, "amal@najum.example", "Amal Hassan", models.RoleEmployee)

	txn := seedTransaction(t, s, employee)

	history, err := s.History(txn.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.HistoryActionCreated, history[0].Action)
	assert.Equal(t, employee.ID, history[0].ModifiedBy)
	assert.Equal(t, "Amal Hassan", history[0].ModifiedByName)
	assert.Equal(t, "Transaction created", history[0].Changes["message"])
}

func TestNumberNotReusedAfterDelete(t *testing.T) {
	db := openTestDB(t)
	s := NewTransactionStore(db)
	employee := seedUser(t, db, "amal@najum.example", "Amal Hassan", models.RoleEmployee)
	admin := seedUser(t, db, "root@najum.example", "Site Admin", models.RoleAdmin)

	first := seedTransaction(t, s, employee)
	seedTransaction(t, s, employee)

	require.NoError(t, s.Delete(first.ID, asRequester(admin)))

	third := seedTransaction(t, s, employee)
	assert.Equal(t, txnumber.Format(time.Now(), 3), third.TransactionNumber)
}

func TestGetVisibility(t *testing.T) {
	db := openTestDB(t)
	s := NewTransactionStore(db)
	owner := seedUser(t, db, "amal@najum.example", "Amal Hassan", models.RoleEmployee)
	other := seedUser(t, db, "badr@najum.example", "Badr Saleh", models.RoleEmployee)
	supervisor := seedUser(t, db, "sami@najum.example", "Sami Omar", models.RoleSupervisor)

	txn := seedTransaction(t, s, owner)

	_, _, err := s.Get(txn.ID, asRequester(other))
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	got, history, err := s.Get(txn.ID, asRequester(supervisor))
	require.NoError(t, err)
	assert.Equal(t, txn.TransactionNumber, got.TransactionNumber)
	assert.Len(t, history, 1)

	_, _, err = s.Get(99999, asRequester(supervisor))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestListScopesEmployeeToOwnRows(t *testing.T) {
	db := openTestDB(t)
	s := NewTransactionStore(db)
	amal := seedUser(t, db, "amal@najum.example", "Amal Hassan", models.RoleEmployee)
	badr := seedUser(t, db, "badr@najum.example", "Badr Saleh", models.RoleEmployee)
	supervisor := seedUser(t, db, "sami@najum.example", "Sami Omar", models.RoleSupervisor)

	seedTransaction(t, s, amal)
	seedTransaction(t, s, amal)
	badrTxn := seedTransaction(t, s, badr)

	// An employee's assignedTo filter for someone else is silently ignored.
	rows, pagination, err := s.List(ListFilter{AssignedTo: badr.ID}, asRequester(amal))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, amal.ID, row.AssignedTo)
	}
	assert.EqualValues(t, 2, pagination.Total)

	// A supervisor's assignedTo filter is honored.
	rows, _, err = s.List(ListFilter{AssignedTo: badr.ID}, asRequester(supervisor))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, badrTxn.ID, rows[0].ID)
	assert.Equal(t, "Badr Saleh", rows[0].AssignedEmployeeName)
}

func TestListSearchColumnsDependOnRole(t *testing.T) {
	db := openTestDB(t)
	s := NewTransactionStore(db)
	employee := seedUser(t, db, "amal@najum.example", "Amal Hassan", models.RoleEmployee)
	supervisor := seedUser(t, db, "sami@najum.example", "Sami Omar", models.RoleSupervisor)

	txn := seedTransaction(t, s, employee)

	// Employees search client name and mobile only, so a passport id search
	// finds nothing even on their own rows.
	rows, _, err := s.List(ListFilter{Search: txn.PassportID}, asRequester(employee))
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, _, err = s.List(ListFilter{Search: txn.PassportID}, asRequester(supervisor))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, txn.ID, rows[0].ID)

	// Both roles can search by client name, case-insensitively.
	rows, _, err = s.List(ListFilter{Search: "client"}, asRequester(employee))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestListFiltersStatusAndServiceType(t *testing.T) {
	db := openTestDB(t)
	s := NewTransactionStore(db)
	employee := seedUser(t, db, "amal@najum.example", "Amal Hassan", models.RoleEmployee)
	supervisor := seedUser(t, db, "sami@najum.example", "Sami Omar", models.RoleSupervisor)

	txn := seedTransaction(t, s, employee)
	ready := models.StatusReady
	_, err := s.Update(txn.ID, changeset.Patch{Status: &ready}, asRequester(employee))
	require.NoError(t, err)
	seedTransaction(t, s, employee)

	rows, _, err := s.List(ListFilter{Status: models.StatusReady}, asRequester(supervisor))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, txn.ID, rows[0].ID)

	rows, _, err = s.List(ListFilter{ServiceType: "document"}, asRequester(supervisor))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestUpdateAppliesDiffAndRecordsHistory(t *testing.T) {
	db := openTestDB(t)
	s := NewTransactionStore(db)
	employee := seedUser(t, db, "amal@najum.example", "Amal Hassan", models.RoleEmployee)

	txn := seedTransaction(t, s, employee)
	notes := "urgent"
	_, err := s.Update(txn.ID, changeset.Patch{Notes: &notes}, asRequester(employee))
	require.NoError(t, err)

	inProgress := models.StatusInProgress
	updated, err := s.Update(txn.ID, changeset.Patch{Status: &inProgress}, asRequester(employee))
	require.NoError(t, err)

	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, "urgent", updated.Notes, "untouched field must survive a partial update")

	history, err := s.History(txn.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.HistoryActionUpdated, history[0].Action)

	change, ok := history[0].Changes["status"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, models.StatusPending, change["from"])
	assert.Equal(t, models.StatusInProgress, change["to"])
	_, touchedNotes := history[0].Changes["notes"]
	assert.False(t, touchedNotes)
}

func TestUpdateWithNoChangesIsRejected(t *testing.T) {
	db := openTestDB(t)
	s := NewTransactionStore(db)
	employee := seedUser(t, db, "amal@najum.example", "Amal Hassan", models.RoleEmployee)

	txn := seedTransaction(t, s, employee)

	pending := models.StatusPending
	_, err := s.Update(txn.ID, changeset.Patch{Status: &pending}, asRequester(employee))
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	assert.Equal(t, "No changes detected", appErr.Message)

	history, err := s.History(txn.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "a rejected no-op update must not add history")
}

func TestUpdateForbiddenForOtherEmployee(t *testing.T) {
	db := openTestDB(t)
	s := NewTransactionStore(db)
	owner := seedUser(t, db, "amal@najum.example", "Amal Hassan", models.RoleEmployee)
	other := seedUser(t, db, "badr@najum.example", "Badr Saleh", models.RoleEmployee)

	txn := seedTransaction(t, s, owner)

	ready := models.StatusReady
	_, err := s.Update(txn.ID, changeset.Patch{Status: &ready}, asRequester(other))
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestDeleteIsAdminOnlyAndCascades(t *testing.T) {
	db := openTestDB(t)
	s := NewTransactionStore(db)
	employee := seedUser(t, db, "amal@najum.example", "Amal Hassan", models.RoleEmployee)
	admin := seedUser(t, db, "root@najum.example", "Site Admin", models.RoleAdmin)

	txn := seedTransaction(t, s, employee)
	notes := "keep"
	_, err := s.Update(txn.ID, changeset.Patch{Notes: &notes}, asRequester(employee))
	require.NoError(t, err)

	err = s.Delete(txn.ID, asRequester(employee))
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	require.NoError(t, s.Delete(txn.ID, asRequester(admin)))

	var txCount, historyCount int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&txCount).Error)
	require.NoError(t, db.Model(&models.TransactionHistory{}).Where("transaction_id = ?", txn.ID).Count(&historyCount).Error)
	assert.Zero(t, txCount)
	assert.Zero(t, historyCount)

	err = s.Delete(txn.ID, asRequester(admin))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestStatsSummary(t *testing.T) {
	db := openTestDB(t)
	s := NewTransactionStore(db)
	employee := seedUser(t, db, "amal@najum.example", "Amal Hassan", models.RoleEmployee)
	supervisor := seedUser(t, db, "sami@najum.example", "Sami Omar", models.RoleSupervisor)

	first := seedTransaction(t, s, employee)
	seedTransaction(t, s, employee)
	seedTransaction(t, s, employee)

	ready := models.StatusReady
	_, err := s.Update(first.ID, changeset.Patch{Status: &ready}, asRequester(employee))
	require.NoError(t, err)

	_, err = s.Stats(asRequester(employee))
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	summary, err := s.Stats(asRequester(supervisor))
	require.NoError(t, err)
	assert.EqualValues(t, 3, summary.Total)
	assert.EqualValues(t, 2, summary.Pending)
	assert.EqualValues(t, 1, summary.Ready)
	assert.EqualValues(t, 3, summary.Today)
}
