package database

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestLastSubmission(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	d := NewFromDB(db)
	submittedAt := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT file_hash, created_at").
		WithArgs("203.0.113.7").
		WillReturnRows(sqlmock.NewRows([]string{"file_hash", "created_at"}).
			AddRow("abc123", submittedAt))

	hash, at, found, err := d.LastSubmission(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("LastSubmission() error = %v", err)
	}
	if !found {
		t.Fatal("found = false, want true")
	}
	if hash != "abc123" || !at.Equal(submittedAt) {
		t.Errorf("got (%q, %v), want (abc123, %v)", hash, at, submittedAt)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLastSubmissionNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	d := NewFromDB(db)

	mock.ExpectQuery("SELECT file_hash, created_at").
		WithArgs("203.0.113.7").
		WillReturnRows(sqlmock.NewRows([]string{"file_hash", "created_at"}))

	_, _, found, err := d.LastSubmission(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("LastSubmission() error = %v", err)
	}
	if found {
		t.Error("found = true, want false for client with no submissions")
	}
}

func TestSaveSubmission(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	d := NewFromDB(db)

	mock.ExpectExec("INSERT INTO submissions").
		WithArgs("203.0.113.7", "abc123").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := d.SaveSubmission(context.Background(), "203.0.113.7", "abc123"); err != nil {
		t.Fatalf("SaveSubmission() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSaveEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	d := NewFromDB(db)

	mock.ExpectExec("INSERT INTO report_emails").
		WithArgs("user@example.com", "203.0.113.7").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := d.SaveEmail(context.Background(), "user@example.com", "203.0.113.7"); err != nil {
		t.Fatalf("SaveEmail() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
