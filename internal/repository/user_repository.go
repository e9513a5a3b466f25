package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/serhatk/campus-occupancy/internal/model"
	"github.com/serhatk/campus-occupancy/internal/utils"
)

// UserRepo persists student accounts.  Lookups by student number back
// the login flow; the numeric ID is what the rest of the system uses.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrStudentNumberExists = errors.New("student number already exists")

const userCols = `id, student_number, full_name, email, password_hash, role, is_active, created_at, last_login`

func scanUser(row interface{ Scan(...interface{}) error }) (model.User, error) {
	var u model.User
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.StudentNumber, &u.FullName, &u.Email,
		&u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &lastLogin)
	if err != nil {
		return model.User{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return u, nil
}

// Create inserts a student account and returns its ID.  The student
// number is unique; duplicate inserts surface ErrStudentNumberExists.
func (r *UserRepo) Create(ctx context.Context, studentNumber, fullName, email, password, role string, cost int) (uint64, error) {
	studentNumber = strings.TrimSpace(studentNumber)
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (student_number, full_name, email, password_hash, role, last_login) VALUES (?,?,?,?,?,UTC_TIMESTAMP())",
		studentNumber, fullName, email, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrStudentNumberExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByStudentNumber fetches a user by their login identifier.
func (r *UserRepo) GetByStudentNumber(ctx context.Context, studentNumber string) (model.User, error) {
	studentNumber = strings.TrimSpace(studentNumber)
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE student_number=? LIMIT 1", studentNumber))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// TouchLastLogin stamps the last successful login.  Best effort; login
// does not fail when the stamp cannot be written.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_login=UTC_TIMESTAMP() WHERE id=?", id)
	return err
}
