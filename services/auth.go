package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace_console_go/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10
	// SessionTokenLength is the length of the session token in bytes (64 chars hex)
	SessionTokenLength = 32
	// DefaultSessionDuration is the default session duration (12 hours)
	DefaultSessionDuration = 12 * time.Hour
	// MaxFailedLogins locks the account on the next failure
	MaxFailedLogins = 5
	// LockoutDuration is how long a locked account stays locked
	LockoutDuration = 15 * time.Minute
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked, try again later")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// VerifyPassword verifies a password against a bcrypt hash
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// GenerateSessionToken generates a cryptographically secure random token
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, SessionTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// Authenticate checks credentials and maintains the failed-login counter.
// The fifth consecutive failure locks the account for LockoutDuration.
func Authenticate(db *gorm.DB, email, password string) (*models.Employee, error) {
	var employee models.Employee
	err := db.Where("email = ?", SanitizeEmail(email)).First(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}

	now := time.Now()
	if employee.IsLockedOut(now) {
		return nil, ErrAccountLocked
	}

	if !VerifyPassword(employee.Password, password) {
		attempts := employee.FailedLoginAttempts + 1
		updates := map[string]interface{}{"failed_login_attempts": attempts}
		if attempts >= MaxFailedLogins {
			updates["lockout_until"] = now.Add(LockoutDuration)
			updates["failed_login_attempts"] = 0
		}
		if err := db.Model(&employee).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to record login attempt: %w", err)
		}
		if attempts >= MaxFailedLogins {
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	if !employee.IsActive {
		return nil, ErrAccountInactive
	}

	err = db.Model(&employee).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"lockout_until":         nil,
		"last_login_at":         now,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	employee.FailedLoginAttempts = 0
	employee.LockoutUntil = nil
	employee.LastLoginAt = &now

	return &employee, nil
}

// CreateSession creates a new session for an employee
func CreateSession(db *gorm.DB, employeeID, ipAddress, userAgent string) (*models.Session, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:         uuid.New().String(),
		EmployeeID: employeeID,
		Token:      token,
		ExpiresAt:  time.Now().UTC().Add(DefaultSessionDuration),
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
	}

	if err := db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// ValidateSession validates a session token and returns the session with its employee
func ValidateSession(db *gorm.DB, token string) (*models.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrSessionNotFound
	}

	var session models.Session
	err := db.Preload("Employee").
		Where("token = ?", token).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}

	if session.IsExpired(time.Now()) {
		db.Delete(&session)
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// DeleteSession deletes a session (logout)
func DeleteSession(db *gorm.DB, token string) error {
	result := db.Where("token = ?", token).Delete(&models.Session{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}
	return nil
}

// CleanupExpiredSessions removes all expired sessions from the database
func CleanupExpiredSessions(db *gorm.DB, logger *zap.Logger) error {
	result := db.Where("expires_at < ?", time.Now().UTC()).Delete(&models.Session{})
	if result.Error != nil {
		return fmt.Errorf("failed to cleanup expired sessions: %w", result.Error)
	}
	if result.RowsAffected > 0 && logger != nil {
		logger.Info("cleaned up expired sessions", zap.Int64("count", result.RowsAffected))
	}
	return nil
}

// CreateEmployee validates and stores a new console account
func CreateEmployee(db *gorm.DB, name, email, password, role string) (*models.Employee, error) {
	var verrs ValidationErrors

	name = SanitizeName(name)
	if name == "" {
		verrs.Add("name", "name is required")
	}
	email = SanitizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		verrs.Add("email", err.Error())
	}
	if err := ValidatePassword(password); err != nil {
		verrs.Add("password", err.Error())
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = models.RoleEmployee
	}
	if !models.IsValidRole(role) {
		verrs.Add("role", "role must be one of employee, sales, admin, superadmin")
	}
	if err := verrs.ErrOrNil(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	employee := &models.Employee{
		Name:     name,
		Email:    email,
		Password: hash,
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(employee).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, NewValidationError("email", "an employee with this email already exists")
		}
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	return employee, nil
}
