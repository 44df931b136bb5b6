package service

import (
	"context"
	"testing"
	"time"

	"campus-portal/internal/domain"
	"campus-portal/internal/testutil"

	"golang.org/x/crypto/bcrypt"
)

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt hash: %v", err)
	}
	return string(hash)
}

func TestAuthService_Login_Success(t *testing.T) {
	accounts := testutil.NewMockAccountRepository()
	sessions := testutil.NewMockSessionRepository()
	account := testutil.NewTestAccount(
		testutil.WithUsername("ada"),
		testutil.WithRole(domain.RoleInstructor),
		testutil.WithPasswordHash(hashPassword(t, "correct horse")),
	)
	accounts.Accounts[account.ID] = account

	svc := NewAuthService(accounts, sessions, 24*time.Hour)

	session, got, err := svc.Login(context.Background(), "ada", "correct horse")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got.ID, account.ID)
	testutil.AssertEqual(t, session.UserID, account.ID)
	testutil.AssertEqual(t, session.Role, domain.RoleInstructor)
	testutil.AssertTrue(t, session.Token != "", "session must carry a token")
	testutil.AssertTrue(t, session.ExpiresAt.After(time.Now().Add(23*time.Hour)),
		"session must expire roughly one lifetime out")

	if _, ok := sessions.Sessions[session.Token]; !ok {
		t.Error("session was not persisted")
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	accounts := testutil.NewMockAccountRepository()
	sessions := testutil.NewMockSessionRepository()
	account := testutil.NewTestAccount(
		testutil.WithUsername("ada"),
		testutil.WithPasswordHash(hashPassword(t, "correct horse")),
	)
	accounts.Accounts[account.ID] = account

	svc := NewAuthService(accounts, sessions, 24*time.Hour)

	_, _, err := svc.Login(context.Background(), "ada", "wrong")
	testutil.AssertErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	svc := NewAuthService(testutil.NewMockAccountRepository(), testutil.NewMockSessionRepository(), 24*time.Hour)

	_, _, err := svc.Login(context.Background(), "nobody", "anything")
	testutil.AssertErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_Login_DisabledAccount(t *testing.T) {
	accounts := testutil.NewMockAccountRepository()
	account := testutil.NewTestAccount(
		testutil.WithUsername("ada"),
		testutil.WithPasswordHash(hashPassword(t, "correct horse")),
		testutil.WithDisabled(),
	)
	accounts.Accounts[account.ID] = account

	svc := NewAuthService(accounts, testutil.NewMockSessionRepository(), 24*time.Hour)

	_, _, err := svc.Login(context.Background(), "ada", "correct horse")
	testutil.AssertErrorIs(t, err, domain.ErrAccountDisabled)
}

func TestAuthService_Login_DisabledCheckedAfterPassword(t *testing.T) {
	// A disabled account with a wrong password reports invalid
	// credentials, not disabled, so probing cannot map account states.
	accounts := testutil.NewMockAccountRepository()
	account := testutil.NewTestAccount(
		testutil.WithUsername("ada"),
		testutil.WithPasswordHash(hashPassword(t, "correct horse")),
		testutil.WithDisabled(),
	)
	accounts.Accounts[account.ID] = account

	svc := NewAuthService(accounts, testutil.NewMockSessionRepository(), 24*time.Hour)

	_, _, err := svc.Login(context.Background(), "ada", "wrong")
	testutil.AssertErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_Logout(t *testing.T) {
	sessions := testutil.NewMockSessionRepository()
	session := testutil.NewTestSession(testutil.WithToken("tok"))
	sessions.Sessions[session.Token] = session

	svc := NewAuthService(testutil.NewMockAccountRepository(), sessions, 24*time.Hour)

	testutil.AssertNoError(t, svc.Logout(context.Background(), "tok"))
	if _, ok := sessions.Sessions["tok"]; ok {
		t.Error("session still present after logout")
	}
}

func TestAuthService_ValidateSession(t *testing.T) {
	sessions := testutil.NewMockSessionRepository()
	session := testutil.NewTestSession(testutil.WithToken("tok"))
	sessions.Sessions[session.Token] = session

	svc := NewAuthService(testutil.NewMockAccountRepository(), sessions, 24*time.Hour)

	got, err := svc.ValidateSession(context.Background(), "tok")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got.Token, "tok")

	_, err = svc.ValidateSession(context.Background(), "missing")
	testutil.AssertErrorIs(t, err, domain.ErrSessionNotFound)
}
