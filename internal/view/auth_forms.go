package view

import (
	"context"
	"fmt"
	"io"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/internal/modules/auth/dto"
	authService "anoa.com/poemhub/internal/modules/auth/service"
	"anoa.com/poemhub/pkg/apperror"
	"anoa.com/poemhub/pkg/token"
)

const afterLogin = "/dashboard"

type LoginForm struct {
	auth    authService.AuthService
	session Session
	err     string
}

func NewLoginForm(auth authService.AuthService, session Session) *LoginForm {
	return &LoginForm{auth: auth, session: session}
}

func (f *LoginForm) Mount(context.Context, Params) error {
	f.err = ""
	return nil
}

func (f *LoginForm) Unmount() {}

// Submit logs in and returns where to go next. Failures are kept for
// display next to the form and returned.
func (f *LoginForm) Submit(ctx context.Context, username, password string) (string, error) {
	id, err := f.auth.Login(ctx, dto.LoginInput{Username: username, Password: password})
	if err != nil {
		f.err = err.Error()
		return "", err
	}
	if err := f.session.Login(ctx, *id); err != nil {
		f.err = "could not save the session: " + err.Error()
		return "", err
	}
	f.err = ""
	return afterLogin, nil
}

func (f *LoginForm) Error() string { return f.err }

func (f *LoginForm) Render(w io.Writer) error {
	heading(w, "Login")
	inlineError(w, f.err)
	_, err := fmt.Fprintln(w, "login <username>    (password is prompted)\nNo account yet? open /register")
	return err
}

var errPasswordMismatch = apperror.New(0, "Passwords do not match", apperror.ErrInvalidInput)

type RegisterForm struct {
	auth    authService.AuthService
	session Session
	err     string
}

func NewRegisterForm(auth authService.AuthService, session Session) *RegisterForm {
	return &RegisterForm{auth: auth, session: session}
}

func (f *RegisterForm) Mount(context.Context, Params) error {
	f.err = ""
	return nil
}

func (f *RegisterForm) Unmount() {}

// Submit checks the confirmation, registers and signs the new account in.
func (f *RegisterForm) Submit(ctx context.Context, username, email, password, confirm string) (string, error) {
	if password != confirm {
		f.err = errPasswordMismatch.Error()
		return "", errPasswordMismatch
	}

	tok, err := f.auth.Register(ctx, dto.RegisterInput{
		Username:        username,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
	})
	if err != nil {
		f.err = err.Error()
		return "", err
	}
	if tok == "" {
		// Account exists but the API did not sign it in.
		f.err = ""
		return "/login", nil
	}

	role, ok := token.Decode(tok).Role()
	if !ok {
		role = entity.RoleUser
	}
	if err := f.session.Login(ctx, entity.Identity{Token: tok, Role: role, Username: username, Email: email}); err != nil {
		f.err = "could not save the session: " + err.Error()
		return "", err
	}
	f.err = ""
	return afterLogin, nil
}

func (f *RegisterForm) Error() string { return f.err }

func (f *RegisterForm) Render(w io.Writer) error {
	heading(w, "Register")
	inlineError(w, f.err)
	_, err := fmt.Fprintln(w, "register <username> <email>    (password and confirmation are prompted)")
	return err
}
