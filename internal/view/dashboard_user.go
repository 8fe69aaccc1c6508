package view

import (
	"context"
	"errors"
	"fmt"
	"io"

	"anoa.com/poemhub/internal/entity"
	profileService "anoa.com/poemhub/internal/modules/profile/service"
	userService "anoa.com/poemhub/internal/modules/user/service"
	"anoa.com/poemhub/pkg/apperror"
	"anoa.com/poemhub/pkg/sanitize"
)

// UserDashboard is a USER's own profile and account, looked up by the
// email saved with the session.
type UserDashboard struct {
	Lifecycle

	profiles profileService.ProfileService
	users    userService.UserService
	session  Session

	profile *entity.Profile
	account *entity.User
	err     string
	formErr string
}

func NewUserDashboard(profiles profileService.ProfileService, users userService.UserService, session Session) *UserDashboard {
	return &UserDashboard{profiles: profiles, users: users, session: session}
}

func (v *UserDashboard) Mount(ctx context.Context, _ Params) error {
	v.Lifecycle.Mount(ctx)
	v.profile, v.account, v.err, v.formErr = nil, nil, "", ""

	email := v.session.Current().Email
	if email == "" {
		v.err = "No email is stored for this session; log in again to load your dashboard"
		return nil
	}
	return v.load(email)
}

func (v *UserDashboard) load(email string) error {
	var redirect error
	Run(&v.Lifecycle, func(ctx context.Context) (*entity.Profile, error) {
		return v.profiles.GetByEmail(ctx, email)
	}, func(p *entity.Profile, err error) {
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			v.profile = &entity.Profile{UserEmail: email}
		case err != nil:
			redirect, v.err = loadFailure(err)
		default:
			v.profile = p
		}
	})
	if redirect != nil {
		return redirect
	}

	Run(&v.Lifecycle, func(ctx context.Context) (*entity.User, error) {
		return v.users.GetByEmail(ctx, email)
	}, func(u *entity.User, err error) {
		if err != nil {
			redirect, v.err = loadFailure(err)
			return
		}
		v.account = u
	})
	return redirect
}

func (v *UserDashboard) Profile() *entity.Profile { return v.profile }

func (v *UserDashboard) Account() *entity.User { return v.account }

// SaveProfile stores the profile of the session user. The email always
// comes from the session.
func (v *UserDashboard) SaveProfile(ctx context.Context, p entity.Profile) error {
	email := v.session.Current().Email
	if email == "" {
		return toLogin
	}
	p.UserEmail = email
	saved, err := v.profiles.Save(ctx, p)
	if err != nil {
		v.formErr = err.Error()
		return err
	}
	v.formErr = ""
	v.profile = saved
	return nil
}

// UpdateAccount changes username, email or password of the session user.
// A new email or username is carried into the session so the dashboard
// keeps finding the account.
func (v *UserDashboard) UpdateAccount(ctx context.Context, u entity.User) error {
	if v.account == nil {
		return apperror.ErrNotFound
	}
	u.Role = v.account.Role
	updated, err := v.users.Update(ctx, v.account.ID, u)
	if err != nil {
		v.formErr = err.Error()
		return err
	}
	v.formErr = ""
	v.account = updated

	id := v.session.Current()
	if id.Email != updated.Email || id.Username != updated.Username {
		id.Email, id.Username = updated.Email, updated.Username
		if err := v.session.Login(ctx, id); err != nil {
			return fmt.Errorf("account updated but the session could not be saved: %w", err)
		}
	}
	return nil
}

func (v *UserDashboard) Render(w io.Writer) error {
	heading(w, "My dashboard")
	inlineError(w, v.err)

	if v.profile != nil {
		fmt.Fprintln(w, "\nProfile")
		fmt.Fprintf(w, "  name:  %s %s\n", sanitize.Line(v.profile.FirstName), sanitize.Line(v.profile.LastName))
		fmt.Fprintf(w, "  phone: %s\n", sanitize.Line(v.profile.Phone))
		fmt.Fprintf(w, "  email: %s\n", sanitize.Line(v.profile.UserEmail))
	}
	if v.account != nil {
		fmt.Fprintln(w, "\nAccount")
		fmt.Fprintf(w, "  #%d %s <%s> %s\n", v.account.ID, sanitize.Line(v.account.Username), sanitize.Line(v.account.Email), v.account.Role)
	}
	inlineError(w, v.formErr)
	return nil
}
