package cli

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/internal/router"
	"anoa.com/poemhub/pkg/sanitize"
	"anoa.com/poemhub/pkg/token"
	"anoa.com/poemhub/pkg/validator"

	"github.com/spf13/cobra"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func poemPath(id int64) string {
	return strings.Replace(router.PathPoem, ":id", strconv.FormatInt(id, 10), 1)
}

func (c *CLI) openCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Go to a path, e.g. /poems/3 or /dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.navigate(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) loginCommand() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Log in; the password is prompted when not given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.at(ctx, router.PathLogin); err != nil {
				return err
			}
			username, err := c.argOrPrompt(args, 0, "username: ")
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = c.promptSecret("password: "); err != nil {
					return err
				}
			}

			next, err := c.app.Login.Submit(ctx, username, password)
			if err != nil {
				return c.finish(ctx, err)
			}
			return c.navigate(ctx, next)
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func (c *CLI) registerCommand() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register [username] [email]",
		Short: "Create an account and log in",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.at(ctx, router.PathRegister); err != nil {
				return err
			}
			username, err := c.argOrPrompt(args, 0, "username: ")
			if err != nil {
				return err
			}
			email, err := c.argOrPrompt(args, 1, "email: ")
			if err != nil {
				return err
			}
			confirm := password
			if password == "" {
				if password, err = c.promptSecret("password: "); err != nil {
					return err
				}
				if confirm, err = c.promptSecret("confirm password: "); err != nil {
					return err
				}
			}

			next, err := c.app.Register.Submit(ctx, username, email, password, confirm)
			if err != nil {
				return c.finish(ctx, err)
			}
			return c.navigate(ctx, next)
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password, used as its own confirmation")
	return cmd
}

func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c.app.Restore(ctx)
			if err := c.app.Logout(ctx); err != nil {
				fmt.Fprintln(c.out, "warning:", err)
			}
			return c.navigate(ctx, router.PathHome)
		},
	}
}

func (c *CLI) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Restore(cmd.Context())
			id := c.app.Session.Current()
			if id.Anonymous() {
				fmt.Fprintln(c.out, "not logged in")
				return nil
			}

			name, email := id.Username, id.Email
			if name == "" {
				name = "-"
			}
			if email == "" {
				email = "-"
			}
			fmt.Fprintf(c.out, "%s <%s> %s\n", sanitize.Line(name), sanitize.Line(email), id.Role)
			if exp, ok := token.Decode(id.Token).ExpiresAt(); ok {
				fmt.Fprintf(c.out, "session expires %s\n", exp.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

func (c *CLI) poemsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "poems [page]",
		Short: "List poems, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid page %q", args[0])
				}
				page = n
			}
			return c.navigate(cmd.Context(), fmt.Sprintf("%s?page=%d", router.PathHome, page))
		},
	}
}

func (c *CLI) likedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "liked",
		Short: "List the poems you liked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.navigate(cmd.Context(), router.PathLiked)
		},
	}
}

func (c *CLI) searchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find poems by title or author",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.Join(args, " ")
			return c.navigate(cmd.Context(), router.PathSearch+"?q="+url.QueryEscape(q))
		},
	}
}

func (c *CLI) poemCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "poem <id>",
		Short: "Show a poem with its likes and comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.navigate(cmd.Context(), poemPath(id))
		},
	}
}

func (c *CLI) likeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "like <poem-id>",
		Short: "Like a poem, or take the like back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.at(ctx, poemPath(id)); err != nil {
				return err
			}
			return c.finish(ctx, c.app.Detail.ToggleLike(ctx))
		},
	}
}

func (c *CLI) commentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Add, edit or delete comments on a poem",
	}

	add := &cobra.Command{
		Use:  "add <poem-id> <text>",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			poemID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.at(ctx, poemPath(poemID)); err != nil {
				return err
			}
			return c.finish(ctx, c.app.Detail.AddComment(ctx, strings.Join(args[1:], " ")))
		},
	}

	edit := &cobra.Command{
		Use:  "edit <poem-id> <comment-id> <text>",
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			poemID, err := parseID(args[0])
			if err != nil {
				return err
			}
			commentID, err := parseID(args[1])
			if err != nil {
				return err
			}
			if err := c.at(ctx, poemPath(poemID)); err != nil {
				return err
			}
			return c.finish(ctx, c.app.Detail.EditComment(ctx, commentID, strings.Join(args[2:], " ")))
		},
	}

	del := &cobra.Command{
		Use:  "delete <poem-id> <comment-id>",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			poemID, err := parseID(args[0])
			if err != nil {
				return err
			}
			commentID, err := parseID(args[1])
			if err != nil {
				return err
			}
			if err := c.at(ctx, poemPath(poemID)); err != nil {
				return err
			}
			return c.finish(ctx, c.app.Detail.DeleteComment(ctx, commentID))
		},
	}

	cmd.AddCommand(add, edit, del)
	return cmd
}

func (c *CLI) dashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the dashboard for your role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.navigate(cmd.Context(), router.PathDashboard)
		},
	}
}

func (c *CLI) poemSaveCommand() *cobra.Command {
	var id int64
	var title, author, text, date, textFile, image string
	cmd := &cobra.Command{
		Use:   "poem-save",
		Short: "Create a poem, or update the one given by --id (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.at(ctx, router.PathAdminDashboard); err != nil {
				return err
			}

			poem := entity.Poem{ID: id}
			if id != 0 {
				found := false
				for _, p := range c.app.AdminDash.Poems() {
					if p.ID == id {
						poem, found = p, true
					}
				}
				if !found {
					return fmt.Errorf("poem %d not found", id)
				}
			}
			if textFile != "" {
				b, err := os.ReadFile(textFile)
				if err != nil {
					return fmt.Errorf("read poem text: %w", err)
				}
				text = string(b)
			}
			if title != "" {
				poem.Title = title
			}
			if author != "" {
				poem.Author = author
			}
			if text != "" {
				poem.Text = text
			}
			if date != "" {
				poem.PostDate = date
			}
			if poem.PostDate == "" {
				poem.PostDate = time.Now().Format(validator.DateLayout)
			}

			saved, err := c.app.AdminDash.SavePoem(ctx, poem, image)
			if err == nil {
				fmt.Fprintf(c.out, "saved poem %d\n", saved.ID)
			}
			return c.finish(ctx, err)
		},
	}
	f := cmd.Flags()
	f.Int64Var(&id, "id", 0, "poem to update")
	f.StringVar(&title, "title", "", "title")
	f.StringVar(&author, "author", "", "author")
	f.StringVar(&text, "text", "", "poem text")
	f.StringVar(&textFile, "text-file", "", "read the poem text from a file")
	f.StringVar(&date, "date", "", "post date as dd/MM/yyyy; today when empty")
	f.StringVar(&image, "image", "", "local image to upload as the poem image")
	return cmd
}

func (c *CLI) poemDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "poem-delete <id>",
		Short: "Delete a poem (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.at(ctx, router.PathAdminDashboard); err != nil {
				return err
			}
			return c.finish(ctx, c.app.AdminDash.DeletePoem(ctx, id))
		},
	}
}

func (c *CLI) usersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List accounts (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.at(cmd.Context(), router.PathAdminDashboard); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE")
			for _, u := range c.app.AdminDash.Users() {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, sanitize.Line(u.Username), sanitize.Line(u.Email), u.Role)
			}
			return tw.Flush()
		},
	}
}

func (c *CLI) userSaveCommand() *cobra.Command {
	var id int64
	var username, email, role, password string
	cmd := &cobra.Command{
		Use:   "user-save",
		Short: "Create an account, or update the one given by --id (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.at(ctx, router.PathAdminDashboard); err != nil {
				return err
			}

			user := entity.User{ID: id, Role: entity.RoleUser}
			if id != 0 {
				found := false
				for _, u := range c.app.AdminDash.Users() {
					if u.ID == id {
						user, found = u, true
					}
				}
				if !found {
					return fmt.Errorf("user %d not found", id)
				}
			} else if password == "" {
				return fmt.Errorf("--password is required for a new account")
			}
			if username != "" {
				user.Username = username
			}
			if email != "" {
				user.Email = email
			}
			if role != "" {
				r, ok := entity.ParseRole(role)
				if !ok {
					return fmt.Errorf("unknown role %q", role)
				}
				user.Role = r
			}
			user.Password, user.ConfirmPassword = password, password

			return c.finish(ctx, c.app.AdminDash.SaveUser(ctx, user))
		},
	}
	f := cmd.Flags()
	f.Int64Var(&id, "id", 0, "account to update")
	f.StringVar(&username, "username", "", "username")
	f.StringVar(&email, "email", "", "email")
	f.StringVar(&role, "role", "", "USER or ADMIN")
	f.StringVar(&password, "password", "", "new password")
	return cmd
}

func (c *CLI) userDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "user-delete <id>",
		Short: "Delete an account (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.at(ctx, router.PathAdminDashboard); err != nil {
				return err
			}
			return c.finish(ctx, c.app.AdminDash.DeleteUser(ctx, id))
		},
	}
}

func (c *CLI) profilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List profiles (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.at(cmd.Context(), router.PathAdminDashboard); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EMAIL\tFIRST NAME\tLAST NAME\tPHONE")
			for _, p := range c.app.AdminDash.Profiles() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", sanitize.Line(p.UserEmail), sanitize.Line(p.FirstName), sanitize.Line(p.LastName), sanitize.Line(p.Phone))
			}
			return tw.Flush()
		},
	}
}

// profileSaveCommand edits the caller's own profile, or for an admin the
// profile named by --email.
func (c *CLI) profileSaveCommand() *cobra.Command {
	var first, last, phone, email string
	cmd := &cobra.Command{
		Use:   "profile-save",
		Short: "Save a profile: your own, or any profile by --email for an admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c.app.Restore(ctx)

			apply := func(p *entity.Profile) {
				if first != "" {
					p.FirstName = first
				}
				if last != "" {
					p.LastName = last
				}
				if phone != "" {
					p.Phone = phone
				}
			}

			if c.app.Session.Current().Role == entity.RoleAdmin {
				if email == "" {
					return fmt.Errorf("--email is required for an admin")
				}
				if err := c.at(ctx, router.PathAdminDashboard); err != nil {
					return err
				}
				profile := entity.Profile{UserEmail: email}
				for _, p := range c.app.AdminDash.Profiles() {
					if strings.EqualFold(p.UserEmail, email) {
						profile = p
					}
				}
				apply(&profile)
				return c.finish(ctx, c.app.AdminDash.SaveProfile(ctx, profile))
			}

			if err := c.at(ctx, router.PathUserDashboard); err != nil {
				return err
			}
			var profile entity.Profile
			if p := c.app.UserDash.Profile(); p != nil {
				profile = *p
			}
			apply(&profile)
			return c.finish(ctx, c.app.UserDash.SaveProfile(ctx, profile))
		},
	}
	f := cmd.Flags()
	f.StringVar(&first, "first", "", "first name")
	f.StringVar(&last, "last", "", "last name")
	f.StringVar(&phone, "phone", "", "phone number")
	f.StringVar(&email, "email", "", "profile to save (admin only)")
	return cmd
}

func (c *CLI) profileDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profile-delete <email>",
		Short: "Delete a profile (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.at(ctx, router.PathAdminDashboard); err != nil {
				return err
			}
			return c.finish(ctx, c.app.AdminDash.DeleteProfile(ctx, args[0]))
		},
	}
}

func (c *CLI) accountCommand() *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Change your username, email or password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.at(ctx, router.PathUserDashboard); err != nil {
				return err
			}
			current := c.app.UserDash.Account()
			if current == nil {
				return c.finish(ctx, fmt.Errorf("account could not be loaded"))
			}

			u := entity.User{Username: current.Username, Email: current.Email}
			if username != "" {
				u.Username = username
			}
			if email != "" {
				u.Email = email
			}
			u.Password, u.ConfirmPassword = password, password
			return c.finish(ctx, c.app.UserDash.UpdateAccount(ctx, u))
		},
	}
	f := cmd.Flags()
	f.StringVar(&username, "username", "", "new username")
	f.StringVar(&email, "email", "", "new email")
	f.StringVar(&password, "password", "", "new password")
	return cmd
}
