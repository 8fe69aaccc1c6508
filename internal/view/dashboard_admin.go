package view

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"anoa.com/poemhub/internal/entity"
	poemService "anoa.com/poemhub/internal/modules/poem/service"
	profileService "anoa.com/poemhub/internal/modules/profile/service"
	searchService "anoa.com/poemhub/internal/modules/search/service"
	userService "anoa.com/poemhub/internal/modules/user/service"
	"anoa.com/poemhub/pkg/logger"
	"anoa.com/poemhub/pkg/sanitize"
	"anoa.com/poemhub/pkg/storage"
)

// AdminDashboard manages poems, users and profiles.
type AdminDashboard struct {
	Lifecycle

	poems    poemService.PoemService
	users    userService.UserService
	profiles profileService.ProfileService
	searcher searchService.PoemSearcher
	images   storage.ImageStorage // nil when uploads are not configured
	log      logger.Logger

	poemList    []entity.Poem
	userList    []entity.User
	profileList []entity.Profile
	errs        map[string]string
	formErr     string
}

func NewAdminDashboard(
	poems poemService.PoemService,
	users userService.UserService,
	profiles profileService.ProfileService,
	searcher searchService.PoemSearcher,
	images storage.ImageStorage,
	log logger.Logger,
) *AdminDashboard {
	return &AdminDashboard{
		poems:    poems,
		users:    users,
		profiles: profiles,
		searcher: searcher,
		images:   images,
		log:      log,
		errs:     make(map[string]string),
	}
}

func (v *AdminDashboard) Mount(ctx context.Context, _ Params) error {
	v.Lifecycle.Mount(ctx)
	v.errs = make(map[string]string)
	v.formErr = ""

	for _, load := range []func() error{v.loadPoems, v.loadUsers, v.loadProfiles} {
		if err := load(); err != nil {
			return err
		}
	}
	return nil
}

func (v *AdminDashboard) loadPoems() error {
	var redirect error
	Run(&v.Lifecycle, v.poems.ListAll, func(list []entity.Poem, err error) {
		if err != nil {
			redirect, v.errs["poems"] = loadFailure(err)
			return
		}
		delete(v.errs, "poems")
		v.poemList = poemService.SortByPostDate(list)
	})
	return redirect
}

func (v *AdminDashboard) loadUsers() error {
	var redirect error
	Run(&v.Lifecycle, v.users.ListAll, func(list []entity.User, err error) {
		if err != nil {
			redirect, v.errs["users"] = loadFailure(err)
			return
		}
		delete(v.errs, "users")
		v.userList = list
	})
	return redirect
}

func (v *AdminDashboard) loadProfiles() error {
	var redirect error
	Run(&v.Lifecycle, v.profiles.ListAll, func(list []entity.Profile, err error) {
		if err != nil {
			redirect, v.errs["profiles"] = loadFailure(err)
			return
		}
		delete(v.errs, "profiles")
		v.profileList = list
	})
	return redirect
}

func (v *AdminDashboard) Poems() []entity.Poem       { return v.poemList }
func (v *AdminDashboard) Users() []entity.User       { return v.userList }
func (v *AdminDashboard) Profiles() []entity.Profile { return v.profileList }

// SavePoem creates or updates a poem. When imagePath is set the file is
// uploaded first and its URL becomes the poem's image.
func (v *AdminDashboard) SavePoem(ctx context.Context, p entity.Poem, imagePath string) (*entity.Poem, error) {
	if imagePath != "" {
		url, err := v.upload(ctx, imagePath)
		if err != nil {
			v.formErr = err.Error()
			return nil, err
		}
		p.ImageURL = url
	}

	saved, err := v.poems.Save(ctx, p)
	if err != nil {
		v.formErr = err.Error()
		return nil, err
	}
	v.formErr = ""
	if err := v.searcher.Index(ctx, []entity.Poem{*saved}); err != nil {
		v.log.Warn("indexing saved poem failed", map[string]interface{}{"poem_id": saved.ID, "error": err})
	}
	return saved, v.loadPoems()
}

func (v *AdminDashboard) upload(ctx context.Context, path string) (string, error) {
	if v.images == nil {
		return "", fmt.Errorf("image upload is not configured")
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return v.images.UploadImage(ctx, f, filepath.Base(path))
}

func (v *AdminDashboard) DeletePoem(ctx context.Context, id int64) error {
	var imageURL string
	for _, p := range v.poemList {
		if p.ID == id {
			imageURL = p.ImageURL
		}
	}

	if err := v.poems.Delete(ctx, id); err != nil {
		v.formErr = err.Error()
		return err
	}
	v.formErr = ""
	if err := v.searcher.Remove(ctx, id); err != nil {
		v.log.Warn("removing poem from search failed", map[string]interface{}{"poem_id": id, "error": err})
	}
	if imageURL != "" && v.images != nil {
		if err := v.images.DeleteImage(ctx, imageURL); err != nil {
			v.log.Warn("deleting poem image failed", map[string]interface{}{"poem_id": id, "error": err})
		}
	}
	return v.loadPoems()
}

// SaveUser creates the account when ID is 0 and updates it otherwise.
func (v *AdminDashboard) SaveUser(ctx context.Context, u entity.User) error {
	var err error
	if u.ID == 0 {
		err = v.users.Create(ctx, u)
	} else {
		_, err = v.users.Update(ctx, u.ID, u)
	}
	if err != nil {
		v.formErr = err.Error()
		return err
	}
	v.formErr = ""
	return v.loadUsers()
}

func (v *AdminDashboard) DeleteUser(ctx context.Context, id int64) error {
	if err := v.users.Delete(ctx, id); err != nil {
		v.formErr = err.Error()
		return err
	}
	v.formErr = ""
	return v.loadUsers()
}

func (v *AdminDashboard) SaveProfile(ctx context.Context, p entity.Profile) error {
	if _, err := v.profiles.Save(ctx, p); err != nil {
		v.formErr = err.Error()
		return err
	}
	v.formErr = ""
	return v.loadProfiles()
}

func (v *AdminDashboard) DeleteProfile(ctx context.Context, email string) error {
	if err := v.profiles.DeleteByEmail(ctx, email); err != nil {
		v.formErr = err.Error()
		return err
	}
	v.formErr = ""
	return v.loadProfiles()
}

func (v *AdminDashboard) Render(w io.Writer) error {
	heading(w, "Admin dashboard")

	fmt.Fprintf(w, "\nPoems (%d)\n", len(v.poemList))
	inlineError(w, v.errs["poems"])
	poemTable(w, v.poemList)

	fmt.Fprintf(w, "\nUsers (%d)\n", len(v.userList))
	inlineError(w, v.errs["users"])
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE")
	for _, u := range v.userList {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, sanitize.Line(u.Username), sanitize.Line(u.Email), u.Role)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nProfiles (%d)\n", len(v.profileList))
	inlineError(w, v.errs["profiles"])
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tFIRST NAME\tLAST NAME\tPHONE")
	for _, p := range v.profileList {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", sanitize.Line(p.UserEmail), sanitize.Line(p.FirstName), sanitize.Line(p.LastName), sanitize.Line(p.Phone))
	}
	tw.Flush()

	inlineError(w, v.formErr)
	return nil
}
